package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"campark/internal/api"
	"campark/internal/config"
	"campark/internal/engine"
	"campark/internal/metrics"
	"campark/internal/notify"
	"campark/internal/occupancy"
	"campark/internal/report"
)

func main() {
	reportMode := flag.Bool("report", false, "write the availability report and exit")
	flag.Parse()

	// .env is optional; real deployments set environment directly.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CAMPARK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	lotsCfg, err := config.LoadLotsConfig(cfg.LotsConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load lot catalog")
	}

	src, store, err := buildOccupancySource(cfg, lotsCfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build occupancy source")
	}
	if store != nil {
		defer store.Close()
	}

	metrics.Register()

	notifier := notify.NewThrottled(cfg.Notices.PerSecond, cfg.Notices.Burst, nil, &logger)
	eng := engine.New(lotsCfg.ToModel(), src, notifier, &logger, engine.Options{
		DaysAhead:       cfg.Engine.DaysAhead,
		DefaultInterval: cfg.Engine.DefaultInterval,
		SlotsPerZone:    cfg.Engine.SlotsPerZone,
		ZoneNames:       cfg.Engine.ZoneNames,
		FloorPriority:   cfg.Engine.FloorPriority,
		ZonePriority:    cfg.Engine.ZonePriority,
		GrowLeft:        cfg.Engine.GrowLeft,
	})

	if *reportMode {
		path := cfg.Report.Path
		if path == "" {
			path = "availability.xlsx"
		}
		runReport(eng, store, path, &logger)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hot reload of the lot catalog.
	if err := config.WatchLots(ctx, cfg.LotsConfigPath, 30*time.Second, func(updated *config.LotsConfig) {
		if updated == nil {
			return
		}
		eng.ReplaceCatalog(updated.ToModel())
	}); err != nil {
		logger.Error().Err(err).Msg("lot catalog watch failed")
	}

	go eng.RunStatusTicker(ctx, cfg.StatusInterval())

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, store, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	logger.Info().Msg("campark engine started")
	server := api.NewServer(eng, &logger)
	if err := server.Run(ctx, fmt.Sprintf(":%d", cfg.API.Port)); err != nil {
		logger.Fatal().Err(err).Msg("API server error")
	}
}

// buildOccupancySource assembles the occupancy chain: synthetic or
// store-backed base, optionally wrapped in a Redis read-through cache.
func buildOccupancySource(cfg *config.Config, lotsCfg *config.LotsConfig, logger *zerolog.Logger) (occupancy.Source, *occupancy.Store, error) {
	var (
		src   occupancy.Source
		store *occupancy.Store
		err   error
	)

	switch cfg.Occupancy.Source {
	case "store":
		store, err = occupancy.NewStore(cfg.Occupancy.StorePath)
		if err != nil {
			return nil, nil, err
		}
		src = store
		logger.Info().Str("path", cfg.Occupancy.StorePath).Msg("using occupancy store")
	default:
		src = occupancy.NewSynthetic(cfg.Occupancy.Seed, capacityResolver(lotsCfg))
		logger.Info().Int64("seed", cfg.Occupancy.Seed).Msg("using synthetic occupancy")
	}

	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		src = occupancy.NewCache(src, rdb, cfg.CacheTTL())
		logger.Info().Str("addr", cfg.Redis.Address).Dur("ttl", cfg.CacheTTL()).Msg("occupancy cache enabled")
	}

	return src, store, nil
}

// capacityResolver bounds synthetic draws by the catalog capacities. A
// floor/zone scope gets the lot capacity spread over its cells.
func capacityResolver(lotsCfg *config.LotsConfig) occupancy.CapacityFunc {
	lots := lotsCfg.ToModel()
	return func(lotID, floor, zone string) int {
		for i := range lots {
			lot := &lots[i]
			if lot.ID != lotID {
				continue
			}
			total := lot.Capacity.Normal + lot.Capacity.EV + lot.Capacity.Motorcycle
			if floor == "" && zone == "" {
				return total
			}
			cells := len(lot.Floors)
			if cells == 0 {
				cells = 1
			}
			if zone != "" {
				cells *= 4
			}
			per := total / cells
			if per <= 0 {
				per = 1
			}
			return per
		}
		return 0
	}
}

func runReport(eng *engine.Engine, store *occupancy.Store, path string, logger *zerolog.Logger) {
	eng.RecomputeStatuses()
	writer := report.NewExcelizeWriter()
	defer writer.Close()

	exporter := report.NewExporter(eng, store)
	if err := exporter.Export(context.Background(), writer); err != nil {
		logger.Fatal().Err(err).Msg("report export failed")
	}
	if err := writer.SaveToFile(path); err != nil {
		logger.Fatal().Err(err).Msg("report save failed")
	}
	logger.Info().Str("path", path).Msg("availability report written")
}

func startHealthServer(ctx context.Context, port int, store *occupancy.Store, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctxPing, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if _, err := store.Remaining(ctxPing, "readyz", "", "", occupancy.TimeRange{}); err != nil && !errors.Is(err, occupancy.ErrNoObservation) {
				http.Error(w, "occupancy store not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
