package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		Port int `yaml:"port"`
	} `yaml:"api"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Occupancy struct {
		// Source selects the occupancy backend: "synthetic" or "store".
		Source    string `yaml:"source"`
		StorePath string `yaml:"store_path"`
		Seed      int64  `yaml:"seed"`
	} `yaml:"occupancy"`

	Engine struct {
		DaysAhead       int            `yaml:"days_ahead"`
		DefaultInterval int            `yaml:"default_interval"`
		SlotsPerZone    int            `yaml:"slots_per_zone"`
		ZoneNames       []string       `yaml:"zone_names"`
		FloorPriority   map[string]int `yaml:"floor_priority"`
		ZonePriority    map[string]int `yaml:"zone_priority"`
		GrowLeft        bool           `yaml:"grow_left"`
		StatusSeconds   int            `yaml:"status_interval_seconds"`
	} `yaml:"engine"`

	Notices struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"notices"`

	Report struct {
		Path string `yaml:"path"`
	} `yaml:"report"`

	LotsConfigPath string `yaml:"lots_config_path"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.LotsConfigPath == "" {
		cfg.LotsConfigPath = "configs/lots.yaml"
	}

	return &cfg, nil
}

// StatusInterval returns the status recompute period, defaulting to a minute.
func (c *Config) StatusInterval() time.Duration {
	if c.Engine.StatusSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Engine.StatusSeconds) * time.Second
}

// CacheTTL returns the Redis cache TTL; zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}
