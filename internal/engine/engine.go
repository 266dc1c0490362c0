// Package engine orchestrates one booking flow: schedule evaluation, slot
// generation, range selection, floor/zone aggregation and auto-assignment.
// Everything runs to completion synchronously inside one call; the only
// background activity is the periodic status recompute, which touches
// lot-level status fields and nothing a user may be mid-selecting.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"campark/internal/metrics"
	"campark/internal/model"
	"campark/internal/notify"
	"campark/internal/occupancy"
	"campark/internal/schedule"
	"campark/internal/selection"
	"campark/internal/slots"
)

var (
	ErrLotNotFound  = errors.New("lot not found")
	ErrFlowNotFound = errors.New("booking flow not found")
)

// Options tunes the engine.
type Options struct {
	// DaysAhead is how many day sections a flow shows, starting today.
	DaysAhead int
	// DefaultInterval is the slot interval mode a new flow starts with.
	DefaultInterval int
	// SlotsPerZone is the physical board size per (floor, zone) cell.
	SlotsPerZone int
	// ZoneNames lays out the zones of every floor.
	ZoneNames []string
	// FloorPriority and ZonePriority rank auto-assignment candidates;
	// anything missing falls back to the lowest rank.
	FloorPriority map[string]int
	ZonePriority  map[string]int
	// GrowLeft switches the range selector to the retroactive
	// range-building policy: clicking before a single selection extends the
	// range backwards instead of restarting.
	GrowLeft bool
}

func (o *Options) applyDefaults() {
	if o.DaysAhead <= 0 {
		o.DaysAhead = 3
	}
	if o.DefaultInterval == 0 {
		o.DefaultInterval = 60
	}
	if o.SlotsPerZone <= 0 {
		o.SlotsPerZone = 12
	}
	if len(o.ZoneNames) == 0 {
		o.ZoneNames = []string{"Zone A", "Zone B", "Zone C", "Zone D"}
	}
}

// Engine owns the lot catalog and the live booking flows.
type Engine struct {
	mu    sync.Mutex
	lots  []model.Lot
	flows map[string]*Flow

	src      occupancy.Source
	gen      *slots.Generator
	sel      selection.Selector
	notifier notify.Notifier
	logger   *zerolog.Logger
	opts     Options

	now func() time.Time
	rng *rand.Rand
}

// New builds an engine over the given catalog and occupancy source.
func New(lots []model.Lot, src occupancy.Source, notifier notify.Notifier, logger *zerolog.Logger, opts Options) *Engine {
	opts.applyDefaults()
	e := &Engine{
		lots:     append([]model.Lot(nil), lots...),
		flows:    make(map[string]*Flow),
		src:      src,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if opts.GrowLeft {
		e.sel.Policy = selection.PolicyGrowLeft
	}
	e.gen = slots.NewGenerator(src, func() time.Time { return e.now() })
	return e
}

// SetClock overrides the engine clock, for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// SetRand overrides the randomness used by auto-assignment, for tests.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rng
}

// ReplaceCatalog swaps in a freshly loaded lot catalog. Live flows keep their
// own lot copy; only new flows and the lot list see the update.
func (e *Engine) ReplaceCatalog(lots []model.Lot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lots = append([]model.Lot(nil), lots...)
	e.recomputeStatusesLocked()
	if e.logger != nil {
		e.logger.Info().Int("lots", len(lots)).Msg("lot catalog replaced")
	}
}

// Lots returns the catalog with current derived statuses.
func (e *Engine) Lots() []model.Lot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Lot(nil), e.lots...)
}

// Lot returns one lot by id.
func (e *Engine) Lot(id string) (model.Lot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lot := e.findLotLocked(id)
	if lot == nil {
		return model.Lot{}, ErrLotNotFound
	}
	return *lot, nil
}

// FilterLots narrows the catalog by free-text query and tab ("all",
// "bookmarked", "ev"), ordered by distance.
func (e *Engine) FilterLots(query, tab string) []model.Lot {
	e.mu.Lock()
	defer e.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))
	var out []model.Lot
	for _, lot := range e.lots {
		if query != "" && !strings.Contains(strings.ToLower(lot.Name), query) {
			continue
		}
		switch tab {
		case "bookmarked":
			if !lot.Bookmarked {
				continue
			}
		case "ev":
			if !lot.HasEVCharger {
				continue
			}
		}
		out = append(out, lot)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// WeekHours returns the seven-day opening-hours rows for a lot.
func (e *Engine) WeekHours(lotID string) ([]schedule.DayHours, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lot := e.findLotLocked(lotID)
	if lot == nil {
		return nil, ErrLotNotFound
	}
	return schedule.WeekHours(lot.Schedule, e.now()), nil
}

// RecomputeStatuses re-derives every lot's status and hours label for the
// current instant. Slot and selection state are untouched: only explicit user
// actions invalidate those.
func (e *Engine) RecomputeStatuses() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputeStatusesLocked()
}

func (e *Engine) recomputeStatusesLocked() {
	now := e.now()
	open := 0
	for i := range e.lots {
		lot := &e.lots[i]
		vt := lot.DefaultType(model.VehicleNormal)
		lot.Status = schedule.Status(lot, vt, now)
		lot.Hours = schedule.HoursLabel(lot.Schedule, now)
		if lot.Status != model.StatusClosed {
			open++
		}
	}
	metrics.IncStatusRecompute()
	metrics.SetLotsOpen(open)
}

// RunStatusTicker recomputes statuses on the given interval until ctx ends.
func (e *Engine) RunStatusTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	e.RecomputeStatuses()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RecomputeStatuses()
		}
	}
}

func (e *Engine) findLotLocked(id string) *model.Lot {
	for i := range e.lots {
		if e.lots[i].ID == id {
			return &e.lots[i]
		}
	}
	return nil
}

func (e *Engine) notice(message string) {
	if e.notifier != nil {
		e.notifier.Notice(message)
	}
}
