// Package slots materializes a day's bookable time slots from an opening
// window and an interval mode.
package slots

import (
	"context"
	"fmt"
	"time"

	"campark/internal/occupancy"
)

// Interval modes. Positive values are fixed slot lengths in minutes; the
// negative modes bypass per-minute slotting.
const (
	IntervalFullDay = -1
	IntervalHalfDay = -2
)

// TimeSlot is one discrete bookable interval. The four trailing flags are the
// only mutable fields; the range selector recomputes them on every selection
// change.
type TimeSlot struct {
	ID        string        `json:"id"`
	Start     time.Time     `json:"start"`
	Duration  time.Duration `json:"duration"`
	TimeText  string        `json:"time_text"`
	Remaining int           `json:"remaining"`

	Available bool `json:"available"`
	Selected  bool `json:"selected"`
	InRange   bool `json:"in_range"`
}

// End returns the slot's end instant.
func (s TimeSlot) End() time.Time { return s.Start.Add(s.Duration) }

// DaySection is a day's slots plus the aggregate availability shown in the
// day header.
type DaySection struct {
	Date      time.Time  `json:"date"`
	DateLabel string     `json:"date_label"`
	TimeLabel string     `json:"time_label"`
	Slots     []TimeSlot `json:"slots"`
	Available int        `json:"available"`
	Capacity  int        `json:"capacity"`
}

// Generator builds slot sequences, pulling remaining counts from an
// occupancy source. Generation is a pure function of its inputs: rerunning it
// with the same source and clock yields identical slots.
type Generator struct {
	src occupancy.Source
	now func() time.Time
}

// NewGenerator creates a generator. now defaults to time.Now when nil.
func NewGenerator(src occupancy.Source, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{src: src, now: now}
}

// Generate materializes the slots for one day. openMinute/closeMinute bound
// the opening window in minutes since midnight, interval selects the mode and
// capacity bounds the remaining counts. Slots that start in the past always
// read as full.
func (g *Generator) Generate(ctx context.Context, lotID string, date time.Time, openMinute, closeMinute, interval, capacity int) ([]TimeSlot, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	open := dayStart.Add(time.Duration(openMinute) * time.Minute)
	close := dayStart.Add(time.Duration(closeMinute) * time.Minute)
	if !close.After(open) {
		return nil, nil
	}
	totalOpen := int(close.Sub(open) / time.Minute)

	var out []TimeSlot
	switch {
	case interval == IntervalFullDay:
		slot, err := g.buildSlot(ctx, lotID, date, open, totalOpen, capacity)
		if err != nil {
			return nil, err
		}
		out = append(out, slot)

	case interval == IntervalHalfDay:
		half := totalOpen / 2
		if half <= 0 {
			return nil, nil
		}
		first, err := g.buildSlot(ctx, lotID, date, open, half, capacity)
		if err != nil {
			return nil, err
		}
		out = append(out, first)
		secondStart := open.Add(time.Duration(half) * time.Minute)
		if secondStart.Before(close) {
			second, err := g.buildSlot(ctx, lotID, date, secondStart, half, capacity)
			if err != nil {
				return nil, err
			}
			out = append(out, second)
		}

	case interval > 0:
		for cur := open; cur.Before(close); cur = cur.Add(time.Duration(interval) * time.Minute) {
			slot, err := g.buildSlot(ctx, lotID, date, cur, interval, capacity)
			if err != nil {
				return nil, err
			}
			out = append(out, slot)
		}

	default:
		return nil, fmt.Errorf("invalid slot interval %d", interval)
	}
	return out, nil
}

func (g *Generator) buildSlot(ctx context.Context, lotID string, date, start time.Time, durationMinutes, capacity int) (TimeSlot, error) {
	duration := time.Duration(durationMinutes) * time.Minute
	end := start.Add(duration)

	remaining := 0
	if !start.Before(g.now()) {
		n, err := g.src.Remaining(ctx, lotID, "", "", occupancy.TimeRange{Start: start, End: end})
		if err != nil {
			return TimeSlot{}, fmt.Errorf("occupancy for slot %s: %w", start.Format(time.RFC3339), err)
		}
		remaining = n
		if remaining > capacity {
			remaining = capacity
		}
	}

	return TimeSlot{
		ID:        SlotID(date, start, durationMinutes),
		Start:     start,
		Duration:  duration,
		TimeText:  fmt.Sprintf("%s - %s", start.Format("15:04"), end.Format("15:04")),
		Remaining: remaining,
		Available: remaining > 0,
	}, nil
}

// SlotID derives the stable identifier for a slot: unique within a day and
// reproducible across generator runs.
func SlotID(date, start time.Time, durationMinutes int) string {
	return fmt.Sprintf("%s-%s-%dm", date.Format("2006-01-02"), start.Format("15:04"), durationMinutes)
}

// Flatten concatenates every day's slots in display order. The range selector
// indexes into this sequence when validating a candidate range.
func Flatten(days []DaySection) []TimeSlot {
	var all []TimeSlot
	for _, d := range days {
		all = append(all, d.Slots...)
	}
	return all
}
