// Package occupancy abstracts where remaining-spot counts come from. The
// engine only sees the Source interface; the current system feeds it
// synthetic counts, a production deployment plugs in a live feed.
package occupancy

import (
	"context"
	"hash/fnv"
	"time"
)

// TimeRange bounds an occupancy query.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Source answers how many spots remain free for a lot scope and time range.
// Floor and zone may be empty to query the whole lot. Implementations must
// return a non-negative count.
type Source interface {
	Remaining(ctx context.Context, lotID, floor, zone string, tr TimeRange) (int, error)
}

// CapacityFunc resolves the spot capacity of a lot scope. The synthetic
// source uses it to bound its draws.
type CapacityFunc func(lotID, floor, zone string) int

// Synthetic draws pseudo-random remaining counts. Draws are keyed on the
// query, not on call order, so a fixed seed yields the same count for the
// same slot no matter how callers interleave.
type Synthetic struct {
	seed     int64
	capacity CapacityFunc

	// FullRatio is the share of draws forced to zero, mimicking slots that
	// happen to be fully booked. Out-of-range values fall back to 0.2.
	FullRatio float64
}

// NewSynthetic creates a synthetic source bounded by the given capacity
// resolver.
func NewSynthetic(seed int64, capacity CapacityFunc) *Synthetic {
	return &Synthetic{seed: seed, capacity: capacity, FullRatio: 0.2}
}

// Remaining draws a deterministic count in [0, capacity].
func (s *Synthetic) Remaining(_ context.Context, lotID, floor, zone string, tr TimeRange) (int, error) {
	capacity := 0
	if s.capacity != nil {
		capacity = s.capacity(lotID, floor, zone)
	}
	if capacity <= 0 {
		return 0, nil
	}

	draw := s.draw(lotID, floor, zone, tr.Start)
	ratio := s.FullRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.2
	}
	if float64(draw%1000)/1000.0 < ratio {
		return 0, nil
	}
	return 1 + int(draw/1000)%capacity, nil
}

func (s *Synthetic) draw(lotID, floor, zone string, at time.Time) uint64 {
	h := fnv.New64a()
	h.Write([]byte(lotID))
	h.Write([]byte{0})
	h.Write([]byte(floor))
	h.Write([]byte{0})
	h.Write([]byte(zone))
	h.Write([]byte{0})
	h.Write([]byte(at.UTC().Format(time.RFC3339)))
	var seedBytes [8]byte
	seed := uint64(s.seed)
	for i := range seedBytes {
		seedBytes[i] = byte(seed >> (8 * i))
	}
	h.Write(seedBytes[:])
	return h.Sum64()
}
