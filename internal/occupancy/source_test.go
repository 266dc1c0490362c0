package occupancy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatCapacity(n int) CapacityFunc {
	return func(string, string, string) int { return n }
}

func TestSynthetic_Deterministic(t *testing.T) {
	at := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	tr := TimeRange{Start: at, End: at.Add(time.Hour)}

	a := NewSynthetic(42, flatCapacity(20))
	b := NewSynthetic(42, flatCapacity(20))

	// Interleave queries in different orders: counts depend only on the
	// query, never on call history.
	n1, err := a.Remaining(context.Background(), "lot1", "F1", "Zone A", tr)
	require.NoError(t, err)
	_, err = a.Remaining(context.Background(), "lot2", "F2", "Zone B", tr)
	require.NoError(t, err)

	_, err = b.Remaining(context.Background(), "lot2", "F2", "Zone B", tr)
	require.NoError(t, err)
	n2, err := b.Remaining(context.Background(), "lot1", "F1", "Zone A", tr)
	require.NoError(t, err)

	assert.Equal(t, n1, n2)
}

func TestSynthetic_SeedChangesDraws(t *testing.T) {
	at := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	a := NewSynthetic(1, flatCapacity(50))
	b := NewSynthetic(2, flatCapacity(50))

	differs := false
	for h := 0; h < 24; h++ {
		tr := TimeRange{Start: at.Add(time.Duration(h) * time.Hour)}
		n1, _ := a.Remaining(context.Background(), "lot1", "", "", tr)
		n2, _ := b.Remaining(context.Background(), "lot1", "", "", tr)
		if n1 != n2 {
			differs = true
			break
		}
	}
	assert.True(t, differs)
}

func TestSynthetic_BoundedByCapacity(t *testing.T) {
	at := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	s := NewSynthetic(7, flatCapacity(5))

	for h := 0; h < 48; h++ {
		tr := TimeRange{Start: at.Add(time.Duration(h) * time.Hour)}
		n, err := s.Remaining(context.Background(), "lot1", "F1", "Zone A", tr)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, n, 5)
	}
}

func TestSynthetic_ZeroCapacity(t *testing.T) {
	s := NewSynthetic(7, flatCapacity(0))
	n, err := s.Remaining(context.Background(), "lot1", "", "", TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	s = NewSynthetic(7, nil)
	n, err = s.Remaining(context.Background(), "lot1", "", "", TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSynthetic_SomeDrawsAreFull(t *testing.T) {
	at := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	s := NewSynthetic(3, flatCapacity(50))

	zeros := 0
	for h := 0; h < 100; h++ {
		tr := TimeRange{Start: at.Add(time.Duration(h) * time.Hour)}
		n, err := s.Remaining(context.Background(), "lot1", "F1", "Zone A", tr)
		require.NoError(t, err)
		if n == 0 {
			zeros++
		}
	}
	// Roughly one fifth of draws read as fully booked.
	assert.Greater(t, zeros, 5)
	assert.Less(t, zeros, 50)
}
