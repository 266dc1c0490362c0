package assign

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	floorPri = map[string]int{"F1": 1, "F2": 2}
	zonePri  = map[string]int{"Zone A": 1, "Zone B": 2, "Zone C": 3}
)

func rng() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestPickBest_LowestScoreWins(t *testing.T) {
	board := map[string]map[string][]string{
		"F1": {"Zone B": {"B01"}},
		"F2": {"Zone A": {"A01"}},
	}

	// F1/Zone B scores 12, F2/Zone A scores 21.
	got, err := PickBest([]string{"F1", "F2"}, []string{"Zone A", "Zone B"}, board, floorPri, zonePri, rng())
	require.NoError(t, err)
	assert.Equal(t, "F1", got.Floor)
	assert.Equal(t, "Zone B", got.Zone)
	assert.Equal(t, "B01", got.SlotLabel)
}

func TestPickBest_SkipsEmptyCells(t *testing.T) {
	board := map[string]map[string][]string{
		"F1": {"Zone A": {}},
		"F2": {"Zone A": {"A05"}},
	}

	got, err := PickBest([]string{"F1", "F2"}, []string{"Zone A"}, board, floorPri, zonePri, rng())
	require.NoError(t, err)
	assert.Equal(t, "F2", got.Floor)
	assert.Equal(t, "A05", got.SlotLabel)
}

func TestPickBest_UnlistedKeysRankLast(t *testing.T) {
	board := map[string]map[string][]string{
		"F1": {"Zone X": {"X01"}},
		"F9": {"Zone A": {"A01"}},
	}

	// F1/Zone X scores 1*10+99, F9/Zone A scores 99*10+1: the unknown zone
	// beats the unknown floor.
	got, err := PickBest([]string{"F1", "F9"}, []string{"Zone A", "Zone X"}, board, floorPri, zonePri, rng())
	require.NoError(t, err)
	assert.Equal(t, "F1", got.Floor)
	assert.Equal(t, "Zone X", got.Zone)
}

func TestPickBest_TieResolvedByBuildOrder(t *testing.T) {
	board := map[string]map[string][]string{
		"F1": {"Zone A": {"A01"}, "Zone B": {"B01"}},
	}
	flatPri := map[string]int{"Zone A": 1, "Zone B": 1}

	// Equal scores: the earlier zone in the selection order wins.
	got, err := PickBest([]string{"F1"}, []string{"Zone B", "Zone A"}, board, floorPri, flatPri, rng())
	require.NoError(t, err)
	assert.Equal(t, "Zone B", got.Zone)
}

func TestPickBest_SlotPickIsSeedDeterministic(t *testing.T) {
	board := map[string]map[string][]string{
		"F1": {"Zone A": {"A01", "A02", "A03", "A04"}},
	}

	first, err := PickBest([]string{"F1"}, []string{"Zone A"}, board, floorPri, zonePri, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	second, err := PickBest([]string{"F1"}, []string{"Zone A"}, board, floorPri, zonePri, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, board["F1"]["Zone A"], first.SlotLabel)
}

func TestPickBest_NoAvailability(t *testing.T) {
	board := map[string]map[string][]string{
		"F1": {"Zone A": {}},
	}

	_, err := PickBest([]string{"F1"}, []string{"Zone A"}, board, floorPri, zonePri, rng())
	assert.ErrorIs(t, err, ErrNoAvailability)

	_, err = PickBest(nil, nil, board, floorPri, zonePri, rng())
	assert.ErrorIs(t, err, ErrNoAvailability)
}
