package zones

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campark/internal/model"
	"campark/internal/occupancy"
)

// tableSource maps "floor/zone" to a remaining count, defaulting to def.
type tableSource struct {
	counts map[string]int
	def    int
}

func (s tableSource) Remaining(_ context.Context, _, floor, zone string, _ occupancy.TimeRange) (int, error) {
	if n, ok := s.counts[floor+"/"+zone]; ok {
		return n, nil
	}
	return s.def, nil
}

var buildAt = time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

func testLot(avail, capacity int) *model.Lot {
	return &model.Lot{
		ID:        "lot1",
		Floors:    []string{"F1", "F2"},
		Capacity:  model.CapacityByType{Normal: capacity},
		Available: model.CapacityByType{Normal: avail},
	}
}

func TestBuildFloors_SumNeverExceedsLotAvailability(t *testing.T) {
	lot := testLot(7, 80)
	src := tableSource{def: 100}

	floors, err := BuildFloors(context.Background(), lot, model.VehicleNormal, []string{"Zone A", "Zone B"}, src, buildAt)
	require.NoError(t, err)
	require.Len(t, floors, 2)

	total := 0
	for _, f := range floors {
		total += f.TotalAvailable
	}
	assert.Equal(t, 7, total)
}

func TestBuildFloors_CapacitySplitCeil(t *testing.T) {
	// 80 spots over 2 floors x 4 zones: 10 per zone.
	lot := testLot(40, 80)
	src := tableSource{def: 3}

	floors, err := BuildFloors(context.Background(), lot, model.VehicleNormal, nil, src, buildAt)
	require.NoError(t, err)
	require.Len(t, floors, 2)
	require.Len(t, floors[0].Zones, 4)
	assert.Equal(t, 10, floors[0].Zones[0].Capacity)
	assert.Equal(t, 40, floors[0].Capacity)
}

func TestBuildFloors_ZoneStatus(t *testing.T) {
	lot := testLot(5, 80)
	src := tableSource{counts: map[string]int{
		"F1/Zone A": 5,
		"F1/Zone B": 0,
	}, def: 0}

	floors, err := BuildFloors(context.Background(), lot, model.VehicleNormal, []string{"Zone A", "Zone B"}, src, buildAt)
	require.NoError(t, err)

	assert.Equal(t, ZoneAvailable, floors[0].Zones[0].Status)
	assert.Equal(t, ZoneFull, floors[0].Zones[1].Status)
	assert.Equal(t, "lot1-F1-Zone A", floors[0].Zones[0].ID)
}

func TestBuildFloors_NoAvailabilityMeansEveryZoneFull(t *testing.T) {
	lot := testLot(0, 80)
	src := tableSource{def: 100}

	floors, err := BuildFloors(context.Background(), lot, model.VehicleNormal, nil, src, buildAt)
	require.NoError(t, err)
	for _, f := range floors {
		assert.Equal(t, 0, f.TotalAvailable)
		for _, z := range f.Zones {
			assert.Equal(t, ZoneFull, z.Status)
		}
	}
}

func TestAggregate(t *testing.T) {
	floors := []Floor{
		{ID: "F1", Zones: []Zone{
			{ID: "lot1-F1-Zone A", Name: "Zone A", Available: 5, Capacity: 5},
			{ID: "lot1-F1-Zone B", Name: "Zone B", Available: 0, Capacity: 5},
		}},
		{ID: "F2", Zones: []Zone{
			{ID: "lot1-F2-Zone A", Name: "Zone A", Available: 0, Capacity: 5},
			{ID: "lot1-F2-Zone B", Name: "Zone B", Available: 0, Capacity: 5},
		}},
	}

	aggs := Aggregate(floors, []string{"F1", "F2"})
	require.Len(t, aggs, 2)

	// Sorted by name.
	assert.Equal(t, "Zone A", aggs[0].Name)
	assert.Equal(t, "Zone B", aggs[1].Name)

	// F1 has 5, F2 has 0: the aggregate sums to 5 over capacity 10 and
	// stays available despite the empty floor.
	assert.Equal(t, 5, aggs[0].Available)
	assert.Equal(t, 10, aggs[0].Capacity)
	assert.Equal(t, ZoneAvailable, aggs[0].Status)
	assert.Equal(t, []string{"lot1-F1-Zone A", "lot1-F2-Zone A"}, aggs[0].IDs)

	assert.Equal(t, ZoneFull, aggs[1].Status)
}

func TestAggregate_SubsetOfFloors(t *testing.T) {
	floors := []Floor{
		{ID: "F1", Zones: []Zone{{ID: "a1", Name: "Zone A", Available: 3, Capacity: 5}}},
		{ID: "F2", Zones: []Zone{{ID: "a2", Name: "Zone A", Available: 4, Capacity: 5}}},
	}

	aggs := Aggregate(floors, []string{"F2"})
	require.Len(t, aggs, 1)
	assert.Equal(t, 4, aggs[0].Available)
	assert.Equal(t, []string{"a2"}, aggs[0].IDs)

	// Unknown floor ids are skipped.
	assert.Empty(t, Aggregate(floors, []string{"F9"}))
}

func TestTotalAvailable(t *testing.T) {
	aggs := []AggregatedZone{
		{Name: "Zone A", Available: 3},
		{Name: "Zone B", Available: 4},
	}
	got := TotalAvailable(aggs, func(a AggregatedZone) bool { return a.Name == "Zone B" })
	assert.Equal(t, 4, got)
}

func TestBuildBoard(t *testing.T) {
	src := tableSource{counts: map[string]int{
		"F1/Zone A": 2,
		"F1/Zone B": 0,
	}, def: 0}

	board, all, err := BuildBoard(context.Background(), "lot1", []string{"F1"}, []string{"Zone A", "Zone B"}, 4, src, buildAt)
	require.NoError(t, err)
	require.Len(t, all, 8)

	// Free spots fill front to back.
	assert.Equal(t, []string{"A01", "A02"}, board["F1"]["Zone A"])
	assert.Empty(t, board["F1"]["Zone B"])

	assert.False(t, all[0].Booked)
	assert.True(t, all[2].Booked)
}

func TestSpotLabel(t *testing.T) {
	assert.Equal(t, "A01", SpotLabel("Zone A", 1))
	assert.Equal(t, "B12", SpotLabel("Zone B", 12))
	assert.Equal(t, "VIP03", SpotLabel("VIP", 3))
}
