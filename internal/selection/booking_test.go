package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campark/internal/model"
)

func TestToggleFloor(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60)

	b = b.ToggleFloor("F1")
	assert.True(t, b.HasFloor("F1"))

	b = b.ToggleFloor("F2")
	assert.Equal(t, []string{"F1", "F2"}, b.FloorIDs)

	b = b.ToggleFloor("F1")
	assert.Equal(t, []string{"F2"}, b.FloorIDs)
}

func TestToggleFloor_ClearsZones(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60).ToggleFloor("F1")
	b, err := b.WithZoneIDs([]string{"lot-F1-Zone A"})
	require.NoError(t, err)

	b = b.ToggleFloor("F2")
	assert.Empty(t, b.ZoneIDs)
}

func TestWithVehicleType_ClearsZonesKeepsFloors(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60).ToggleFloor("F1")
	b, err := b.WithZoneIDs([]string{"lot-F1-Zone A"})
	require.NoError(t, err)

	b = b.WithVehicleType(model.VehicleEV)
	assert.Equal(t, model.VehicleEV, b.VehicleType)
	assert.True(t, b.HasFloor("F1"))
	assert.Empty(t, b.ZoneIDs)
}

func TestZoneSelectionRequiresFloor(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60)

	_, err := b.ToggleZoneIDs([]string{"lot-F1-Zone A"})
	assert.ErrorIs(t, err, ErrNoFloorSelected)

	_, err = b.WithZoneIDs([]string{"lot-F1-Zone A"})
	assert.ErrorIs(t, err, ErrNoFloorSelected)

	// Clearing is always allowed.
	_, err = b.WithZoneIDs(nil)
	assert.NoError(t, err)
}

func TestToggleZoneIDs(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60).ToggleFloor("F1").ToggleFloor("F2")
	aggA := []string{"lot-F1-Zone A", "lot-F2-Zone A"}
	aggB := []string{"lot-F1-Zone B", "lot-F2-Zone B"}

	b, err := b.ToggleZoneIDs(aggA)
	require.NoError(t, err)
	assert.True(t, b.HasAllZoneIDs(aggA))

	b, err = b.ToggleZoneIDs(aggB)
	require.NoError(t, err)
	assert.True(t, b.HasAllZoneIDs(aggA))
	assert.True(t, b.HasAllZoneIDs(aggB))

	// Toggling a fully selected aggregate removes its ids.
	b, err = b.ToggleZoneIDs(aggA)
	require.NoError(t, err)
	assert.False(t, b.HasAllZoneIDs(aggA))
	assert.True(t, b.HasAllZoneIDs(aggB))
}

func TestToggleZoneIDs_PartialSelectionCompletes(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60).ToggleFloor("F1")
	b, err := b.WithZoneIDs([]string{"lot-F1-Zone A"})
	require.NoError(t, err)

	agg := []string{"lot-F1-Zone A", "lot-F2-Zone A"}
	assert.False(t, b.HasAllZoneIDs(agg))

	// A partially covered aggregate toggles to fully selected, not off.
	b, err = b.ToggleZoneIDs(agg)
	require.NoError(t, err)
	assert.True(t, b.HasAllZoneIDs(agg))
	assert.Len(t, b.ZoneIDs, 2)
}

func TestHasAllZoneIDs_EmptySetNeverSelected(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60)
	assert.False(t, b.HasAllZoneIDs(nil))
}

func TestWithDateIndex_ClampsNegative(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60).WithDateIndex(-3)
	assert.Equal(t, 0, b.DateIndex)
}

func TestUpdatesDoNotAliasSlices(t *testing.T) {
	b := NewBookingSelection(model.VehicleNormal, 60).ToggleFloor("F1")
	next := b.ToggleFloor("F2")
	assert.Equal(t, []string{"F1"}, b.FloorIDs)
	assert.Equal(t, []string{"F1", "F2"}, next.FloorIDs)
}
