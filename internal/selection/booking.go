package selection

import (
	"errors"

	"campark/internal/model"
)

// ErrNoFloorSelected rejects zone operations while no floor is chosen.
var ErrNoFloorSelected = errors.New("select at least one floor before choosing zones")

// BookingSelection is the session-scoped selection aggregate: vehicle type,
// date index, interval mode, floor set and underlying zone-id set. Updates
// return a new value and enforce the coupling invariants (a floor change
// clears zones; zones require a floor; governing-parameter changes invalidate
// any time range, which the caller resets separately).
type BookingSelection struct {
	VehicleType model.VehicleType
	DateIndex   int
	Interval    int
	FloorIDs    []string
	ZoneIDs     []string
}

// NewBookingSelection seeds a selection with defaults.
func NewBookingSelection(vt model.VehicleType, interval int) BookingSelection {
	return BookingSelection{VehicleType: vt, Interval: interval}
}

// WithVehicleType switches the vehicle type. Floors stay (they are physical
// structure); zones are cleared because availability is type-dependent.
func (b BookingSelection) WithVehicleType(vt model.VehicleType) BookingSelection {
	b.VehicleType = vt
	b.ZoneIDs = nil
	return b.copySlices()
}

// WithInterval switches the interval mode.
func (b BookingSelection) WithInterval(interval int) BookingSelection {
	b.Interval = interval
	return b.copySlices()
}

// WithDateIndex switches the selected day.
func (b BookingSelection) WithDateIndex(idx int) BookingSelection {
	if idx < 0 {
		idx = 0
	}
	b.DateIndex = idx
	return b.copySlices()
}

// ToggleFloor adds or removes a floor. Any zone selection is cleared: zone
// availability is meaningless without a fixed floor set.
func (b BookingSelection) ToggleFloor(floorID string) BookingSelection {
	out := b.copySlices()
	out.ZoneIDs = nil
	for i, id := range out.FloorIDs {
		if id == floorID {
			out.FloorIDs = append(out.FloorIDs[:i:i], out.FloorIDs[i+1:]...)
			return out
		}
	}
	out.FloorIDs = append(out.FloorIDs, floorID)
	return out
}

// WithFloors replaces the floor set wholesale (select-all / clear-all), also
// clearing zones.
func (b BookingSelection) WithFloors(floorIDs []string) BookingSelection {
	out := b.copySlices()
	out.FloorIDs = append([]string(nil), floorIDs...)
	out.ZoneIDs = nil
	return out
}

// ToggleZoneIDs adds or removes a set of underlying zone ids as one unit (an
// aggregated zone maps to one id per selected floor). Requires a floor.
func (b BookingSelection) ToggleZoneIDs(ids []string) (BookingSelection, error) {
	if len(b.FloorIDs) == 0 {
		return b, ErrNoFloorSelected
	}
	out := b.copySlices()
	if containsAll(out.ZoneIDs, ids) {
		keep := out.ZoneIDs[:0:0]
		for _, id := range out.ZoneIDs {
			if !contains(ids, id) {
				keep = append(keep, id)
			}
		}
		out.ZoneIDs = keep
		return out, nil
	}
	for _, id := range ids {
		if !contains(out.ZoneIDs, id) {
			out.ZoneIDs = append(out.ZoneIDs, id)
		}
	}
	return out, nil
}

// WithZoneIDs replaces the zone-id set wholesale. Requires a floor unless
// clearing.
func (b BookingSelection) WithZoneIDs(ids []string) (BookingSelection, error) {
	if len(ids) > 0 && len(b.FloorIDs) == 0 {
		return b, ErrNoFloorSelected
	}
	out := b.copySlices()
	out.ZoneIDs = append([]string(nil), ids...)
	return out, nil
}

// HasFloor reports whether the floor is selected.
func (b BookingSelection) HasFloor(floorID string) bool {
	return contains(b.FloorIDs, floorID)
}

// HasAllZoneIDs reports whether every given id is selected. Partial selection
// across floors is not representable in the UI and reads as "not selected".
func (b BookingSelection) HasAllZoneIDs(ids []string) bool {
	return len(ids) > 0 && containsAll(b.ZoneIDs, ids)
}

func (b BookingSelection) copySlices() BookingSelection {
	b.FloorIDs = append([]string(nil), b.FloorIDs...)
	b.ZoneIDs = append([]string(nil), b.ZoneIDs...)
	return b
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsAll(list []string, vs []string) bool {
	if len(vs) == 0 {
		return false
	}
	for _, v := range vs {
		if !contains(list, v) {
			return false
		}
	}
	return true
}
