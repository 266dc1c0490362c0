// Package selection implements the click-driven time-range state machine and
// the booking selection aggregate that couples floors to zones.
package selection

import (
	"errors"

	"campark/internal/slots"
)

var (
	// ErrSlotUnavailable rejects a click on a fully booked slot.
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrRangeConflict rejects a range that would span a fully booked slot.
	ErrRangeConflict = errors.New("range contains a full slot")
)

// Phase is the coarse state of a time-range selection.
type Phase string

const (
	PhaseEmpty  Phase = "empty"
	PhaseSingle Phase = "single"
	PhaseRange  Phase = "range"
)

// State is an immutable start/end slot pair. Transitions return a new State;
// callers replace the old value rather than mutating it. Invariant: when both
// endpoints are set, Start.Start never follows End.Start.
type State struct {
	Start *slots.TimeSlot
	End   *slots.TimeSlot
}

// Phase classifies the state.
func (s State) Phase() Phase {
	switch {
	case s.Start == nil || s.End == nil:
		return PhaseEmpty
	case s.Start.ID == s.End.ID:
		return PhaseSingle
	default:
		return PhaseRange
	}
}

// Policy controls what an earlier-slot click does while a single slot is
// selected.
type Policy int

const (
	// PolicyRestart starts a fresh single selection at the clicked slot.
	PolicyRestart Policy = iota
	// PolicyGrowLeft extends the range backwards: the clicked slot becomes
	// the start and the previous single becomes the end.
	PolicyGrowLeft
)

// Selector applies click transitions to selection states.
type Selector struct {
	Policy Policy
}

// Click applies one slot click. all is the flattened, display-ordered slot
// sequence the clicked slot belongs to; interval is the active interval mode.
// The returned state is always valid; a non-nil error reports why the click
// was rejected or downgraded (the state still reflects the documented
// recovery, e.g. a restart after a range conflict).
func (sel Selector) Click(st State, slot slots.TimeSlot, all []slots.TimeSlot, interval int) (State, error) {
	if !slot.Available {
		return st, ErrSlotUnavailable
	}

	// Full-day and half-day slots skip the click-twice protocol: one click
	// selects the slot and synthesizes the matching end marker.
	if interval < 0 {
		end := slots.TimeSlot{
			ID:        slot.ID + "/end",
			Start:     slot.End(),
			Available: true,
			Selected:  true,
		}
		return State{Start: &slot, End: &end}, nil
	}

	switch st.Phase() {
	case PhaseEmpty:
		return single(slot), nil

	case PhaseSingle:
		switch {
		case slot.ID == st.Start.ID:
			return State{}, nil
		case slot.Start.Before(st.Start.Start):
			if sel.Policy == PolicyGrowLeft {
				if !rangeClear(all, slot, *st.Start) {
					return single(slot), ErrRangeConflict
				}
				start := slot
				return State{Start: &start, End: st.End}, nil
			}
			return single(slot), nil
		default:
			if !rangeClear(all, *st.Start, slot) {
				return single(slot), ErrRangeConflict
			}
			end := slot
			return State{Start: st.Start, End: &end}, nil
		}

	default: // PhaseRange
		if slot.ID == st.Start.ID || slot.ID == st.End.ID {
			return State{}, nil
		}
		return single(slot), nil
	}
}

func single(slot slots.TimeSlot) State {
	s := slot
	return State{Start: &s, End: &s}
}

// rangeClear reports whether every slot in the closed interval [start, end]
// of the flattened sequence is available.
func rangeClear(all []slots.TimeSlot, start, end slots.TimeSlot) bool {
	startIdx, endIdx := -1, -1
	for i, s := range all {
		if s.ID == start.ID {
			startIdx = i
		}
		if s.ID == end.ID {
			endIdx = i
		}
	}
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return false
	}
	for i := startIdx; i <= endIdx; i++ {
		if !all[i].Available {
			return false
		}
	}
	return true
}

// Apply recomputes every slot's Selected and InRange flags for the given
// state. Selected marks the endpoints; InRange marks slots strictly between
// them. Days are updated in place.
func Apply(st State, days []slots.DaySection) {
	for di := range days {
		for si := range days[di].Slots {
			s := &days[di].Slots[si]
			s.Selected = false
			s.InRange = false
			if st.Start == nil || st.End == nil {
				continue
			}
			if s.ID == st.Start.ID || s.ID == st.End.ID {
				s.Selected = true
			}
			if st.Start.ID != st.End.ID &&
				s.Start.After(st.Start.Start) && s.Start.Before(st.End.Start) {
				s.InRange = true
			}
		}
	}
}
