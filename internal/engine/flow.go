package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"campark/internal/assign"
	"campark/internal/metrics"
	"campark/internal/model"
	"campark/internal/occupancy"
	"campark/internal/schedule"
	"campark/internal/selection"
	"campark/internal/slots"
	"campark/internal/zones"
)

var (
	ErrSlotNotFound         = errors.New("slot not found")
	ErrNoTimeSelected       = errors.New("no time range selected")
	ErrIncompleteSelection  = errors.New("select at least one floor and one zone")
	ErrUnsupportedVehicle   = errors.New("vehicle type not supported by this lot")
	ErrSpecificSlotRequired = errors.New("a specific slot label is required")
)

// Flow is one in-progress booking: the lot, the selection aggregate, the
// time-range state and the generated day sections and floor data. A flow is
// session-scoped; confirming it hands a BookingDraft off and the flow ends.
type Flow struct {
	ID        string
	Lot       model.Lot
	Selection selection.BookingSelection
	Range     selection.State
	Days      []slots.DaySection
	Floors    []zones.Floor
}

// StartFlow opens a booking flow on a lot. Floors and zones start fully
// selected, matching the reservation screen defaults.
func (e *Engine) StartFlow(ctx context.Context, lotID string, requested model.VehicleType) (*Flow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lot := e.findLotLocked(lotID)
	if lot == nil {
		return nil, ErrLotNotFound
	}

	flow := &Flow{
		ID:        uuid.NewString(),
		Lot:       *lot,
		Selection: selection.NewBookingSelection(lot.DefaultType(requested), e.opts.DefaultInterval),
	}
	flow.Selection = flow.Selection.WithFloors(flow.floorIDs())

	if err := e.rebuildFlowLocked(ctx, flow); err != nil {
		return nil, err
	}
	e.selectAllZonesLocked(flow)

	e.flows[flow.ID] = flow
	if e.logger != nil {
		e.logger.Info().Str("flow", flow.ID).Str("lot", lot.ID).
			Str("type", string(flow.Selection.VehicleType)).Msg("booking flow started")
	}
	return flow.snapshot(), nil
}

// Flow returns a snapshot of a flow by id. Mutating calls rebuild the live
// flow's slices in place under the engine lock, so callers only ever get
// detached copies; a snapshot is never updated by later calls.
func (e *Engine) Flow(id string) (*Flow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(id)
	if err != nil {
		return nil, err
	}
	return flow.snapshot(), nil
}

// EndFlow discards a flow.
func (e *Engine) EndFlow(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.flows, id)
}

func (e *Engine) flowLocked(id string) (*Flow, error) {
	flow, ok := e.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

// snapshot deep-copies everything a flow mutates after creation: the day
// sections with their slots, the per-floor zone data, the selection slices
// and the range endpoints. The lot copy is immutable once the flow starts and
// is shared as-is.
func (f *Flow) snapshot() *Flow {
	c := *f
	c.Selection.FloorIDs = append([]string(nil), f.Selection.FloorIDs...)
	c.Selection.ZoneIDs = append([]string(nil), f.Selection.ZoneIDs...)
	if f.Range.Start != nil {
		start := *f.Range.Start
		c.Range.Start = &start
	}
	if f.Range.End != nil {
		end := *f.Range.End
		c.Range.End = &end
	}
	c.Days = make([]slots.DaySection, len(f.Days))
	for i, day := range f.Days {
		day.Slots = append([]slots.TimeSlot(nil), day.Slots...)
		c.Days[i] = day
	}
	c.Floors = make([]zones.Floor, len(f.Floors))
	for i, floor := range f.Floors {
		floor.Zones = append([]zones.Zone(nil), floor.Zones...)
		c.Floors[i] = floor
	}
	return &c
}

func (f *Flow) floorIDs() []string {
	if len(f.Lot.Floors) > 0 {
		return f.Lot.Floors
	}
	return []string{"F1", "F2"}
}

// rebuildFlowLocked regenerates floor data and day sections for the flow's
// current parameters. Slot objects are created fresh; the caller resets the
// range state alongside.
func (e *Engine) rebuildFlowLocked(ctx context.Context, flow *Flow) error {
	now := e.now()
	vt := flow.Selection.VehicleType

	floors, err := zones.BuildFloors(ctx, &flow.Lot, vt, e.opts.ZoneNames, e.src, now)
	if err != nil {
		return err
	}
	flow.Floors = floors

	capacity := flow.Lot.Capacity.For(vt)
	total := len(flow.floorIDs())
	if total > 0 {
		ratio := float64(len(flow.Selection.FloorIDs)) / float64(total)
		capacity = int(math.Ceil(float64(capacity) * ratio))
	}

	days := make([]slots.DaySection, 0, e.opts.DaysAhead)
	for i := 0; i < e.opts.DaysAhead; i++ {
		date := now.AddDate(0, 0, i)
		section := slots.DaySection{
			Date:      date,
			DateLabel: date.Format("Mon 2"),
			TimeLabel: schedule.HoursLabel(flow.Lot.Schedule, date),
			Capacity:  capacity,
		}

		open, close, ok := schedule.HoursFor(flow.Lot.Schedule, date)
		if !ok {
			section.TimeLabel = "Closed"
			days = append(days, section)
			continue
		}

		daySlots, err := e.gen.Generate(ctx, flow.Lot.ID, date, open, close, flow.Selection.Interval, capacity)
		if err != nil {
			return err
		}
		section.Slots = daySlots
		section.Available = e.dayAvailable(ctx, flow, date, i, capacity)
		days = append(days, section)
	}
	flow.Days = days
	flow.Range = selection.State{}
	selection.Apply(flow.Range, flow.Days)
	return nil
}

// dayAvailable mirrors the day-header count: today shows the lot's live
// availability, future days the occupancy source's estimate, both capped by
// the pro-rated capacity.
func (e *Engine) dayAvailable(ctx context.Context, flow *Flow, date time.Time, dayIndex, capacity int) int {
	if dayIndex == 0 {
		live := flow.Lot.Available.For(flow.Selection.VehicleType)
		if live > capacity {
			return capacity
		}
		return live
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	n, err := e.src.Remaining(ctx, flow.Lot.ID, "", "", occupancy.TimeRange{Start: dayStart, End: dayStart.AddDate(0, 0, 1)})
	if err != nil {
		return 0
	}
	if n > capacity {
		return capacity
	}
	return n
}

// SelectVehicleType switches the flow's vehicle type, regenerating slots and
// resetting the time range.
func (e *Engine) SelectVehicleType(ctx context.Context, flowID string, vt model.VehicleType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return err
	}
	if !flow.Lot.Supports(vt) {
		return ErrUnsupportedVehicle
	}
	flow.Selection = flow.Selection.WithVehicleType(vt)
	if err := e.rebuildFlowLocked(ctx, flow); err != nil {
		return err
	}
	e.selectAllZonesLocked(flow)
	return nil
}

// SelectInterval switches the interval mode, regenerating slots and resetting
// the time range.
func (e *Engine) SelectInterval(ctx context.Context, flowID string, interval int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return err
	}
	flow.Selection = flow.Selection.WithInterval(interval)
	return e.rebuildFlowLocked(ctx, flow)
}

// SelectDate switches the selected day index and resets the time range.
func (e *Engine) SelectDate(flowID string, dayIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return err
	}
	flow.Selection = flow.Selection.WithDateIndex(dayIndex)
	flow.Range = selection.State{}
	selection.Apply(flow.Range, flow.Days)
	return nil
}

// ToggleFloor flips one floor in the selection. Zones are cleared, slots
// regenerate with the new pro-rated capacity and the time range resets. A
// toggle that would empty the floor set keeps the floor selected instead.
func (e *Engine) ToggleFloor(ctx context.Context, flowID, floorID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return err
	}
	next := flow.Selection.ToggleFloor(floorID)
	if len(next.FloorIDs) == 0 {
		next = next.ToggleFloor(floorID)
	}
	flow.Selection = next
	return e.rebuildFlowLocked(ctx, flow)
}

// SelectAllFloors selects every floor, clearing zones and resetting the range.
func (e *Engine) SelectAllFloors(ctx context.Context, flowID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return err
	}
	flow.Selection = flow.Selection.WithFloors(flow.floorIDs())
	return e.rebuildFlowLocked(ctx, flow)
}

// AggregatedZones merges the selected floors' zones into the virtual zone
// list shown to the user.
func (e *Engine) AggregatedZones(flowID string) ([]zones.AggregatedZone, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return nil, err
	}
	return zones.Aggregate(flow.Floors, flow.Selection.FloorIDs), nil
}

// ToggleZone flips one aggregated zone, addressing all its underlying
// per-floor zone ids at once. The time range resets.
func (e *Engine) ToggleZone(flowID, zoneName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return err
	}
	aggs := zones.Aggregate(flow.Floors, flow.Selection.FloorIDs)
	for _, agg := range aggs {
		if agg.Name != zoneName {
			continue
		}
		next, err := flow.Selection.ToggleZoneIDs(agg.IDs)
		if err != nil {
			metrics.IncSelectionRejected("zone_without_floor")
			e.notice("Select at least one floor before choosing zones")
			return err
		}
		flow.Selection = next
		flow.Range = selection.State{}
		selection.Apply(flow.Range, flow.Days)
		return nil
	}
	return fmt.Errorf("zone %q: %w", zoneName, ErrSlotNotFound)
}

// SelectAllZones selects every aggregated zone that still has availability.
func (e *Engine) SelectAllZones(flowID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return err
	}
	e.selectAllZonesLocked(flow)
	return nil
}

func (e *Engine) selectAllZonesLocked(flow *Flow) {
	aggs := zones.Aggregate(flow.Floors, flow.Selection.FloorIDs)
	var ids []string
	for _, agg := range aggs {
		if agg.Status != zones.ZoneFull {
			ids = append(ids, agg.IDs...)
		}
	}
	if next, err := flow.Selection.WithZoneIDs(ids); err == nil {
		flow.Selection = next
	}
}

// ClickSlot feeds one slot click into the range selector. Rejected clicks
// surface a notice and leave (or restart) the state per the selector's
// recovery rules.
func (e *Engine) ClickSlot(flowID, slotID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return err
	}

	all := slots.Flatten(flow.Days)
	var clicked *slots.TimeSlot
	for i := range all {
		if all[i].ID == slotID {
			clicked = &all[i]
			break
		}
	}
	if clicked == nil {
		return ErrSlotNotFound
	}

	next, clickErr := e.sel.Click(flow.Range, *clicked, all, flow.Selection.Interval)
	switch {
	case errors.Is(clickErr, selection.ErrSlotUnavailable):
		metrics.IncSelectionRejected("slot_unavailable")
		e.notice("That time slot is fully booked")
	case errors.Is(clickErr, selection.ErrRangeConflict):
		metrics.IncSelectionRejected("range_conflict")
		e.notice("Cannot select a range spanning a full slot")
	}
	flow.Range = next
	selection.Apply(flow.Range, flow.Days)
	return clickErr
}

// TimeRangeLabel renders the selected range as "09:00 - 12:00", empty when
// nothing is selected.
func (f *Flow) TimeRangeLabel() string {
	if f.Range.Start == nil || f.Range.End == nil {
		return ""
	}
	return model.FormatTimeRange(f.Range.Start.Start, f.rangeEnd())
}

// rangeEnd is the instant the selected range finishes: the end slot's start
// plus its duration (synthesized end markers carry zero duration and already
// sit at the finish).
func (f *Flow) rangeEnd() time.Time {
	return f.Range.End.Start.Add(f.Range.End.Duration)
}

// SelectedZoneNames lists the aggregated zones the selection covers in full.
func (f *Flow) SelectedZoneNames() []string {
	aggs := zones.Aggregate(f.Floors, f.Selection.FloorIDs)
	var names []string
	for _, agg := range aggs {
		if f.Selection.HasAllZoneIDs(agg.IDs) {
			names = append(names, agg.Name)
		}
	}
	return names
}

// AutoAssign builds the physical board over the selected floors and zones and
// lets the picker choose the best free slot.
func (e *Engine) AutoAssign(ctx context.Context, flowID string) (assign.Assignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return assign.Assignment{}, err
	}
	return e.autoAssignLocked(ctx, flow)
}

func (e *Engine) autoAssignLocked(ctx context.Context, flow *Flow) (assign.Assignment, error) {
	floors := flow.Selection.FloorIDs
	zoneNames := flow.SelectedZoneNames()
	if len(floors) == 0 || len(zoneNames) == 0 {
		metrics.IncAutoAssign("incomplete")
		return assign.Assignment{}, ErrIncompleteSelection
	}

	board, _, err := zones.BuildBoard(ctx, flow.Lot.ID, floors, zoneNames, e.opts.SlotsPerZone, e.src, e.now())
	if err != nil {
		return assign.Assignment{}, err
	}

	picked, err := assign.PickBest(floors, zoneNames, board, e.opts.FloorPriority, e.opts.ZonePriority, e.rng)
	if errors.Is(err, assign.ErrNoAvailability) {
		metrics.IncAutoAssign("no_availability")
		e.notice("No free slot in the selected floors and zones")
		return assign.Assignment{}, err
	}
	if err != nil {
		return assign.Assignment{}, err
	}
	metrics.IncAutoAssign("assigned")
	e.notice(fmt.Sprintf("Assigned: %s - %s (%s)", picked.Floor, picked.Zone, picked.SlotLabel))
	return picked, nil
}

// Board exposes the specific-slot picker data for the flow's selection.
func (e *Engine) Board(ctx context.Context, flowID string) ([]zones.BoardSlot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return nil, err
	}
	zoneNames := flow.SelectedZoneNames()
	if len(zoneNames) == 0 {
		zoneNames = e.opts.ZoneNames
	}
	_, board, err := zones.BuildBoard(ctx, flow.Lot.ID, flow.Selection.FloorIDs, zoneNames, e.opts.SlotsPerZone, e.src, e.now())
	return board, err
}

// Draft confirms the flow and hands off a booking draft. With specificSlot
// set the caller supplies the manually picked slot label; otherwise the
// picker assigns one and the draft narrows to the assigned floor and zone.
func (e *Engine) Draft(ctx context.Context, flowID string, specificSlot bool, slotLabel string) (model.BookingDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	flow, err := e.flowLocked(flowID)
	if err != nil {
		return model.BookingDraft{}, err
	}

	if len(flow.Selection.FloorIDs) == 0 || len(flow.Selection.ZoneIDs) == 0 {
		metrics.IncSelectionRejected("incomplete_draft")
		e.notice("Select at least one floor and one zone")
		return model.BookingDraft{}, ErrIncompleteSelection
	}
	if flow.Range.Start == nil || flow.Range.End == nil {
		metrics.IncSelectionRejected("no_time_range")
		e.notice("Pick a time slot first")
		return model.BookingDraft{}, ErrNoTimeSelected
	}

	start := flow.Range.Start.Start
	end := flow.rangeEnd()
	draft := model.BookingDraft{
		ID:             uuid.NewString(),
		LotID:          flow.Lot.ID,
		SiteName:       flow.Lot.Name,
		VehicleType:    flow.Selection.VehicleType,
		Floors:         append([]string(nil), flow.Selection.FloorIDs...),
		Zones:          flow.SelectedZoneNames(),
		Start:          start,
		End:            end,
		Duration:       end.Sub(start),
		SpecificSlot:   specificSlot,
		SystemAssigned: !specificSlot,
		TimeLabel:      model.FormatTimeRange(start, end),
		DurationLabel:  model.FormatDuration(end.Sub(start)),
		CreatedAt:      e.now(),
	}

	if specificSlot {
		if slotLabel == "" {
			return model.BookingDraft{}, ErrSpecificSlotRequired
		}
		draft.SlotLabel = slotLabel
	} else {
		picked, err := e.autoAssignLocked(ctx, flow)
		if err != nil {
			return model.BookingDraft{}, err
		}
		draft.SlotLabel = picked.SlotLabel
		draft.Floors = []string{picked.Floor}
		draft.Zones = []string{picked.Zone}
	}

	kind := "system_assigned"
	if specificSlot {
		kind = "specific_slot"
	}
	metrics.IncDraftCreated(kind)
	if e.logger != nil {
		e.logger.Info().Str("flow", flow.ID).Str("draft", draft.ID).
			Str("kind", kind).Str("slot", draft.SlotLabel).
			Time("start", draft.Start).Time("end", draft.End).Msg("booking draft created")
	}

	// The flow's records are handed off with the draft; the session ends.
	delete(e.flows, flow.ID)
	return draft, nil
}
