package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"campark/internal/assign"
	"campark/internal/engine"
	"campark/internal/metrics"
	"campark/internal/model"
	"campark/internal/selection"
	"campark/internal/slots"
	"campark/internal/zones"
)

// flowView is the JSON shape of a booking flow handed to the UI.
type flowView struct {
	ID             string                 `json:"id"`
	Lot            model.Lot              `json:"lot"`
	VehicleType    model.VehicleType      `json:"vehicle_type"`
	Interval       int                    `json:"interval"`
	DateIndex      int                    `json:"date_index"`
	Floors         []zones.Floor          `json:"floors"`
	SelectedFloors []string               `json:"selected_floors"`
	Zones          []zones.AggregatedZone `json:"zones"`
	SelectedZones  []string               `json:"selected_zones"`
	Days           []slots.DaySection     `json:"days"`
	TimeRange      string                 `json:"time_range,omitempty"`
}

func (s *Server) flowView(f *engine.Flow) flowView {
	return flowView{
		ID:             f.ID,
		Lot:            f.Lot,
		VehicleType:    f.Selection.VehicleType,
		Interval:       f.Selection.Interval,
		DateIndex:      f.Selection.DateIndex,
		Floors:         f.Floors,
		SelectedFloors: f.Selection.FloorIDs,
		Zones:          zones.Aggregate(f.Floors, f.Selection.FloorIDs),
		SelectedZones:  f.SelectedZoneNames(),
		Days:           f.Days,
		TimeRange:      f.TimeRangeLabel(),
	}
}

func (s *Server) handleListLots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_lots")
	query := r.URL.Query().Get("query")
	tab := r.URL.Query().Get("tab")
	writeJSON(w, http.StatusOK, map[string]any{"lots": s.engine.FilterLots(query, tab)})
}

func (s *Server) handleGetLot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_lot")
	lot, err := s.engine.Lot(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (s *Server) handleWeekHours(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("week_hours")
	week, err := s.engine.WeekHours(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"week": week})
}

func (s *Server) handleStartFlow(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("start_flow")
	var req struct {
		LotID       string `json:"lot_id"`
		VehicleType string `json:"vehicle_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flow, err := s.engine.StartFlow(r.Context(), req.LotID, model.VehicleType(req.VehicleType))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.flowView(flow))
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_flow")
	flow, err := s.engine.Flow(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.flowView(flow))
}

func (s *Server) handleEndFlow(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("end_flow")
	s.engine.EndFlow(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVehicleType(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("select_vehicle_type")
	var req struct {
		VehicleType string `json:"vehicle_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondAfter(w, r, s.engine.SelectVehicleType(r.Context(), mux.Vars(r)["id"], model.VehicleType(req.VehicleType)))
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("select_interval")
	var req struct {
		Interval int `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondAfter(w, r, s.engine.SelectInterval(r.Context(), mux.Vars(r)["id"], req.Interval))
}

func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("select_date")
	var req struct {
		DateIndex int `json:"date_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondAfter(w, r, s.engine.SelectDate(mux.Vars(r)["id"], req.DateIndex))
}

func (s *Server) handleToggleFloor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("toggle_floor")
	v := mux.Vars(r)
	s.respondAfter(w, r, s.engine.ToggleFloor(r.Context(), v["id"], v["floor"]))
}

func (s *Server) handleSelectAllFloors(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("select_all_floors")
	s.respondAfter(w, r, s.engine.SelectAllFloors(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) handleToggleZone(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("toggle_zone")
	v := mux.Vars(r)
	s.respondAfter(w, r, s.engine.ToggleZone(v["id"], v["zone"]))
}

func (s *Server) handleSelectAllZones(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("select_all_zones")
	s.respondAfter(w, r, s.engine.SelectAllZones(mux.Vars(r)["id"]))
}

func (s *Server) handleClickSlot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("click_slot")
	var req struct {
		SlotID string `json:"slot_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flowID := mux.Vars(r)["id"]
	err := s.engine.ClickSlot(flowID, req.SlotID)
	// Rejected clicks still carry a valid (possibly restarted) state; the UI
	// renders the updated flow plus the rejection message.
	if err != nil && !errors.Is(err, selection.ErrSlotUnavailable) && !errors.Is(err, selection.ErrRangeConflict) {
		writeError(w, statusFor(err), err.Error())
		return
	}
	flow, ferr := s.engine.Flow(flowID)
	if ferr != nil {
		writeError(w, http.StatusNotFound, ferr.Error())
		return
	}
	resp := map[string]any{"flow": s.flowView(flow)}
	if err != nil {
		resp["rejected"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("board")
	board, err := s.engine.Board(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": board})
}

func (s *Server) handleAutoAssign(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("auto_assign")
	picked, err := s.engine.AutoAssign(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, assign.ErrNoAvailability) {
		writeJSON(w, http.StatusOK, map[string]any{"available": false})
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true, "assignment": picked})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("draft")
	var req struct {
		SpecificSlot bool   `json:"specific_slot"`
		SlotLabel    string `json:"slot_label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	draft, err := s.engine.Draft(r.Context(), mux.Vars(r)["id"], req.SpecificSlot, req.SlotLabel)
	if errors.Is(err, assign.ErrNoAvailability) {
		writeJSON(w, http.StatusConflict, map[string]any{"available": false})
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// respondAfter renders the updated flow view or the error from a mutation.
func (s *Server) respondAfter(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	flow, ferr := s.engine.Flow(mux.Vars(r)["id"])
	if ferr != nil {
		writeError(w, http.StatusNotFound, ferr.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.flowView(flow))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrLotNotFound),
		errors.Is(err, engine.ErrFlowNotFound),
		errors.Is(err, engine.ErrSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrIncompleteSelection),
		errors.Is(err, engine.ErrNoTimeSelected),
		errors.Is(err, engine.ErrUnsupportedVehicle),
		errors.Is(err, engine.ErrSpecificSlotRequired),
		errors.Is(err, selection.ErrNoFloorSelected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
