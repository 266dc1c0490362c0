package model

import (
	"fmt"
	"time"
)

// BookingDraft is what the engine hands to the next screen once a flow is
// confirmed: the chosen time range plus the floor/zone scope, either with a
// specific physical slot or marked for system assignment.
type BookingDraft struct {
	ID          string        `json:"id"`
	LotID       string        `json:"lot_id"`
	SiteName    string        `json:"site_name"`
	VehicleType VehicleType   `json:"vehicle_type"`
	Floors      []string      `json:"floors"`
	Zones       []string      `json:"zones"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Duration    time.Duration `json:"duration"`

	SpecificSlot   bool   `json:"specific_slot"`
	SystemAssigned bool   `json:"system_assigned"`
	SlotLabel      string `json:"slot_label,omitempty"`

	TimeLabel     string    `json:"time_label"`
	DurationLabel string    `json:"duration_label"`
	CreatedAt     time.Time `json:"created_at"`
}

// FormatTimeRange renders a start/end pair as "09:00 - 12:00".
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Format("15:04"), end.Format("15:04"))
}

// FormatDuration renders a duration as "3 h", "45 min" or "1 h 30 min".
// A zero duration counts as one hour, matching the summary screen default.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "1 h"
	}
	hours := int(d / time.Hour)
	mins := int(d % time.Hour / time.Minute)
	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%d h %d min", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%d h", hours)
	default:
		return fmt.Sprintf("%d min", mins)
	}
}
