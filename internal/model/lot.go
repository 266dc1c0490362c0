// Package model holds the core domain types shared across the engine.
package model

// VehicleType identifies the kind of vehicle a reservation is for.
type VehicleType string

const (
	VehicleNormal     VehicleType = "normal"
	VehicleEV         VehicleType = "ev"
	VehicleMotorcycle VehicleType = "motorcycle"
)

// KnownVehicleTypes lists every vehicle type the engine understands.
var KnownVehicleTypes = []VehicleType{VehicleNormal, VehicleEV, VehicleMotorcycle}

// DisplayName returns a human-readable label for the vehicle type.
func (t VehicleType) DisplayName() string {
	switch t {
	case VehicleNormal:
		return "Car"
	case VehicleEV:
		return "EV"
	case VehicleMotorcycle:
		return "Motorcycle"
	default:
		return string(t)
	}
}

// CapacityByType holds a per-vehicle-type spot count.
type CapacityByType struct {
	Normal     int `yaml:"normal" json:"normal"`
	EV         int `yaml:"ev" json:"ev"`
	Motorcycle int `yaml:"motorcycle" json:"motorcycle"`
}

// For returns the count for the given vehicle type.
func (c CapacityByType) For(t VehicleType) int {
	switch t {
	case VehicleNormal:
		return c.Normal
	case VehicleEV:
		return c.EV
	case VehicleMotorcycle:
		return c.Motorcycle
	default:
		return 0
	}
}

// ScheduleRule describes one opening window as a pair of cron expressions.
// Each expression has the usual 5 fields (minute hour dom month dow); only
// minute, hour and day-of-week are interpreted.
type ScheduleRule struct {
	CronOpen  string `yaml:"open" json:"open"`
	CronClose string `yaml:"close" json:"close"`
}

// LotStatus is the derived, time-dependent state of a lot.
type LotStatus string

const (
	StatusAvailable LotStatus = "available"
	StatusLow       LotStatus = "low"
	StatusFull      LotStatus = "full"
	StatusClosed    LotStatus = "closed"
)

// Lot describes one parking facility as handed to the engine by the catalog.
// Status and Hours are derived fields, recomputed on a timer; everything else
// is static configuration.
type Lot struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Capacity       CapacityByType `json:"capacity"`
	Available      CapacityByType `json:"available"`
	Floors         []string       `json:"floors"`
	SupportedTypes []VehicleType  `json:"supported_types"`
	Schedule       []ScheduleRule `json:"schedule,omitempty"`

	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Distance int     `json:"distance"` // meters from campus center, for list ordering

	Price        float64 `json:"price"`
	PriceUnit    string  `json:"price_unit"`
	HasEVCharger bool    `json:"has_ev_charger"`
	Bookmarked   bool    `json:"bookmarked"`
	UserTypes    string  `json:"user_types"`

	Status LotStatus `json:"status"`
	Hours  string    `json:"hours"`
}

// Supports reports whether the lot accepts the given vehicle type.
func (l *Lot) Supports(t VehicleType) bool {
	for _, s := range l.SupportedTypes {
		if s == t {
			return true
		}
	}
	return false
}

// DefaultType returns the preferred vehicle type for the lot: the requested
// one when supported, otherwise the first supported type.
func (l *Lot) DefaultType(requested VehicleType) VehicleType {
	if l.Supports(requested) {
		return requested
	}
	if len(l.SupportedTypes) > 0 {
		return l.SupportedTypes[0]
	}
	return VehicleNormal
}
