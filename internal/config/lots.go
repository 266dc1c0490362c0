package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"campark/internal/model"
	"campark/internal/schedule"
)

// LotConfig is one parking lot entry in lots.yaml.
type LotConfig struct {
	ID             string               `yaml:"id"`
	Name           string               `yaml:"name"`
	Capacity       model.CapacityByType `yaml:"capacity"`
	Available      model.CapacityByType `yaml:"available"`
	Floors         []string             `yaml:"floors"`
	SupportedTypes []string             `yaml:"supported_types"`
	Schedule       []model.ScheduleRule `yaml:"schedule"`

	Lat          float64 `yaml:"lat"`
	Lng          float64 `yaml:"lng"`
	Distance     int     `yaml:"distance"`
	Price        float64 `yaml:"price"`
	PriceUnit    string  `yaml:"price_unit"`
	HasEVCharger bool    `yaml:"has_ev_charger"`
	Bookmarked   bool    `yaml:"bookmarked"`
	UserTypes    string  `yaml:"user_types"`
}

// LotsConfig is the root of lots.yaml.
type LotsConfig struct {
	Lots []LotConfig `yaml:"lots"`
}

// LoadLotsConfig loads and validates the lot catalog.
func LoadLotsConfig(path string) (*LotsConfig, error) {
	if path == "" {
		path = "configs/lots.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lots config: %w", err)
	}

	var cfg LotsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse lots config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate lots config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the catalog for errors.
func (c *LotsConfig) Validate() error {
	if len(c.Lots) == 0 {
		return fmt.Errorf("no lots defined")
	}

	ids := make(map[string]bool)
	for i, lot := range c.Lots {
		if lot.ID == "" {
			return fmt.Errorf("lot[%d]: id is required", i)
		}
		if ids[lot.ID] {
			return fmt.Errorf("lot[%d]: duplicate id %q", i, lot.ID)
		}
		ids[lot.ID] = true

		if lot.Name == "" {
			return fmt.Errorf("lot[%d]: name is required", i)
		}
		if len(lot.SupportedTypes) == 0 {
			return fmt.Errorf("lot[%d]: at least one supported type is required", i)
		}
		for _, t := range lot.SupportedTypes {
			if !knownVehicleType(t) {
				return fmt.Errorf("lot[%d]: unknown vehicle type %q", i, t)
			}
		}
		// Schedules are best-effort at runtime (a bad rule reads as closed),
		// but a catalog that ships one is a configuration mistake.
		for j, rule := range lot.Schedule {
			if _, err := schedule.ParseRule(rule); err != nil {
				return fmt.Errorf("lot[%d]: schedule[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}

// ToModel converts the catalog into domain lots.
func (c *LotsConfig) ToModel() []model.Lot {
	out := make([]model.Lot, 0, len(c.Lots))
	for _, lc := range c.Lots {
		types := make([]model.VehicleType, 0, len(lc.SupportedTypes))
		for _, t := range lc.SupportedTypes {
			types = append(types, model.VehicleType(t))
		}
		out = append(out, model.Lot{
			ID:             lc.ID,
			Name:           lc.Name,
			Capacity:       lc.Capacity,
			Available:      lc.Available,
			Floors:         append([]string(nil), lc.Floors...),
			SupportedTypes: types,
			Schedule:       append([]model.ScheduleRule(nil), lc.Schedule...),
			Lat:            lc.Lat,
			Lng:            lc.Lng,
			Distance:       lc.Distance,
			Price:          lc.Price,
			PriceUnit:      lc.PriceUnit,
			HasEVCharger:   lc.HasEVCharger,
			Bookmarked:     lc.Bookmarked,
			UserTypes:      lc.UserTypes,
		})
	}
	return out
}

func knownVehicleType(t string) bool {
	for _, k := range model.KnownVehicleTypes {
		if string(k) == t {
			return true
		}
	}
	return false
}
