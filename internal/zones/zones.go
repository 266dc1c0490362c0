// Package zones synthesizes per-floor zone availability and aggregates it
// across whatever floor subset the user has selected.
package zones

import (
	"context"
	"fmt"
	"sort"
	"time"

	"campark/internal/model"
	"campark/internal/occupancy"
)

// ZoneStatus marks a zone (or aggregated zone) as bookable or not.
type ZoneStatus string

const (
	ZoneAvailable ZoneStatus = "available"
	ZoneFull      ZoneStatus = "full"
)

// Zone is one zone on one floor.
type Zone struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Available int        `json:"available"`
	Capacity  int        `json:"capacity"`
	Status    ZoneStatus `json:"status"`
}

// Floor is one floor with its zones and floor-level totals.
type Floor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Zones          []Zone `json:"zones"`
	TotalAvailable int    `json:"total_available"`
	Capacity       int    `json:"capacity"`
}

// AggregatedZone merges a zone name across every selected floor. IDs carries
// the underlying per-floor zone ids the aggregate stands for; selection is
// toggled on all of them at once.
type AggregatedZone struct {
	Name      string     `json:"name"`
	Available int        `json:"available"`
	Capacity  int        `json:"capacity"`
	Status    ZoneStatus `json:"status"`
	FloorIDs  []string   `json:"floor_ids"`
	IDs       []string   `json:"ids"`
}

// BuildFloors splits a lot's live availability for the vehicle type across
// its floors and zones. Each zone's capacity is the lot capacity divided
// evenly (ceil) over every floor-zone cell; the remaining pool of available
// spots is dealt out by the occupancy source, clamped so the zone sums never
// exceed the lot's own availability.
func BuildFloors(ctx context.Context, lot *model.Lot, vt model.VehicleType, zoneNames []string, src occupancy.Source, at time.Time) ([]Floor, error) {
	floors := lot.Floors
	if len(floors) == 0 {
		floors = []string{"F1", "F2"}
	}
	if len(zoneNames) == 0 {
		zoneNames = []string{"Zone A", "Zone B", "Zone C", "Zone D"}
	}

	capacityPerZone := ceilDiv(lot.Capacity.For(vt), len(floors)*len(zoneNames))
	if capacityPerZone <= 0 {
		capacityPerZone = 10
	}
	pool := lot.Available.For(vt)

	out := make([]Floor, 0, len(floors))
	for _, floorName := range floors {
		floor := Floor{
			ID:       floorName,
			Name:     floorName,
			Capacity: capacityPerZone * len(zoneNames),
		}
		for _, zName := range zoneNames {
			avail := 0
			if pool > 0 {
				n, err := src.Remaining(ctx, lot.ID, floorName, zName, occupancy.TimeRange{Start: at})
				if err != nil {
					return nil, fmt.Errorf("zone occupancy %s/%s/%s: %w", lot.ID, floorName, zName, err)
				}
				avail = n
				if avail > capacityPerZone {
					avail = capacityPerZone
				}
				if avail > pool {
					avail = pool
				}
				pool -= avail
			}
			status := ZoneAvailable
			if avail == 0 {
				status = ZoneFull
			}
			floor.Zones = append(floor.Zones, Zone{
				ID:        fmt.Sprintf("%s-%s-%s", lot.ID, floorName, zName),
				Name:      zName,
				Available: avail,
				Capacity:  capacityPerZone,
				Status:    status,
			})
			floor.TotalAvailable += avail
		}
		out = append(out, floor)
	}
	return out, nil
}

// Aggregate merges the zones of the selected floors into one virtual zone
// list keyed by zone name, sorted by name for deterministic display. An
// aggregate flips to available as soon as its running sum turns positive and
// never flips back within one pass.
func Aggregate(floors []Floor, selectedFloorIDs []string) []AggregatedZone {
	byName := make(map[string]*AggregatedZone)
	for _, fid := range selectedFloorIDs {
		floor := findFloor(floors, fid)
		if floor == nil {
			continue
		}
		for _, z := range floor.Zones {
			agg, ok := byName[z.Name]
			if !ok {
				agg = &AggregatedZone{Name: z.Name, Status: ZoneFull}
				byName[z.Name] = agg
			}
			agg.Available += z.Available
			agg.Capacity += z.Capacity
			agg.FloorIDs = append(agg.FloorIDs, fid)
			agg.IDs = append(agg.IDs, z.ID)
			if agg.Available > 0 {
				agg.Status = ZoneAvailable
			}
		}
	}

	out := make([]AggregatedZone, 0, len(byName))
	for _, agg := range byName {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TotalAvailable sums availability over the aggregated zones the selection
// covers in full.
func TotalAvailable(aggs []AggregatedZone, isSelected func(AggregatedZone) bool) int {
	total := 0
	for _, agg := range aggs {
		if isSelected(agg) {
			total += agg.Available
		}
	}
	return total
}

func findFloor(floors []Floor, id string) *Floor {
	for i := range floors {
		if floors[i].ID == id {
			return &floors[i]
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
