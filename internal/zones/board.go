package zones

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campark/internal/occupancy"
)

// BoardSlot is one physical parking spot on the specific-slot picker board.
type BoardSlot struct {
	ID     string `json:"id"`
	Label  string `json:"label"` // e.g. "A01"
	Floor  string `json:"floor"`
	Zone   string `json:"zone"`
	Booked bool   `json:"booked"`
}

// Board maps floor -> zone -> the free spot labels used by both the manual
// picker and the auto-assignment candidate build.
type Board map[string]map[string][]string

// BuildBoard lays out slotsPerZone physical spots for every (floor, zone)
// cell and marks each booked or free from the occupancy source: a cell's free
// count caps how many of its spots stay open, filled front to back.
func BuildBoard(ctx context.Context, lotID string, floors, zoneNames []string, slotsPerZone int, src occupancy.Source, at time.Time) (Board, []BoardSlot, error) {
	if slotsPerZone <= 0 {
		slotsPerZone = 12
	}

	board := make(Board, len(floors))
	var all []BoardSlot
	for _, floor := range floors {
		board[floor] = make(map[string][]string, len(zoneNames))
		for _, zone := range zoneNames {
			free, err := src.Remaining(ctx, lotID, floor, zone, occupancy.TimeRange{Start: at})
			if err != nil {
				return nil, nil, fmt.Errorf("board occupancy %s/%s/%s: %w", lotID, floor, zone, err)
			}
			if free > slotsPerZone {
				free = slotsPerZone
			}
			for i := 1; i <= slotsPerZone; i++ {
				label := SpotLabel(zone, i)
				booked := i > free
				all = append(all, BoardSlot{
					ID:     fmt.Sprintf("%s-%s-%d", floor, zone, i),
					Label:  label,
					Floor:  floor,
					Zone:   zone,
					Booked: booked,
				})
				if !booked {
					board[floor][zone] = append(board[floor][zone], label)
				}
			}
		}
	}
	return board, all, nil
}

// SpotLabel renders a physical spot label like "A01" from its zone and index.
func SpotLabel(zone string, i int) string {
	return fmt.Sprintf("%s%02d", strings.TrimPrefix(zone, "Zone "), i)
}
