// Package assign picks the best physical slot when the user defers to
// automatic assignment.
package assign

import (
	"errors"
	"math/rand"
	"sort"
)

// ErrNoAvailability means no (floor, zone) candidate had a free slot. Callers
// surface this as a "fully booked" result, not a failure.
var ErrNoAvailability = errors.New("no free slot in the selected scope")

// fallbackPriority ranks floors/zones missing from the priority tables last.
const fallbackPriority = 99

// Assignment is the picker's result.
type Assignment struct {
	Floor     string `json:"floor"`
	Zone      string `json:"zone"`
	SlotLabel string `json:"slot_label"`
}

type candidate struct {
	floor string
	zone  string
	free  []string
	score int
}

// PickBest scores every (floor, zone) pair in the cross-product of the
// selected floors and zones that still has a free slot, keeps the
// lowest-scoring candidate (ties resolved by build order, floors outermost)
// and picks one of its free slots uniformly at random.
func PickBest(selectedFloors, selectedZones []string, board map[string]map[string][]string, floorPriority, zonePriority map[string]int, rng *rand.Rand) (Assignment, error) {
	var candidates []candidate
	for _, floor := range selectedFloors {
		zonesForFloor, ok := board[floor]
		if !ok {
			continue
		}
		for _, zone := range selectedZones {
			free := zonesForFloor[zone]
			if len(free) == 0 {
				continue
			}
			candidates = append(candidates, candidate{
				floor: floor,
				zone:  zone,
				free:  free,
				score: priority(floorPriority, floor)*10 + priority(zonePriority, zone),
			})
		}
	}

	if len(candidates) == 0 {
		return Assignment{}, ErrNoAvailability
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	best := candidates[0]
	return Assignment{
		Floor:     best.floor,
		Zone:      best.zone,
		SlotLabel: best.free[rng.Intn(len(best.free))],
	}, nil
}

func priority(table map[string]int, key string) int {
	if p, ok := table[key]; ok {
		return p
	}
	return fallbackPriority
}
