package pipeline

import (
	"github.com/fikatrip/planner/model"
	"github.com/fikatrip/planner/osrm"
)

// ReorderNearest greedily reorders a day's stops by nearest-neighbor
// great-circle distance, keeping any leading and trailing depot stops
// in place. It is the lightweight re-sequencer behind the standalone
// optimize endpoint and does not recompute times.
func ReorderNearest(stops []model.Stop) []model.Stop {
	head, middle, tail := splitDepotEnds(stops)
	if len(middle) < 3 {
		return stops
	}

	startLat, startLon := middle[0].Lat, middle[0].Lon
	if len(head) > 0 {
		startLat, startLon = head[len(head)-1].Lat, head[len(head)-1].Lon
	}

	remaining := make([]model.Stop, len(middle))
	copy(remaining, middle)
	ordered := make([]model.Stop, 0, len(middle))
	curLat, curLon := startLat, startLon
	for len(remaining) > 0 {
		best, bestDist := 0, -1.0
		for i, s := range remaining {
			d := osrm.HaversineKm(curLat, curLon, s.Lat, s.Lon)
			if bestDist < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		next := remaining[best]
		ordered = append(ordered, next)
		curLat, curLon = next.Lat, next.Lon
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	out := make([]model.Stop, 0, len(stops))
	out = append(out, head...)
	out = append(out, ordered...)
	out = append(out, tail...)
	return out
}

func splitDepotEnds(stops []model.Stop) (head, middle, tail []model.Stop) {
	i, j := 0, len(stops)
	for i < j && stops[i].Role == model.RoleDepot {
		i++
	}
	for j > i && stops[j-1].Role == model.RoleDepot {
		j--
	}
	return stops[:i], stops[i:j], stops[j:]
}
