package model

// Stop is one scheduled visit within a day. Times are "HH:MM" strings,
// minutes from midnight of the day's date. POIID is the base catalog id.
type Stop struct {
	POIID        string  `json:"poi_id"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Arrival      string  `json:"arrival"`
	StartService string  `json:"start_service"`
	Depart       string  `json:"depart"`
	Lat          float64 `json:"latitude"`
	Lon          float64 `json:"longitude"`
}

// Day is one day's ordered schedule. The first and last stop are depot
// visits. DistanceCVRPTWKm keeps the pre-refinement distance so the two
// orderings stay comparable.
type Day struct {
	Date               string  `json:"date"`
	Stops              []Stop  `json:"stops"`
	Meals              int     `json:"meals"`
	DistanceKm         float64 `json:"total_distance"`
	DistanceCVRPTWKm   float64 `json:"total_distance_cvrptw"`
	OptimizationMethod string  `json:"optimization_method,omitempty"`
}

// Plan is the final itinerary returned to the caller. Empty Days with a
// non-empty Note signals an infeasible or timed-out solve.
type Plan struct {
	Days []Day  `json:"days"`
	Note string `json:"note,omitempty"`
	// Degraded is set when the Haversine fallback served transit times
	Degraded bool `json:"degraded,omitempty"`
}

// TotalDistanceKm sums the per-day distances
func (p *Plan) TotalDistanceKm() float64 {
	var total float64
	for _, d := range p.Days {
		total += d.DistanceKm
	}
	return total
}

// TotalStops counts all stops including depot visits
func (p *Plan) TotalStops() int {
	var total int
	for _, d := range p.Days {
		total += len(d.Stops)
	}
	return total
}
