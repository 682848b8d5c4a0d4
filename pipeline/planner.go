// Package pipeline wires the planning stages together: intake
// normalization, MAUT selection, CVRPTW scheduling, and ACO
// refinement, mapping failures onto the error taxonomy.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fikatrip/planner/cvrptw"
	"github.com/fikatrip/planner/log"
	"github.com/fikatrip/planner/maut"
	"github.com/fikatrip/planner/model"
)

// TravelService is what the pipeline needs from the routing backend
type TravelService interface {
	cvrptw.TransitSource
	Distance(ctx context.Context, lat1, lon1, lat2, lon2 float64) float64
}

// Planner is the single entry point: Plan(request) -> Plan or Error
type Planner struct {
	selector  *maut.Selector
	travel    TravelService
	timeLimit time.Duration
}

// NewPlanner assembles the pipeline over a catalog and travel backend
func NewPlanner(catalog maut.Catalog, travel TravelService, timeLimit time.Duration) *Planner {
	return &Planner{
		selector:  maut.NewSelector(catalog),
		travel:    travel,
		timeLimit: timeLimit,
	}
}

// Plan runs the full pipeline for one normalized-or-raw intake request.
// Infeasible and timed-out solves return a Plan with empty days and a
// note rather than an error.
func (p *Planner) Plan(ctx context.Context, intake *model.IntakeRequest) (*model.Plan, error) {
	req, perr := Normalize(intake)
	if perr != nil {
		return nil, perr
	}
	log.Infof(ctx, "Planning %s: %d days, pacing=%s budget=%s", req.Destination, req.NumDays, req.Pacing, req.BudgetTier)

	sel, err := p.selector.Select(ctx, req)
	if err != nil {
		return nil, WrapError(KindDataSource, err, "candidate fetch failed")
	}
	if len(sel.Places) == 0 {
		return &model.Plan{Note: fmt.Sprintf("no candidates found for %q", req.Destination)}, nil
	}

	depot := chooseDepot(sel, req)
	builder := cvrptw.NewBuilder(p.travel)
	prob, err := builder.Build(ctx, cvrptw.BuildInput{
		Selection: sel,
		Depot:     depot,
		Pacing:    req.Pacing,
		NumDays:   req.NumDays,
		Dates:     req.Dates,
		Mandatory: req.Mandatory,
	})
	if err != nil {
		return nil, WrapError(KindInvalidRequest, err, "problem build failed")
	}

	sol := cvrptw.NewSolver(prob, p.timeLimit).Solve(ctx)

	visits := 0
	for _, r := range sol.Routes {
		visits += len(r.Visits)
	}
	if visits == 0 {
		note := "no feasible schedule within the day windows"
		if sol.TimedOut {
			note = "solver ran out of time before finding a schedule"
		}
		return &model.Plan{Note: note, Degraded: prob.Degraded}, nil
	}

	// Pre-refinement distances keep the two orderings comparable
	cvrDist := make([]float64, len(sol.Routes))
	for i := range sol.Routes {
		cvrDist[i] = p.routeDistanceKm(ctx, prob, &sol.Routes[i])
	}

	methods := p.refine(ctx, prob, sol)

	plan := &model.Plan{
		Days:     cvrptw.BuildDays(prob, sol),
		Degraded: prob.Degraded,
	}
	for i := range plan.Days {
		plan.Days[i].DistanceCVRPTWKm = cvrDist[i]
		plan.Days[i].DistanceKm = p.routeDistanceKm(ctx, prob, &sol.Routes[i])
		plan.Days[i].OptimizationMethod = methods[i]
	}
	if len(sol.DroppedMandatory) > 0 {
		plan.Note = fmt.Sprintf("could not schedule mandatory visits: %s", strings.Join(sol.DroppedMandatory, ", "))
	}

	log.Infof(ctx, "Plan ready: %d days, %d stops, %.1f km", len(plan.Days), plan.TotalStops(), plan.TotalDistanceKm())
	return plan, nil
}

// chooseDepot prefers the top-scored hotel, then the request seed, then
// the best-scored place.
func chooseDepot(sel *maut.Selection, req *model.Request) cvrptw.Depot {
	if sel.Hotel != nil && sel.Hotel.POI.Coordinates != nil {
		h := sel.Hotel.POI
		return cvrptw.Depot{ID: h.ID, Name: h.Name, Lat: h.Coordinates.Lat, Lon: h.Coordinates.Lng}
	}
	if req.SeedLat != nil && req.SeedLon != nil {
		return cvrptw.Depot{ID: "depot", Name: "Start point", Lat: *req.SeedLat, Lon: *req.SeedLon}
	}
	first := sel.Places[0].POI
	return cvrptw.Depot{ID: "depot", Name: "Start point", Lat: first.Coordinates.Lat, Lon: first.Coordinates.Lng}
}

// routeDistanceKm sums the driving distance of depot -> visits -> depot
func (p *Planner) routeDistanceKm(ctx context.Context, prob *cvrptw.Problem, r *cvrptw.Route) float64 {
	depot := &prob.Nodes[0]
	prevLat, prevLon := depot.Lat, depot.Lon
	var total float64
	for _, v := range r.Visits {
		n := &prob.Nodes[v.Node]
		total += p.travel.Distance(ctx, prevLat, prevLon, n.Lat, n.Lon)
		prevLat, prevLon = n.Lat, n.Lon
	}
	total += p.travel.Distance(ctx, prevLat, prevLon, depot.Lat, depot.Lon)
	return total
}
