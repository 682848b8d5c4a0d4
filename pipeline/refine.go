package pipeline

import (
	"context"

	"github.com/fikatrip/planner/aco"
	"github.com/fikatrip/planner/cvrptw"
	"github.com/fikatrip/planner/log"
)

const (
	methodCVRPTW = "cvrptw"
	methodACO    = "cvrptw+aco"
)

// refine re-sequences each day's visits with the ant colony and adopts
// the new order only when it stays time-feasible and does not lengthen
// the tour. Days it cannot improve keep the solver order.
func (p *Planner) refine(ctx context.Context, prob *cvrptw.Problem, sol *cvrptw.Solution) []string {
	methods := make([]string, len(sol.Routes))
	for day := range sol.Routes {
		methods[day] = methodCVRPTW
		if p.refineDay(prob, &sol.Routes[day], int64(day)+1) {
			methods[day] = methodACO
		}
	}
	refined := 0
	for _, m := range methods {
		if m == methodACO {
			refined++
		}
	}
	log.Infof(ctx, "ACO refinement: %d/%d days re-sequenced", refined, len(methods))
	return methods
}

// refineDay mutates the route in place on success. Days with fewer than
// three visits pass through unchanged.
func (p *Planner) refineDay(prob *cvrptw.Problem, r *cvrptw.Route, seed int64) bool {
	if len(r.Visits) < 3 {
		return false
	}

	// Point 0 is the depot; the rest follow the current visit order
	points := make([]aco.Point, 0, len(r.Visits)+1)
	points = append(points, aco.Point{Lat: prob.Nodes[0].Lat, Lon: prob.Nodes[0].Lon})
	for _, v := range r.Visits {
		n := &prob.Nodes[v.Node]
		points = append(points, aco.Point{Lat: n.Lat, Lon: n.Lon})
	}

	current := make([]int, len(points))
	for i := range current {
		current[i] = i
	}
	currentLen := aco.ClosedTourLength(points, current)

	res := aco.New(aco.DefaultConfig(), seed).Solve(points)
	if res.Order == nil || res.Length > currentLen {
		return false
	}

	// Rotate so the depot leads, then try both travel directions; the
	// closed tour is symmetric in distance but not in time windows.
	tour := rotateToFront(res.Order, 0)
	for _, cand := range [][]int{tour, reversedTour(tour)} {
		order := make([]int, 0, len(cand)-1)
		for _, pi := range cand[1:] {
			order = append(order, r.Visits[pi-1].Node)
		}
		visits, ret, ok := cvrptw.Simulate(prob, r.Day, order)
		if !ok {
			continue
		}
		r.Visits = visits
		r.ReturnMin = ret
		return true
	}
	return false
}

// rotateToFront rotates the closed tour so it starts at the given node
func rotateToFront(tour []int, node int) []int {
	for i, v := range tour {
		if v == node {
			out := make([]int, 0, len(tour))
			out = append(out, tour[i:]...)
			out = append(out, tour[:i]...)
			return out
		}
	}
	return tour
}

// reversedTour keeps the leading node and reverses the rest
func reversedTour(tour []int) []int {
	out := make([]int, len(tour))
	out[0] = tour[0]
	for i := 1; i < len(tour); i++ {
		out[i] = tour[len(tour)-i]
	}
	return out
}
