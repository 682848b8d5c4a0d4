package cvrptw

import (
	"context"
	"sort"
	"time"

	"github.com/fikatrip/planner/log"
	"github.com/fikatrip/planner/model"
)

// Soft-cost and limit knobs of the routing objective
const (
	// PenaltyMealToMeal discourages back-to-back restaurant stops
	PenaltyMealToMeal = 40
	// PenaltySameTheme discourages consecutive same-theme attractions
	PenaltySameTheme = 15
	// DropPenaltyBase is the cost of leaving a POI unscheduled
	DropPenaltyBase = 2000
	// MandatoryDropPenalty makes dropping a must-visit prohibitive
	MandatoryDropPenalty = 10_000_000
	// MaxSlackMin bounds the wait allowed before an opening window
	MaxSlackMin = 120
	// MaxMealsPerDay caps restaurant stops on a single day
	MaxMealsPerDay = 3
)

// Visit is one scheduled stop with its timing in minutes from midnight
type Visit struct {
	Node    int
	Arrival int
	Start   int
	Depart  int
}

// Route is the scheduled tour of a single day
type Route struct {
	Day       DaySpec
	Visits    []Visit
	ReturnMin int
}

// Solution is the solver output: one route per day plus the drops
type Solution struct {
	Routes           []Route
	Dropped          []string
	DroppedMandatory []string
	Cost             int
	TimedOut         bool
}

// Solver schedules problem nodes onto day routes by cheapest feasible
// insertion, then improves each day with 2-opt and relocation moves
// until the time limit runs out.
type Solver struct {
	prob      *Problem
	timeLimit time.Duration
}

// NewSolver creates a Solver for the problem with a wall-clock limit
func NewSolver(prob *Problem, timeLimit time.Duration) *Solver {
	if timeLimit <= 0 {
		timeLimit = 15 * time.Second
	}
	return &Solver{prob: prob, timeLimit: timeLimit}
}

// window returns the binding opening window of a node on its day
func (s *Solver) window(idx int) Window {
	n := &s.prob.Nodes[idx]
	return n.WindowsByDay[n.Day()][0]
}

// arcCost prices the leg i -> j: transit plus the service already spent
// at i plus cadence and diversity penalties.
func (s *Solver) arcCost(i, j int) int {
	a, b := &s.prob.Nodes[i], &s.prob.Nodes[j]
	cost := s.prob.Transit[i][j] + a.ServiceMin
	if a.Role == model.RoleMeal && b.Role == model.RoleMeal {
		cost += PenaltyMealToMeal
	}
	if a.Theme != "" && a.Theme == b.Theme {
		cost += PenaltySameTheme
	}
	return cost
}

// routeCost sums arc costs over depot -> order -> depot
func (s *Solver) routeCost(order []int) int {
	prev, cost := 0, 0
	for _, idx := range order {
		cost += s.arcCost(prev, idx)
		prev = idx
	}
	cost += s.arcCost(prev, 0)
	return cost
}

// simulate walks the order through the day clock and reports the
// schedule, the depot return time, and feasibility. A stop is feasible
// when the wait before opening stays under the slack limit, service
// completes inside the window, and the tour returns before day end.
func (s *Solver) simulate(day DaySpec, order []int) ([]Visit, int, bool) {
	t, prev := day.StartMin, 0
	visits := make([]Visit, 0, len(order))
	for i, idx := range order {
		n := &s.prob.Nodes[idx]
		arrival := t + s.prob.Transit[prev][idx]
		w := s.window(idx)
		start := arrival
		if w.Open > start {
			start = w.Open
		}
		// The vehicle may leave the depot late, so the first stop never
		// waits; between stops the wait is capped.
		if i == 0 {
			arrival = start
		}
		if start-arrival > MaxSlackMin {
			return nil, 0, false
		}
		if start+n.ServiceMin > w.Close {
			return nil, 0, false
		}
		visits = append(visits, Visit{Node: idx, Arrival: arrival, Start: start, Depart: start + n.ServiceMin})
		t = start + n.ServiceMin
		prev = idx
	}
	ret := t + s.prob.Transit[prev][0]
	if ret > day.EndMin {
		return nil, 0, false
	}
	return visits, ret, true
}

func (s *Solver) mealCount(order []int) int {
	c := 0
	for _, idx := range order {
		if s.prob.Nodes[idx].Role == model.RoleMeal {
			c++
		}
	}
	return c
}

// insertAt returns a copy of order with idx inserted at pos
func insertAt(order []int, idx, pos int) []int {
	out := make([]int, 0, len(order)+1)
	out = append(out, order[:pos]...)
	out = append(out, idx)
	out = append(out, order[pos:]...)
	return out
}

// bestInsertion finds the cheapest feasible position for a node on its
// day. It returns the candidate order and cost delta, or ok=false.
func (s *Solver) bestInsertion(order []int, day DaySpec, idx int) (best []int, delta int, ok bool) {
	base := s.routeCost(order)
	for pos := 0; pos <= len(order); pos++ {
		cand := insertAt(order, idx, pos)
		if _, _, feasible := s.simulate(day, cand); !feasible {
			continue
		}
		d := s.routeCost(cand) - base
		if !ok || d < delta {
			best, delta, ok = cand, d, true
		}
	}
	return best, delta, ok
}

// Solve builds and improves day routes. It always returns a solution;
// deadline pressure is reported through the TimedOut flag and by the
// quality of what was reached.
func (s *Solver) Solve(ctx context.Context) *Solution {
	deadline := time.Now().Add(s.timeLimit)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	numDays := len(s.prob.DaySpecs)
	orders := make([][]int, numDays)
	assigned := make(map[int]bool)
	usedBase := make(map[string]bool)
	timedOut := false

	// Mandatory visits go in first, tightest window first, so that
	// discretionary stops never crowd them out.
	var mandatory []int
	for idx := 1; idx < len(s.prob.Nodes); idx++ {
		if s.prob.Nodes[idx].Mandatory {
			mandatory = append(mandatory, idx)
		}
	}
	sort.SliceStable(mandatory, func(i, j int) bool {
		wi, wj := s.window(mandatory[i]), s.window(mandatory[j])
		return (wi.Close - wi.Open) < (wj.Close - wj.Open)
	})

	var droppedMandatory []string
	for _, idx := range mandatory {
		n := &s.prob.Nodes[idx]
		day := n.Day()
		cand, _, ok := s.bestInsertion(orders[day], s.prob.DaySpecs[day], idx)
		if !ok {
			droppedMandatory = append(droppedMandatory, n.BaseID)
			continue
		}
		orders[day] = cand
		assigned[idx] = true
		usedBase[n.BaseID] = true
	}

	// Cheapest-insertion construction: repeatedly place the unassigned
	// node with the lowest feasible cost delta. Any delta below the drop
	// penalty improves the objective.
	for {
		if time.Now().After(deadline) {
			timedOut = true
			break
		}
		bestDelta := DropPenaltyBase
		bestNode, bestDay := -1, -1
		var bestOrder []int

		for idx := 1; idx < len(s.prob.Nodes); idx++ {
			n := &s.prob.Nodes[idx]
			if assigned[idx] || usedBase[n.BaseID] {
				continue
			}
			day := n.Day()
			if n.Role == model.RoleMeal && s.mealCount(orders[day]) >= MaxMealsPerDay {
				continue
			}
			cand, delta, ok := s.bestInsertion(orders[day], s.prob.DaySpecs[day], idx)
			if ok && delta < bestDelta {
				bestDelta, bestNode, bestDay, bestOrder = delta, idx, day, cand
			}
		}
		if bestNode < 0 {
			break
		}
		orders[bestDay] = bestOrder
		assigned[bestNode] = true
		usedBase[s.prob.Nodes[bestNode].BaseID] = true
	}

	s.ensureMeals(orders, assigned, usedBase)
	s.improve(orders, deadline)

	sol := &Solution{
		Routes:           make([]Route, numDays),
		DroppedMandatory: droppedMandatory,
		TimedOut:         timedOut,
	}
	for day, order := range orders {
		visits, ret, _ := s.simulate(s.prob.DaySpecs[day], order)
		if ret == 0 {
			ret = s.prob.DaySpecs[day].StartMin
		}
		sol.Routes[day] = Route{Day: s.prob.DaySpecs[day], Visits: visits, ReturnMin: ret}
		sol.Cost += s.routeCost(order)
	}

	// A base POI is dropped only when none of its day copies made it
	droppedSet := make(map[string]bool)
	for idx := 1; idx < len(s.prob.Nodes); idx++ {
		base := s.prob.Nodes[idx].BaseID
		if !usedBase[base] && !droppedSet[base] {
			droppedSet[base] = true
			sol.Dropped = append(sol.Dropped, base)
		}
	}
	sort.Strings(sol.Dropped)
	sol.Cost += DropPenaltyBase * len(sol.Dropped)
	sol.Cost += MandatoryDropPenalty * len(droppedMandatory)

	log.Infof(ctx, "CVRPTW solved: cost=%d dropped=%d mandatory_dropped=%d timed_out=%v",
		sol.Cost, len(sol.Dropped), len(droppedMandatory), timedOut)
	return sol
}

// ensureMeals gives every day its required meal when one is available:
// first from still-unassigned meal copies, then by moving a surplus
// meal over from a day that has more than one.
func (s *Solver) ensureMeals(orders [][]int, assigned map[int]bool, usedBase map[string]bool) {
	for day := range orders {
		if s.mealCount(orders[day]) > 0 {
			continue
		}
		if s.insertMealFromPool(day, orders, assigned, usedBase) {
			continue
		}
		s.stealMeal(day, orders, assigned, usedBase)
	}
}

func (s *Solver) insertMealFromPool(day int, orders [][]int, assigned map[int]bool, usedBase map[string]bool) bool {
	spec := s.prob.DaySpecs[day]
	bestNode, bestDelta := -1, 0
	var bestOrder []int
	for idx := 1; idx < len(s.prob.Nodes); idx++ {
		n := &s.prob.Nodes[idx]
		if n.Role != model.RoleMeal || n.Day() != day || assigned[idx] || usedBase[n.BaseID] {
			continue
		}
		cand, delta, ok := s.bestInsertion(orders[day], spec, idx)
		if ok && (bestNode < 0 || delta < bestDelta) {
			bestNode, bestDelta, bestOrder = idx, delta, cand
		}
	}
	if bestNode < 0 {
		return false
	}
	orders[day] = bestOrder
	assigned[bestNode] = true
	usedBase[s.prob.Nodes[bestNode].BaseID] = true
	return true
}

func (s *Solver) stealMeal(day int, orders [][]int, assigned map[int]bool, usedBase map[string]bool) bool {
	spec := s.prob.DaySpecs[day]
	for d2 := range orders {
		if d2 == day || s.mealCount(orders[d2]) < 2 {
			continue
		}
		for pos, idx := range orders[d2] {
			n := &s.prob.Nodes[idx]
			if n.Role != model.RoleMeal {
				continue
			}
			copyIdx := s.findCopy(n.BaseID, model.RoleMeal, day)
			if copyIdx < 0 {
				continue
			}
			// Removal can stretch a wait past the slack cap, so the
			// shortened donor route is re-checked.
			reduced := make([]int, 0, len(orders[d2])-1)
			reduced = append(reduced, orders[d2][:pos]...)
			reduced = append(reduced, orders[d2][pos+1:]...)
			if _, _, ok := s.simulate(s.prob.DaySpecs[d2], reduced); !ok {
				continue
			}
			cand, _, ok := s.bestInsertion(orders[day], spec, copyIdx)
			if !ok {
				continue
			}
			orders[d2] = reduced
			orders[day] = cand
			assigned[idx] = false
			assigned[copyIdx] = true
			return true
		}
	}
	return false
}

// findCopy returns the node index of the base POI's copy on the given
// day, or -1 when none was materialised.
func (s *Solver) findCopy(baseID, role string, day int) int {
	for idx := 1; idx < len(s.prob.Nodes); idx++ {
		n := &s.prob.Nodes[idx]
		if n.BaseID == baseID && n.Role == role && n.Day() == day {
			return idx
		}
	}
	return -1
}

// Simulate replays an order through a day clock so callers can test
// alternative sequencings for time-window feasibility.
func Simulate(prob *Problem, day DaySpec, order []int) ([]Visit, int, bool) {
	s := &Solver{prob: prob}
	return s.simulate(day, order)
}

// improve runs 2-opt reversals and single-stop relocations within each
// day until no move helps or the deadline passes.
func (s *Solver) improve(orders [][]int, deadline time.Time) {
	improved := true
	for improved {
		improved = false
		if time.Now().After(deadline) {
			return
		}
		for day := range orders {
			spec := s.prob.DaySpecs[day]
			order := orders[day]
			cur := s.routeCost(order)

			// 2-opt: reverse each segment
			for i := 0; i < len(order)-1; i++ {
				for j := i + 1; j < len(order); j++ {
					cand := twoOptSwap(order, i, j)
					if _, _, ok := s.simulate(spec, cand); !ok {
						continue
					}
					if c := s.routeCost(cand); c < cur {
						order, cur = cand, c
						improved = true
					}
				}
			}

			// Relocation: move each stop to every other position
			for i := 0; i < len(order); i++ {
				for j := 0; j <= len(order); j++ {
					if j == i || j == i+1 {
						continue
					}
					cand := relocate(order, i, j)
					if _, _, ok := s.simulate(spec, cand); !ok {
						continue
					}
					if c := s.routeCost(cand); c < cur {
						order, cur = cand, c
						improved = true
					}
				}
			}
			orders[day] = order
		}
	}
}

// twoOptSwap reverses order[i..j] inclusive in a copy
func twoOptSwap(order []int, i, j int) []int {
	out := make([]int, len(order))
	copy(out, order)
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

// relocate moves order[i] to position j (pre-removal indexing) in a copy
func relocate(order []int, i, j int) []int {
	out := make([]int, 0, len(order))
	v := order[i]
	rest := make([]int, 0, len(order)-1)
	rest = append(rest, order[:i]...)
	rest = append(rest, order[i+1:]...)
	if j > i {
		j--
	}
	out = append(out, rest[:j]...)
	out = append(out, v)
	out = append(out, rest[j:]...)
	return out
}

// BuildDays renders the solved routes as presentable itinerary days
// with the depot as the first and last stop of each day.
func BuildDays(prob *Problem, sol *Solution) []model.Day {
	depot := &prob.Nodes[0]
	days := make([]model.Day, len(sol.Routes))
	for i, r := range sol.Routes {
		day := model.Day{
			Date:               r.Day.Date.Format("2006-01-02"),
			OptimizationMethod: "cvrptw",
		}
		day.Stops = append(day.Stops, model.Stop{
			POIID:        depot.BaseID,
			Name:         depot.Name,
			Role:         model.RoleDepot,
			Arrival:      FormatMinutes(r.Day.StartMin),
			StartService: FormatMinutes(r.Day.StartMin),
			Depart:       FormatMinutes(r.Day.StartMin),
			Lat:          depot.Lat,
			Lon:          depot.Lon,
		})
		for _, v := range r.Visits {
			n := &prob.Nodes[v.Node]
			// A stop that waits for its window is reported at the window
			// opening; the physical arrival stays internal to the solver.
			day.Stops = append(day.Stops, model.Stop{
				POIID:        n.BaseID,
				Name:         n.Name,
				Role:         n.Role,
				Arrival:      FormatMinutes(v.Start),
				StartService: FormatMinutes(v.Start),
				Depart:       FormatMinutes(v.Depart),
				Lat:          n.Lat,
				Lon:          n.Lon,
			})
			if n.Role == model.RoleMeal {
				day.Meals++
			}
		}
		day.Stops = append(day.Stops, model.Stop{
			POIID:        depot.BaseID,
			Name:         depot.Name,
			Role:         model.RoleDepot,
			Arrival:      FormatMinutes(r.ReturnMin),
			StartService: FormatMinutes(r.ReturnMin),
			Depart:       FormatMinutes(r.ReturnMin),
			Lat:          depot.Lat,
			Lon:          depot.Lon,
		})
		days[i] = day
	}
	return days
}
