// Package validate checks a finished plan against the selection it was
// built from. It is a post-hoc rule checker used by tests and
// diagnostics, not part of the request path.
package validate

import (
	"fmt"
	"time"

	"github.com/fikatrip/planner/cvrptw"
	"github.com/fikatrip/planner/maut"
	"github.com/fikatrip/planner/model"
)

// Violation severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Violation codes
const (
	CodeConsecutiveMeals = "consecutive_meals"
	CodeMealTiming       = "meal_timing"
	CodePOIClosed        = "poi_closed"
	CodeOutsideWindow    = "outside_window"
	CodeMealCount        = "meal_count"
	CodeThemeGap         = "theme_gap"
	CodeDayOverrun       = "day_overrun"
	CodeMandatoryMissed  = "mandatory_missed"
	CodeDuplicateStop    = "duplicate_stop"
	CodeRefineRegression = "refine_regression"
)

// refineSlack bounds how much the refined tour may exceed the
// pre-refinement distance
const refineSlack = 1.2

// Typical meal windows in minutes: breakfast, lunch, dinner
var mealWindows = [][2]int{
	{7 * 60, 10 * 60},
	{12 * 60, 14 * 60},
	{18 * 60, 21 * 60},
}

// Violation is one failed rule, tied to a day and POI where relevant
type Violation struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Day      int    `json:"day"`    // 1-based, 0 when plan-wide
	POIID    string `json:"poi_id"` // empty when not stop-specific
}

// Stats summarises what the validator saw
type Stats struct {
	Days       int `json:"days"`
	Stops      int `json:"stops"`
	Meals      int `json:"meals"`
	ErrorCount int `json:"error_count"`
	WarnCount  int `json:"warn_count"`
}

// Report is the full validation outcome
type Report struct {
	Violations []Violation `json:"violations"`
	Stats      Stats       `json:"stats"`
}

// OK reports whether the plan passed with no errors (warnings allowed)
func (r *Report) OK() bool {
	return r.Stats.ErrorCount == 0
}

// Errors returns only the error-severity violations
func (r *Report) Errors() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Input carries everything the checker needs about one planning run
type Input struct {
	Plan      *model.Plan
	Selection *maut.Selection
	Pacing    string
	Mandatory map[string]model.MandatoryVisit
}

// Check runs every rule over the plan and returns the report
func Check(in Input) *Report {
	r := &Report{}
	if in.Plan == nil {
		return r
	}

	pois := make(map[string]*model.POI)
	if in.Selection != nil {
		for i := range in.Selection.Places {
			p := &in.Selection.Places[i].POI
			pois[p.ID] = p
		}
	}
	_, endMin := cvrptw.DaySpan(in.Pacing)

	mealsAvailable := 0
	if in.Selection != nil {
		mealsAvailable = len(in.Selection.ByRole[model.RoleMeal])
	}

	seen := make(map[string]int)
	for dayIdx := range in.Plan.Days {
		day := &in.Plan.Days[dayIdx]
		r.Stats.Days++
		checkDay(r, day, dayIdx+1, endMin, pois, seen)
		if mealsAvailable > 0 && day.Meals < 1 {
			r.add(Violation{
				Code:     CodeMealCount,
				Severity: SeverityError,
				Message:  "day has no meal although meal candidates exist",
				Day:      dayIdx + 1,
			})
		}
		if day.DistanceCVRPTWKm > 0 && day.DistanceKm > refineSlack*day.DistanceCVRPTWKm {
			r.add(Violation{
				Code:     CodeRefineRegression,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("day travels %.1f km, more than %.1fx the %.1f km pre-refinement tour", day.DistanceKm, refineSlack, day.DistanceCVRPTWKm),
				Day:      dayIdx + 1,
			})
		}
	}

	for id, n := range seen {
		if n > 1 {
			r.add(Violation{
				Code:     CodeDuplicateStop,
				Severity: SeverityError,
				Message:  fmt.Sprintf("POI %s appears %d times across the plan", id, n),
				POIID:    id,
			})
		}
	}

	checkMandatory(r, in)
	checkThemeCoverage(r, in)
	r.Stats.ErrorCount = len(r.Errors())
	r.Stats.WarnCount = len(r.Violations) - r.Stats.ErrorCount
	return r
}

func (r *Report) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

func checkDay(r *Report, day *model.Day, dayNum, endMin int, pois map[string]*model.POI, seen map[string]int) {
	prevMeal := false
	var lastDepart int

	for i := range day.Stops {
		stop := &day.Stops[i]
		if stop.Role == model.RoleDepot {
			if t, err := cvrptw.ParseHHMM(stop.Arrival); err == nil {
				lastDepart = t
			}
			prevMeal = false
			continue
		}
		r.Stats.Stops++
		seen[stop.POIID]++

		arrival, errA := cvrptw.ParseHHMM(stop.Arrival)
		depart, errD := cvrptw.ParseHHMM(stop.Depart)
		if errA != nil || errD != nil {
			r.add(Violation{
				Code:     CodeOutsideWindow,
				Severity: SeverityError,
				Message:  fmt.Sprintf("stop %s has malformed times %q-%q", stop.POIID, stop.Arrival, stop.Depart),
				Day:      dayNum, POIID: stop.POIID,
			})
			continue
		}
		lastDepart = depart

		if stop.Role == model.RoleMeal {
			r.Stats.Meals++
			if prevMeal {
				r.add(Violation{
					Code:     CodeConsecutiveMeals,
					Severity: SeverityError,
					Message:  fmt.Sprintf("meal %s directly follows another meal", stop.POIID),
					Day:      dayNum, POIID: stop.POIID,
				})
			}
			if !inMealWindow(arrival) {
				r.add(Violation{
					Code:     CodeMealTiming,
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("meal %s arrives at %s, outside typical meal hours", stop.POIID, stop.Arrival),
					Day:      dayNum, POIID: stop.POIID,
				})
			}
			prevMeal = true
		} else {
			prevMeal = false
		}

		if p, ok := pois[stop.POIID]; ok {
			checkOpenHours(r, p, day.Date, dayNum, stop.POIID, arrival, depart)
		}
	}

	if day.Meals > cvrptw.MaxMealsPerDay {
		r.add(Violation{
			Code:     CodeMealCount,
			Severity: SeverityError,
			Message:  fmt.Sprintf("day has %d meals, more than %d", day.Meals, cvrptw.MaxMealsPerDay),
			Day:      dayNum,
		})
	}
	if lastDepart > endMin+60 {
		r.add(Violation{
			Code:     CodeDayOverrun,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("day ends at %s, past the %s horizon", cvrptw.FormatMinutes(lastDepart), cvrptw.FormatMinutes(endMin)),
			Day:      dayNum,
		})
	}
}

// checkOpenHours verifies (arrival, depart) sits inside some opening
// window when the catalog knows the hours for that date. Unknown or
// unparseable hours are not flagged.
func checkOpenHours(r *Report, p *model.POI, date string, dayNum int, poiID string, arrival, depart int) {
	if p.OpenHours == nil {
		return
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return
	}
	labels, ok := p.OpenHours[cvrptw.WeekdayName(d)]
	if !ok || len(labels) == 0 {
		return
	}

	known := false
	for _, label := range labels {
		w, closed := cvrptw.ParseTimeRangeLabel(label)
		if closed {
			r.add(Violation{
				Code:     CodePOIClosed,
				Severity: SeverityError,
				Message:  fmt.Sprintf("POI %s is closed on %s", poiID, date),
				Day:      dayNum, POIID: poiID,
			})
			return
		}
		if w == nil {
			continue
		}
		known = true
		if arrival >= w.Open && depart <= w.Close {
			return
		}
	}
	if known {
		r.add(Violation{
			Code:     CodeOutsideWindow,
			Severity: SeverityError,
			Message:  fmt.Sprintf("POI %s visited %s-%s outside its opening hours", poiID, cvrptw.FormatMinutes(arrival), cvrptw.FormatMinutes(depart)),
			Day:      dayNum, POIID: poiID,
		})
	}
}

// checkMandatory verifies each must-visit appears exactly once, on its
// day, with arrival inside its declared window.
func checkMandatory(r *Report, in Input) {
	for id, mand := range in.Mandatory {
		found := 0
		onDeclaredDay := false
		inWindow := false
		for dayIdx := range in.Plan.Days {
			for i := range in.Plan.Days[dayIdx].Stops {
				stop := &in.Plan.Days[dayIdx].Stops[i]
				if stop.Role == model.RoleDepot || stop.POIID != id {
					continue
				}
				found++
				if dayIdx+1 != mand.Day {
					continue
				}
				onDeclaredDay = true
				arrival, errA := cvrptw.ParseHHMM(stop.Arrival)
				open, errO := cvrptw.ParseHHMM(mand.Window[0])
				close, errC := cvrptw.ParseHHMM(mand.Window[1])
				if errA == nil && errO == nil && errC == nil && arrival >= open && arrival <= close {
					inWindow = true
				}
			}
		}
		if found != 1 || !onDeclaredDay || !inWindow {
			r.add(Violation{
				Code:     CodeMandatoryMissed,
				Severity: SeverityError,
				Message:  fmt.Sprintf("mandatory POI %s not honoured on day %d within %s-%s", id, mand.Day, mand.Window[0], mand.Window[1]),
				Day:      mand.Day, POIID: id,
			})
		}
	}
}

// checkThemeCoverage warns when a selected theme never appears in the
// plan's visited attractions.
func checkThemeCoverage(r *Report, in Input) {
	if in.Selection == nil || len(in.Plan.Days) == 0 {
		return
	}
	pois := make(map[string]*model.POI)
	for i := range in.Selection.Places {
		p := &in.Selection.Places[i].POI
		pois[p.ID] = p
	}

	covered := make(map[string]bool)
	for dayIdx := range in.Plan.Days {
		for i := range in.Plan.Days[dayIdx].Stops {
			stop := &in.Plan.Days[dayIdx].Stops[i]
			if p, ok := pois[stop.POIID]; ok {
				for _, t := range p.Themes {
					covered[t] = true
				}
			}
		}
	}
	for _, theme := range in.Selection.SelectedThemes {
		if !covered[theme] {
			r.add(Violation{
				Code:     CodeThemeGap,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("selected theme %q has no stop in the plan", theme),
			})
		}
	}
}

func inMealWindow(arrival int) bool {
	for _, w := range mealWindows {
		if arrival >= w[0] && arrival <= w[1] {
			return true
		}
	}
	return false
}
