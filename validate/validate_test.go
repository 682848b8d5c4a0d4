package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikatrip/planner/maut"
	"github.com/fikatrip/planner/model"
)

func depotStop(at string) model.Stop {
	return model.Stop{POIID: "hotel-1", Name: "Hotel", Role: model.RoleDepot,
		Arrival: at, StartService: at, Depart: at}
}

func stop(id, role, arrival, depart string) model.Stop {
	return model.Stop{POIID: id, Name: id, Role: role,
		Arrival: arrival, StartService: arrival, Depart: depart}
}

func selectionWith(pois ...model.POI) *maut.Selection {
	sel := &maut.Selection{
		ByRole:         map[string][]maut.Scored{},
		SelectedThemes: []string{"nature", "shopping", "cultural_history"},
	}
	for _, p := range pois {
		sc := maut.Scored{POI: p, Score: 0.5}
		sel.Places = append(sel.Places, sc)
		for _, role := range p.Roles {
			sel.ByRole[role] = append(sel.ByRole[role], sc)
		}
	}
	return sel
}

func goodPlan() *model.Plan {
	return &model.Plan{Days: []model.Day{{
		Date: "2026-08-24", // Monday
		Stops: []model.Stop{
			depotStop("09:00"),
			stop("a1", model.RoleAttraction, "09:10", "10:40"),
			stop("m1", model.RoleMeal, "12:10", "13:10"),
			stop("a2", model.RoleAttraction, "13:20", "14:50"),
			depotStop("15:00"),
		},
		Meals: 1,
	}}}
}

func goodSelection() *maut.Selection {
	return selectionWith(
		model.POI{ID: "a1", Roles: []string{model.RoleAttraction}, Themes: []string{"nature"}},
		model.POI{ID: "a2", Roles: []string{model.RoleAttraction}, Themes: []string{"shopping", "cultural_history"}},
		model.POI{ID: "m1", Roles: []string{model.RoleMeal}},
	)
}

func TestCheckCleanPlan(t *testing.T) {
	r := Check(Input{Plan: goodPlan(), Selection: goodSelection(), Pacing: model.PacingBalanced})
	require.True(t, r.OK(), "violations: %+v", r.Violations)
	assert.Equal(t, 1, r.Stats.Days)
	assert.Equal(t, 3, r.Stats.Stops)
	assert.Equal(t, 1, r.Stats.Meals)
}

func TestCheckConsecutiveMeals(t *testing.T) {
	plan := &model.Plan{Days: []model.Day{{
		Date: "2026-08-24",
		Stops: []model.Stop{
			depotStop("09:00"),
			stop("m1", model.RoleMeal, "12:00", "13:00"),
			stop("m2", model.RoleMeal, "13:10", "14:00"),
			depotStop("14:10"),
		},
		Meals: 2,
	}}}
	r := Check(Input{Plan: plan, Selection: goodSelection(), Pacing: model.PacingBalanced})

	assert.False(t, r.OK())
	codes := violationCodes(r)
	assert.Contains(t, codes, CodeConsecutiveMeals)
}

func TestCheckMealTimingWarning(t *testing.T) {
	plan := goodPlan()
	plan.Days[0].Stops[2] = stop("m1", model.RoleMeal, "15:30", "16:30")
	plan.Days[0].Stops[3] = stop("a2", model.RoleAttraction, "16:40", "18:10")

	r := Check(Input{Plan: plan, Selection: goodSelection(), Pacing: model.PacingBalanced})
	assert.True(t, r.OK(), "off-window meals are warnings, not errors")
	assert.Contains(t, violationCodes(r), CodeMealTiming)
}

func TestCheckClosedPOI(t *testing.T) {
	sel := goodSelection()
	sel.Places[0].POI.OpenHours = model.OpenHours{"Monday": {"closed"}}

	r := Check(Input{Plan: goodPlan(), Selection: sel, Pacing: model.PacingBalanced})
	assert.False(t, r.OK())
	assert.Contains(t, violationCodes(r), CodePOIClosed)
}

func TestCheckOutsideOpeningWindow(t *testing.T) {
	sel := goodSelection()
	sel.Places[0].POI.OpenHours = model.OpenHours{"Monday": {"11 am-6 pm"}}

	// a1 is visited 09:10-10:40, before the 11:00 opening
	r := Check(Input{Plan: goodPlan(), Selection: sel, Pacing: model.PacingBalanced})
	assert.False(t, r.OK())
	assert.Contains(t, violationCodes(r), CodeOutsideWindow)
}

func TestCheckMissingMealIsError(t *testing.T) {
	plan := goodPlan()
	plan.Days[0].Stops = []model.Stop{
		depotStop("09:00"),
		stop("a1", model.RoleAttraction, "09:10", "10:40"),
		depotStop("10:50"),
	}
	plan.Days[0].Meals = 0

	r := Check(Input{Plan: plan, Selection: goodSelection(), Pacing: model.PacingBalanced})
	assert.False(t, r.OK())
	assert.Contains(t, violationCodes(r), CodeMealCount)
}

func TestCheckNoMealsAvailableIsFine(t *testing.T) {
	sel := selectionWith(
		model.POI{ID: "a1", Roles: []string{model.RoleAttraction}, Themes: []string{"nature", "shopping", "cultural_history"}},
	)
	plan := &model.Plan{Days: []model.Day{{
		Date: "2026-08-24",
		Stops: []model.Stop{
			depotStop("09:00"),
			stop("a1", model.RoleAttraction, "09:10", "10:40"),
			depotStop("10:50"),
		},
	}}}

	r := Check(Input{Plan: plan, Selection: sel, Pacing: model.PacingBalanced})
	assert.True(t, r.OK(), "violations: %+v", r.Violations)
}

func TestCheckDuplicateStop(t *testing.T) {
	plan := goodPlan()
	plan.Days = append(plan.Days, model.Day{
		Date: "2026-08-25",
		Stops: []model.Stop{
			depotStop("09:00"),
			stop("a1", model.RoleAttraction, "09:10", "10:40"),
			stop("m1", model.RoleMeal, "12:10", "13:10"),
			depotStop("13:20"),
		},
		Meals: 1,
	})

	r := Check(Input{Plan: plan, Selection: goodSelection(), Pacing: model.PacingBalanced})
	assert.False(t, r.OK())
	codes := violationCodes(r)
	assert.Contains(t, codes, CodeDuplicateStop)
}

func TestCheckDayOverrunWarning(t *testing.T) {
	plan := goodPlan()
	plan.Days[0].Stops[len(plan.Days[0].Stops)-1] = depotStop("21:30")

	r := Check(Input{Plan: plan, Selection: goodSelection(), Pacing: model.PacingBalanced})
	assert.True(t, r.OK(), "overrun is a warning")
	assert.Contains(t, violationCodes(r), CodeDayOverrun)
}

func TestCheckMandatoryMissed(t *testing.T) {
	r := Check(Input{
		Plan:      goodPlan(),
		Selection: goodSelection(),
		Pacing:    model.PacingBalanced,
		Mandatory: map[string]model.MandatoryVisit{
			"ghost": {Day: 1, Window: [2]string{"15:00", "16:00"}},
		},
	})
	assert.False(t, r.OK())
	assert.Contains(t, violationCodes(r), CodeMandatoryMissed)
}

func TestCheckMandatoryHonoured(t *testing.T) {
	plan := goodPlan()
	r := Check(Input{
		Plan:      plan,
		Selection: goodSelection(),
		Pacing:    model.PacingBalanced,
		Mandatory: map[string]model.MandatoryVisit{
			"m1": {Day: 1, Window: [2]string{"12:00", "14:00"}},
		},
	})
	assert.True(t, r.OK(), "violations: %+v", r.Violations)
}

func TestCheckRefineRegressionWarning(t *testing.T) {
	plan := goodPlan()
	plan.Days[0].DistanceCVRPTWKm = 5.0
	plan.Days[0].DistanceKm = 5.5

	r := Check(Input{Plan: plan, Selection: goodSelection(), Pacing: model.PacingBalanced})
	require.True(t, r.OK())
	assert.NotContains(t, violationCodes(r), CodeRefineRegression)

	// Refined distance past the slack bound is flagged, still a warning
	plan.Days[0].DistanceKm = 6.5
	r = Check(Input{Plan: plan, Selection: goodSelection(), Pacing: model.PacingBalanced})
	assert.True(t, r.OK())
	assert.Contains(t, violationCodes(r), CodeRefineRegression)
}

func TestCheckThemeGapWarning(t *testing.T) {
	sel := selectionWith(
		model.POI{ID: "a1", Roles: []string{model.RoleAttraction}, Themes: []string{"nature"}},
		model.POI{ID: "a2", Roles: []string{model.RoleAttraction}, Themes: []string{"nature"}},
		model.POI{ID: "m1", Roles: []string{model.RoleMeal}},
	)
	r := Check(Input{Plan: goodPlan(), Selection: sel, Pacing: model.PacingBalanced})
	assert.True(t, r.OK())
	assert.Contains(t, violationCodes(r), CodeThemeGap)
}

func violationCodes(r *Report) []string {
	var out []string
	for _, v := range r.Violations {
		out = append(out, v.Code)
	}
	return out
}
