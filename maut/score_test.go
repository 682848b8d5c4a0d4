package maut

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fikatrip/planner/model"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestPopularityScore(t *testing.T) {
	// Well-rated and well-reviewed approaches 1.0
	high := PopularityScore(fptr(5.0), iptr(1000))
	assert.InDelta(t, 1.0, high, 0.01)

	// No reviews halves the rating signal
	assert.InDelta(t, 0.5*0.8, PopularityScore(fptr(4.0), nil), 1e-9)
	assert.InDelta(t, 0.5*0.8, PopularityScore(fptr(4.0), iptr(0)), 1e-9)

	// Unknown rating with reviews keeps only the volume term
	v := PopularityScore(nil, iptr(99))
	assert.InDelta(t, 0.3*math.Log10(100)/3.0, v, 1e-9)
}

func TestBudgetAlignment(t *testing.T) {
	assert.Equal(t, 1.0, BudgetAlignment(nil, model.BudgetTight))
	assert.Equal(t, 1.0, BudgetAlignment(iptr(2), model.BudgetSensible))
	// Distance 3 from target zeroes the score
	assert.Equal(t, 0.0, BudgetAlignment(iptr(4), model.BudgetTight))
	assert.InDelta(t, 1.0-1.0/3.0, BudgetAlignment(iptr(3), model.BudgetSensible), 1e-9)
}

func TestInterestMatchScore(t *testing.T) {
	themes := []string{"nature", "shopping", "cultural_history"}
	assert.Equal(t, 0.0, InterestMatchScore(nil, themes))
	assert.InDelta(t, 1.0/3.0, InterestMatchScore([]string{"nature"}, themes), 1e-9)
	assert.InDelta(t, 1.0, InterestMatchScore(themes, themes), 1e-9)
}

func TestDietaryScore(t *testing.T) {
	halalSpot := &model.POI{HalalFood: true}
	veganSpot := &model.POI{VeganOptions: true}
	plain := &model.POI{}

	assert.Equal(t, 0.5, DietaryScore(nil, plain))
	assert.Equal(t, 1.0, DietaryScore([]string{model.DietHalal}, halalSpot))
	assert.Equal(t, 0.0, DietaryScore([]string{model.DietHalal}, plain))
	// Vegan options satisfy a vegetarian restriction
	assert.Equal(t, 1.0, DietaryScore([]string{model.DietVegetarian}, veganSpot))
}

func TestScorePOIRenormalizesWeights(t *testing.T) {
	req := &model.Request{BudgetTier: model.BudgetSensible}
	p := &model.POI{
		Roles:       []string{model.RoleAttraction},
		Themes:      []string{"nature"},
		Rating:      fptr(5.0),
		ReviewCount: iptr(1000),
		PriceLevel:  iptr(2),
	}
	themes := []string{"nature", "shopping", "cultural_history"}

	// With only interest/cost/popularity active, a perfect match on all
	// three scores close to 1/3 + some remainder
	score := ScorePOI(req, p, themes)
	assert.Greater(t, score, 0.5)
	assert.LessOrEqual(t, score, 1.0)

	// Flags add dimensions and dilute the base ones
	reqFlags := &model.Request{BudgetTier: model.BudgetSensible,
		Flags: model.Flags{HasChild: true, HasPets: true}}
	flagged := ScorePOI(reqFlags, p, themes)
	assert.Less(t, flagged, score)
}

func TestScorePOIThemeOnlyForPureAttractions(t *testing.T) {
	req := &model.Request{BudgetTier: model.BudgetSensible}
	themes := []string{"nature", "shopping", "cultural_history"}

	pure := &model.POI{Roles: []string{model.RoleAttraction}, Themes: themes}
	mixed := &model.POI{Roles: []string{model.RoleAttraction, model.RoleMeal}, Themes: themes}

	assert.Greater(t, ScorePOI(req, pure, themes), ScorePOI(req, mixed, themes))
}

func TestQuotasForDays(t *testing.T) {
	q := QuotasForDays(3)
	assert.Equal(t, 36, q.Attraction)
	assert.Equal(t, 15, q.Meal)
	assert.Equal(t, 8, q.Accommodation)

	// Caps engage for long trips
	long := QuotasForDays(30)
	assert.Equal(t, 300, long.Attraction)
	assert.Equal(t, 50, long.Meal)
	assert.Equal(t, 15, long.Accommodation)

	// Unknown day counts fall back to a week
	assert.Equal(t, QuotasForDays(7), QuotasForDays(0))
}

func TestQuotaMonotonicity(t *testing.T) {
	prev := QuotasForDays(1)
	for d := 2; d <= 31; d++ {
		cur := QuotasForDays(d)
		assert.GreaterOrEqual(t, cur.Attraction, prev.Attraction)
		assert.GreaterOrEqual(t, cur.Meal, prev.Meal)
		assert.GreaterOrEqual(t, cur.Accommodation, prev.Accommodation)
		prev = cur
	}
}
