package maut

import (
	"math"

	"github.com/fikatrip/planner/model"
)

// Minimum catalog quality accepted by the candidate fetch
const (
	MinRating  = 2.0
	MinReviews = 10
)

// baseWeights fixes the contribution of each scoring dimension before
// renormalization over the applicable subset.
var baseWeights = map[string]float64{
	"interest":   0.3,
	"cost":       0.2,
	"popularity": 0.1,
	"child":      0.1,
	"dietary":    0.1,
	"pet":        0.1,
	"access":     0.1,
}

// budgetTarget maps a budget tier to its target price level
var budgetTarget = map[string]float64{
	model.BudgetTight:    1.0,
	model.BudgetSensible: 2.0,
	model.BudgetUpscale:  3.0,
	model.BudgetLuxury:   4.0,
}

// PopularityScore blends normalized rating with log-scaled review volume
func PopularityScore(rating *float64, reviews *int) float64 {
	r := 0.0
	if rating != nil {
		r = clamp01(*rating / 5.0)
	}
	if reviews == nil || *reviews <= 0 {
		return 0.5 * r
	}
	rc := math.Min(1.0, math.Log10(1.0+float64(*reviews))/3.0)
	return 0.7*r + 0.3*rc
}

// BudgetAlignment scores how close a price level sits to the tier
// target. Unknown price is neutral-favourable.
func BudgetAlignment(priceLevel *int, budgetTier string) float64 {
	if priceLevel == nil {
		return 1.0
	}
	target, ok := budgetTarget[budgetTier]
	if !ok {
		target = 4.0
	}
	dist := math.Abs(float64(*priceLevel) - target)
	return math.Max(0.0, 1.0-dist/3.0)
}

// InterestMatchScore counts how many selected themes the POI carries,
// normalized by the number of selected themes.
func InterestMatchScore(poiThemes, selectedThemes []string) float64 {
	if len(poiThemes) == 0 || len(selectedThemes) == 0 {
		return 0.0
	}
	set := make(map[string]bool, len(poiThemes))
	for _, t := range poiThemes {
		set[t] = true
	}
	matches := 0
	for _, t := range selectedThemes {
		if set[t] {
			matches++
		}
	}
	return float64(matches) / float64(len(selectedThemes))
}

// DietaryScore is 1.0 when any declared restriction is satisfied, 0.0
// when none are, and 0.5 when the user declared no restrictions.
func DietaryScore(restrictions []string, p *model.POI) float64 {
	if len(restrictions) == 0 {
		return 0.5
	}
	for _, r := range restrictions {
		switch r {
		case model.DietHalal:
			if p.HalalFood {
				return 1.0
			}
		case model.DietVegan:
			if p.VeganOptions {
				return 1.0
			}
		case model.DietVegetarian:
			if p.VegetarianOptions || p.VeganOptions {
				return 1.0
			}
		}
	}
	return 0.0
}

// applicableDims returns the scoring dimensions active for this
// request/POI pair.
func applicableDims(req *model.Request, p *model.POI) map[string]bool {
	dims := map[string]bool{"interest": true, "cost": true, "popularity": true}
	if req.Flags.HasChild {
		dims["child"] = true
	}
	if req.Flags.HasPets {
		dims["pet"] = true
	}
	if req.Flags.IsMuslim && p.HasRole(model.RoleMeal) {
		dims["dietary"] = true
	}
	if req.Flags.WheelchairAccessible {
		dims["access"] = true
	}
	return dims
}

// renormWeights L1-renormalizes base weights over the applicable subset
func renormWeights(dims map[string]bool) map[string]float64 {
	var sum float64
	for d := range dims {
		sum += baseWeights[d]
	}
	out := make(map[string]float64, len(dims))
	for d := range dims {
		if sum > 0 {
			out[d] = baseWeights[d] / sum
		}
	}
	return out
}

// ScorePOI computes the MAUT utility of a POI for the request
func ScorePOI(req *model.Request, p *model.POI, selectedThemes []string) float64 {
	w := renormWeights(applicableDims(req, p))

	// Theme matching applies only to pure attractions
	isAttraction := p.HasRole(model.RoleAttraction) &&
		!p.HasRole(model.RoleMeal) && !p.HasRole(model.RoleAccommodation)

	var score float64
	if isAttraction {
		score += w["interest"] * InterestMatchScore(p.Themes, selectedThemes)
	}
	score += w["cost"] * BudgetAlignment(p.PriceLevel, req.BudgetTier)
	score += w["popularity"] * PopularityScore(p.Rating, p.ReviewCount)
	if p.KidsFriendly {
		score += w["child"]
	}
	if p.PetsFriendly {
		score += w["pet"]
	}
	if p.AnyAccessible() {
		score += w["access"]
	}
	if _, ok := w["dietary"]; ok {
		score += w["dietary"] * DietaryScore(req.DietaryRestrictions, p)
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
