package maut

import (
	"context"

	"github.com/fikatrip/planner/model"
)

// RoleQuotas bounds how many candidates each role keeps
type RoleQuotas struct {
	Attraction    int
	Meal          int
	Accommodation int
}

// QuotasForDays derives role quotas from the trip length
func QuotasForDays(numDays int) RoleQuotas {
	d := numDays
	if d < 1 {
		d = 7
	}
	return RoleQuotas{
		Attraction:    minInt(12*d, 300),
		Meal:          minInt(5*d, 50),
		Accommodation: minInt(d+5, 15),
	}
}

// CandidateQuery is the request shape handed to the catalog oracle.
// The oracle may over-return; the selector enforces quotas again.
type CandidateQuery struct {
	Destination      string
	Themes           []string
	Quotas           RoleQuotas
	MinRating        float64
	MinReviews       int
	HalalOnly        bool
	WheelchairOnly   bool
	ExcludedThemes   []string
	ExcludeNightlife bool
	SeedLat          *float64
	SeedLon          *float64
}

// Catalog is the POI candidate oracle backing the selector
type Catalog interface {
	FetchCandidates(ctx context.Context, q CandidateQuery) ([]model.POI, error)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
