package pipeline

import (
	"strings"
	"time"

	"github.com/fikatrip/planner/cvrptw"
	"github.com/fikatrip/planner/model"
)

const (
	defaultNumDays = 3
	maxNumDays     = 30
)

var validBudgets = map[string]bool{
	model.BudgetTight:    true,
	model.BudgetSensible: true,
	model.BudgetUpscale:  true,
	model.BudgetLuxury:   true,
}

var validPacings = map[string]bool{
	model.PacingRelaxed:  true,
	model.PacingBalanced: true,
	model.PacingPacked:   true,
}

var validDiets = map[string]bool{
	model.DietHalal:      true,
	model.DietVegan:      true,
	model.DietVegetarian: true,
}

// Normalize validates the intake payload and derives the planning
// request: budget/pacing defaults, day-count resolution, flag
// derivation from traveler counts, and dietary cleanup.
func Normalize(in *model.IntakeRequest) (*model.Request, *Error) {
	if in == nil {
		return nil, NewError(KindInvalidRequest, "empty request")
	}
	dest := strings.TrimSpace(in.Destination)
	if dest == "" {
		return nil, NewError(KindInvalidRequest, "destination is required")
	}

	numDays, perr := resolveNumDays(in)
	if perr != nil {
		return nil, perr
	}

	budget := strings.ToLower(strings.TrimSpace(in.Preferences.Budget))
	if !validBudgets[budget] {
		budget = model.BudgetSensible
	}
	pacing := strings.ToLower(strings.TrimSpace(in.Preferences.Pacing))
	if !validPacings[pacing] {
		pacing = model.PacingBalanced
	}

	flags := in.Flags
	if in.Travelers.Children > 0 {
		flags.HasChild = true
	}
	if in.Travelers.Pets > 0 {
		flags.HasPets = true
	}

	diets := make([]string, 0, len(in.DietaryRestrictions)+1)
	seenDiet := make(map[string]bool)
	for _, d := range in.DietaryRestrictions {
		d = strings.ToLower(strings.TrimSpace(d))
		if validDiets[d] && !seenDiet[d] {
			seenDiet[d] = true
			diets = append(diets, d)
		}
	}
	if flags.IsMuslim && !seenDiet[model.DietHalal] {
		diets = append(diets, model.DietHalal)
	}

	for id, mand := range in.Mandatory {
		if perr := checkMandatory(id, mand, numDays); perr != nil {
			return nil, perr
		}
	}

	return &model.Request{
		Destination:         dest,
		NumDays:             numDays,
		Dates:               in.Dates,
		BudgetTier:          budget,
		Pacing:              pacing,
		InterestThemes:      in.Preferences.Interests,
		Flags:               flags,
		DietaryRestrictions: diets,
		ExcludedThemes:      in.ExcludedThemes,
		SeedLat:             in.SeedLat,
		SeedLon:             in.SeedLon,
		Mandatory:           in.Mandatory,
	}, nil
}

// resolveNumDays prefers an explicit count, then a specific date span,
// then a flexible duration, then the default.
func resolveNumDays(in *model.IntakeRequest) (int, *Error) {
	n := in.NumDays
	if n == 0 && in.Dates != nil {
		switch {
		case in.Dates.Type == "specific" && in.Dates.StartDate != "" && in.Dates.EndDate != "":
			s, err1 := time.Parse("2006-01-02", in.Dates.StartDate)
			e, err2 := time.Parse("2006-01-02", in.Dates.EndDate)
			if err1 != nil || err2 != nil {
				return 0, NewError(KindInvalidRequest, "malformed trip dates %q..%q", in.Dates.StartDate, in.Dates.EndDate)
			}
			n = int(e.Sub(s).Hours()/24) + 1
		case in.Dates.Days > 0:
			n = in.Dates.Days
		}
	}
	if n == 0 {
		n = defaultNumDays
	}
	if n < 1 {
		return 0, NewError(KindInvalidRequest, "trip length resolves to %d days", n)
	}
	if n > maxNumDays {
		n = maxNumDays
	}
	return n, nil
}

func checkMandatory(id string, mand model.MandatoryVisit, numDays int) *Error {
	if mand.Day < 1 || mand.Day > numDays {
		return NewError(KindInvalidRequest, "mandatory visit %s names day %d of a %d-day trip", id, mand.Day, numDays)
	}
	open, err := cvrptw.ParseHHMM(mand.Window[0])
	if err != nil {
		return NewError(KindInvalidRequest, "mandatory visit %s has malformed window start %q", id, mand.Window[0])
	}
	close, err := cvrptw.ParseHHMM(mand.Window[1])
	if err != nil {
		return NewError(KindInvalidRequest, "mandatory visit %s has malformed window end %q", id, mand.Window[1])
	}
	if close <= open {
		return NewError(KindInvalidRequest, "mandatory visit %s has empty window %s-%s", id, mand.Window[0], mand.Window[1])
	}
	return nil
}
