package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikatrip/planner/model"
)

func TestNormalizeDefaults(t *testing.T) {
	req, perr := Normalize(&model.IntakeRequest{Destination: " Singapore "})
	require.Nil(t, perr)

	assert.Equal(t, "Singapore", req.Destination)
	assert.Equal(t, 3, req.NumDays)
	assert.Equal(t, model.BudgetSensible, req.BudgetTier)
	assert.Equal(t, model.PacingBalanced, req.Pacing)
}

func TestNormalizeRejectsMissingDestination(t *testing.T) {
	_, perr := Normalize(&model.IntakeRequest{Destination: "   "})
	require.NotNil(t, perr)
	assert.Equal(t, KindInvalidRequest, perr.Kind)

	_, perr = Normalize(nil)
	require.NotNil(t, perr)
	assert.Equal(t, KindInvalidRequest, perr.Kind)
}

func TestNormalizeNumDaysFromDates(t *testing.T) {
	req, perr := Normalize(&model.IntakeRequest{
		Destination: "Tokyo",
		Dates:       &model.Dates{Type: "specific", StartDate: "2026-09-01", EndDate: "2026-09-04"},
	})
	require.Nil(t, perr)
	assert.Equal(t, 4, req.NumDays)

	req, perr = Normalize(&model.IntakeRequest{
		Destination: "Tokyo",
		Dates:       &model.Dates{Type: "flexible", Days: 5},
	})
	require.Nil(t, perr)
	assert.Equal(t, 5, req.NumDays)
}

func TestNormalizeClampsLongTrips(t *testing.T) {
	req, perr := Normalize(&model.IntakeRequest{Destination: "Tokyo", NumDays: 90})
	require.Nil(t, perr)
	assert.Equal(t, 30, req.NumDays)
}

func TestNormalizeDerivesFlagsFromTravelers(t *testing.T) {
	req, perr := Normalize(&model.IntakeRequest{
		Destination: "Tokyo",
		Travelers:   model.Travelers{Adults: 2, Children: 1, Pets: 1},
	})
	require.Nil(t, perr)
	assert.True(t, req.Flags.HasChild)
	assert.True(t, req.Flags.HasPets)
}

func TestNormalizeDietaryCleanup(t *testing.T) {
	req, perr := Normalize(&model.IntakeRequest{
		Destination:         "Tokyo",
		Flags:               model.Flags{IsMuslim: true},
		DietaryRestrictions: []string{"Vegan", "vegan", "keto"},
	})
	require.Nil(t, perr)
	assert.Equal(t, []string{model.DietVegan, model.DietHalal}, req.DietaryRestrictions)
}

func TestNormalizeMandatoryValidation(t *testing.T) {
	base := func(m map[string]model.MandatoryVisit) *model.IntakeRequest {
		return &model.IntakeRequest{Destination: "Tokyo", NumDays: 3, Mandatory: m}
	}

	_, perr := Normalize(base(map[string]model.MandatoryVisit{
		"p1": {Day: 5, Window: [2]string{"10:00", "12:00"}},
	}))
	require.NotNil(t, perr)
	assert.Equal(t, KindInvalidRequest, perr.Kind)

	_, perr = Normalize(base(map[string]model.MandatoryVisit{
		"p1": {Day: 1, Window: [2]string{"bogus", "12:00"}},
	}))
	require.NotNil(t, perr)

	_, perr = Normalize(base(map[string]model.MandatoryVisit{
		"p1": {Day: 1, Window: [2]string{"12:00", "10:00"}},
	}))
	require.NotNil(t, perr)

	req, perr := Normalize(base(map[string]model.MandatoryVisit{
		"p1": {Day: 2, Window: [2]string{"15:00", "16:30"}},
	}))
	require.Nil(t, perr)
	assert.Len(t, req.Mandatory, 1)
}

func TestErrorKindOf(t *testing.T) {
	err := NewError(KindDataSource, "oracle down")
	assert.Equal(t, KindDataSource, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
}
