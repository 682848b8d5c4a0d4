package orm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikatrip/planner/maut"
	"github.com/fikatrip/planner/model"
)

func storedPOI(id, role string, themes ...string) model.POI {
	rating := 4.3
	reviews := 150
	return model.POI{
		ID:          id,
		Name:        "POI " + id,
		Roles:       []string{role},
		Themes:      themes,
		Coordinates: &model.Coordinates{Lat: 1.29, Lng: 103.85},
		Rating:      &rating,
		ReviewCount: &reviews,
	}
}

func baseQuery() maut.CandidateQuery {
	return maut.CandidateQuery{
		Destination: "singapore",
		MinRating:   maut.MinRating,
		MinReviews:  maut.MinReviews,
	}
}

func TestCatalogRoundtrip(t *testing.T) {
	db := SetupTestDB(t)
	cat := NewCatalog(db)

	p := storedPOI("p1", model.RoleAttraction, "nature", "cultural_history")
	p.OpenHours = model.OpenHours{"Monday": {"9 am-5 pm"}}
	p.KidsFriendly = true
	p.WheelchairAccessibleEntrance = true

	require.NoError(t, cat.ImportPOIs("singapore", []model.POI{p}))

	out, err := cat.FetchCandidates(context.Background(), baseQuery())
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Roles, got.Roles)
	assert.Equal(t, p.Themes, got.Themes)
	require.NotNil(t, got.Coordinates)
	assert.InDelta(t, 1.29, got.Coordinates.Lat, 1e-9)
	assert.Equal(t, p.OpenHours, got.OpenHours)
	assert.True(t, got.KidsFriendly)
	assert.True(t, got.WheelchairAccessibleEntrance)
}

func TestImportPOIsUpserts(t *testing.T) {
	db := SetupTestDB(t)
	cat := NewCatalog(db)

	p := storedPOI("p1", model.RoleAttraction, "nature")
	require.NoError(t, cat.ImportPOIs("singapore", []model.POI{p}))

	p.Name = "Renamed"
	require.NoError(t, cat.ImportPOIs("singapore", []model.POI{p}))

	out, err := cat.FetchCandidates(context.Background(), baseQuery())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Renamed", out[0].Name)
}

func TestFetchCandidatesQualityFloors(t *testing.T) {
	db := SetupTestDB(t)
	cat := NewCatalog(db)

	low := storedPOI("low", model.RoleAttraction)
	lowRating := 1.5
	low.Rating = &lowRating

	unrated := storedPOI("unrated", model.RoleAttraction)
	unrated.Rating = nil
	unrated.ReviewCount = nil

	thin := storedPOI("thin", model.RoleAttraction)
	thinReviews := 3
	thin.ReviewCount = &thinReviews

	good := storedPOI("good", model.RoleAttraction)

	require.NoError(t, cat.ImportPOIs("singapore", []model.POI{low, unrated, thin, good}))

	out, err := cat.FetchCandidates(context.Background(), baseQuery())
	require.NoError(t, err)

	ids := candidateIDs(out)
	assert.NotContains(t, ids, "low")
	assert.NotContains(t, ids, "thin")
	// missing metadata never disqualifies a row
	assert.Contains(t, ids, "unrated")
	assert.Contains(t, ids, "good")
}

func TestFetchCandidatesScopedToDestination(t *testing.T) {
	db := SetupTestDB(t)
	cat := NewCatalog(db)

	require.NoError(t, cat.ImportPOIs("singapore", []model.POI{storedPOI("sg", model.RoleAttraction)}))
	require.NoError(t, cat.ImportPOIs("tokyo", []model.POI{storedPOI("jp", model.RoleAttraction)}))

	out, err := cat.FetchCandidates(context.Background(), baseQuery())
	require.NoError(t, err)
	assert.Equal(t, []string{"sg"}, candidateIDs(out))
}

func TestFetchCandidatesHalalOnly(t *testing.T) {
	db := SetupTestDB(t)
	cat := NewCatalog(db)

	halal := storedPOI("halal", model.RoleMeal)
	halal.HalalFood = true
	plain := storedPOI("plain", model.RoleMeal)
	museum := storedPOI("museum", model.RoleAttraction, "cultural_history")

	require.NoError(t, cat.ImportPOIs("singapore", []model.POI{halal, plain, museum}))

	q := baseQuery()
	q.HalalOnly = true
	out, err := cat.FetchCandidates(context.Background(), q)
	require.NoError(t, err)

	ids := candidateIDs(out)
	assert.Contains(t, ids, "halal")
	assert.NotContains(t, ids, "plain")
	// the filter only applies to meal candidates
	assert.Contains(t, ids, "museum")
}

func TestFetchCandidatesThemeExclusions(t *testing.T) {
	db := SetupTestDB(t)
	cat := NewCatalog(db)

	require.NoError(t, cat.ImportPOIs("singapore", []model.POI{
		storedPOI("bar", model.RoleAttraction, "nightlife"),
		storedPOI("casino", model.RoleAttraction, "Gambling"),
		storedPOI("park", model.RoleAttraction, "nature"),
	}))

	q := baseQuery()
	q.ExcludeNightlife = true
	q.ExcludedThemes = []string{"gambling"}
	out, err := cat.FetchCandidates(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"park"}, candidateIDs(out))
}

func TestFetchCandidatesWheelchairOnly(t *testing.T) {
	db := SetupTestDB(t)
	cat := NewCatalog(db)

	accessible := storedPOI("ramp", model.RoleAttraction)
	accessible.WheelchairAccessibleEntrance = true
	stairs := storedPOI("stairs", model.RoleAttraction)

	require.NoError(t, cat.ImportPOIs("singapore", []model.POI{accessible, stairs}))

	q := baseQuery()
	q.WheelchairOnly = true
	out, err := cat.FetchCandidates(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"ramp"}, candidateIDs(out))
}

func candidateIDs(pois []model.POI) []string {
	ids := make([]string, len(pois))
	for i, p := range pois {
		ids[i] = p.ID
	}
	return ids
}
