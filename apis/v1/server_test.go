package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikatrip/planner/apis/v1/testutils"
	"github.com/fikatrip/planner/maut"
	"github.com/fikatrip/planner/model"
	"github.com/fikatrip/planner/orm"
	"github.com/fikatrip/planner/osrm"
	"github.com/fikatrip/planner/pipeline"
)

type fakeCatalog struct {
	rows []model.POI
}

func (f *fakeCatalog) FetchCandidates(_ context.Context, _ maut.CandidateQuery) ([]model.POI, error) {
	return f.rows, nil
}

type fakeTravel struct{}

func (fakeTravel) MatrixMinutes(_ context.Context, coords [][2]float64) [][]int {
	return osrm.HaversineMatrix(coords, osrm.MatrixFallbackSpeedKmh)
}

func (fakeTravel) Available(_ context.Context) bool { return true }

func (fakeTravel) Distance(_ context.Context, lat1, lon1, lat2, lon2 float64) float64 {
	return osrm.HaversineKm(lat1, lon1, lat2, lon2)
}

func apiPOI(id, role string, lat, lng float64, themes ...string) model.POI {
	rating := 4.1
	reviews := 200
	return model.POI{
		ID:          id,
		Name:        "POI " + id,
		Roles:       []string{role},
		Themes:      themes,
		Coordinates: &model.Coordinates{Lat: lat, Lng: lng},
		Rating:      &rating,
		ReviewCount: &reviews,
	}
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	catalog := &fakeCatalog{rows: []model.POI{
		apiPOI("hotel-1", model.RoleAccommodation, 1.2903, 103.852),
		apiPOI("att-1", model.RoleAttraction, 1.2966, 103.854, "nature"),
		apiPOI("att-2", model.RoleAttraction, 1.3010, 103.860, "cultural_history"),
		apiPOI("meal-1", model.RoleMeal, 1.2920, 103.850),
	}}

	planner := pipeline.NewPlanner(catalog, fakeTravel{}, 5*time.Second)
	store := orm.NewItineraryStore(testutils.SetupTestDB(t))

	r := mux.NewRouter()
	NewServer(planner, store).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func planRequest() *model.IntakeRequest {
	return &model.IntakeRequest{
		Destination: "singapore",
		NumDays:     1,
		Preferences: model.Preferences{Interests: []string{"nature"}},
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCreateItinerary(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/itinerary/create", planRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	require.NotNil(t, resp.Plan)
	require.Len(t, resp.Plan.Days, 1)
	assert.NotEmpty(t, resp.Plan.Days[0].Stops)
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/itinerary/create", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/itinerary/create", &model.IntakeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAndDeleteItinerary(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/itinerary/create", planRequest())
	require.Equal(t, http.StatusOK, rec.Code)
	var created createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodGet, "/api/itinerary/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded orm.ItineraryRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "singapore", loaded.Destination)

	rec = doJSON(t, router, http.MethodDelete, "/api/itinerary/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/itinerary/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUnknownItinerary(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/api/itinerary/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListItineraries(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/itinerary/create", planRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/itinerary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []orm.ItineraryRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	assert.Len(t, recs, 1)
}

func TestOptimizeReordersStops(t *testing.T) {
	router := newTestRouter(t)
	body := optimizeRequest{Stops: []model.Stop{
		{POIID: "d", Role: model.RoleDepot, Lat: 0, Lon: 0},
		{POIID: "far", Role: model.RoleAttraction, Lat: 0.5, Lon: 0.5},
		{POIID: "near", Role: model.RoleAttraction, Lat: 0.1, Lon: 0.1},
		{POIID: "mid", Role: model.RoleAttraction, Lat: 0.3, Lon: 0.3},
		{POIID: "d", Role: model.RoleDepot, Lat: 0, Lon: 0},
	}}

	rec := doJSON(t, router, http.MethodPost, "/api/itinerary/optimize", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp optimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Stops, 5)
	ids := make([]string, len(resp.Stops))
	for i, s := range resp.Stops {
		ids[i] = s.POIID
	}
	assert.Equal(t, []string{"d", "near", "mid", "far", "d"}, ids)
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/itinerary", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
