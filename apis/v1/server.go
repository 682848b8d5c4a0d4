// Package v1 exposes the planning pipeline and itinerary store over a
// JSON HTTP API.
package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	logcontext "github.com/fikatrip/planner/context"
	"github.com/fikatrip/planner/log"
	"github.com/fikatrip/planner/model"
	"github.com/fikatrip/planner/orm"
	"github.com/fikatrip/planner/pipeline"
)

// Server holds the request handlers' dependencies
type Server struct {
	planner *pipeline.Planner
	store   *orm.ItineraryStore
}

// NewServer creates the API server over a planner and a store
func NewServer(planner *pipeline.Planner, store *orm.ItineraryStore) *Server {
	return &Server{planner: planner, store: store}
}

// RegisterRoutes attaches all handlers to the router
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Use(requestIDMiddleware)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/itinerary/create", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/itinerary/optimize", s.handleOptimize).Methods(http.MethodPost)
	r.HandleFunc("/api/itinerary", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/itinerary/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/api/itinerary/{id}", s.handleDelete).Methods(http.MethodDelete)
}

// CORSMiddleware allows cross-origin calls from the web frontend
func CORSMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := logcontext.NewRequestID()
		ctx := logcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createResponse struct {
	ID   string      `json:"id"`
	Plan *model.Plan `json:"plan"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var intake model.IntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&intake); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	plan, err := s.planner.Plan(ctx, &intake)
	if err != nil {
		log.Errorf(ctx, "Planning failed: %v", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	rec, err := s.store.Save(&intake, plan)
	if err != nil {
		log.Errorf(ctx, "Failed to save itinerary: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save itinerary")
		return
	}
	writeJSON(w, http.StatusOK, createResponse{ID: rec.ID, Plan: plan})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := s.store.Get(id)
	if errors.Is(err, orm.ErrNotFound) {
		writeError(w, http.StatusNotFound, "itinerary not found")
		return
	}
	if err != nil {
		log.Errorf(r.Context(), "Failed to load itinerary %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load itinerary")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(0)
	if err != nil {
		log.Errorf(r.Context(), "Failed to list itineraries: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list itineraries")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := s.store.Delete(id)
	if errors.Is(err, orm.ErrNotFound) {
		writeError(w, http.StatusNotFound, "itinerary not found")
		return
	}
	if err != nil {
		log.Errorf(r.Context(), "Failed to delete itinerary %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete itinerary")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type optimizeRequest struct {
	Stops []model.Stop `json:"stops"`
}

type optimizeResponse struct {
	Stops []model.Stop `json:"stops"`
}

// handleOptimize re-sequences a single day's stops without replanning
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	writeJSON(w, http.StatusOK, optimizeResponse{Stops: pipeline.ReorderNearest(req.Stops)})
}

func statusForError(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindInvalidRequest:
		return http.StatusBadRequest
	case pipeline.KindDataSource:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
