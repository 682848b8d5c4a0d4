package orm

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fikatrip/planner/model"
)

// ErrNotFound is returned when an itinerary id does not exist
var ErrNotFound = errors.New("itinerary not found")

// ItineraryRecord is a saved plan with the request that produced it
type ItineraryRecord struct {
	ID          string `gorm:"primaryKey"`
	Destination string `gorm:"index"`
	NumDays     int
	Request     *model.IntakeRequest `gorm:"serializer:json"`
	Plan        *model.Plan          `gorm:"serializer:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItineraryStore is the CRUD surface over saved itineraries
type ItineraryStore struct {
	db *gorm.DB
}

// NewItineraryStore creates a store over an open database handle
func NewItineraryStore(db *gorm.DB) *ItineraryStore {
	return &ItineraryStore{db: db}
}

// Save persists a plan and returns its generated id
func (s *ItineraryStore) Save(req *model.IntakeRequest, plan *model.Plan) (*ItineraryRecord, error) {
	rec := &ItineraryRecord{
		ID:          uuid.NewString(),
		Destination: req.Destination,
		NumDays:     len(plan.Days),
		Request:     req,
		Plan:        plan,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// Get loads one itinerary by id
func (s *ItineraryStore) Get(id string) (*ItineraryRecord, error) {
	var rec ItineraryRecord
	err := s.db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns itineraries newest first
func (s *ItineraryStore) List(limit int) ([]ItineraryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []ItineraryRecord
	err := s.db.Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// Delete removes one itinerary by id
func (s *ItineraryStore) Delete(id string) error {
	res := s.db.Delete(&ItineraryRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
