// Package orm persists the POI catalog and saved itineraries with gorm
// and implements the candidate oracle backing the selector.
package orm

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/fikatrip/planner/log"
	"github.com/fikatrip/planner/maut"
	"github.com/fikatrip/planner/model"
)

// CatalogPOI is the stored form of a catalog entry. Collection fields
// are JSON-serialized columns so sqlite and postgres behave the same.
type CatalogPOI struct {
	ID          string `gorm:"primaryKey"`
	Destination string `gorm:"index"`
	Name        string
	Roles       []string        `gorm:"serializer:json"`
	Themes      []string        `gorm:"serializer:json"`
	Lat         *float64
	Lng         *float64
	Rating      *float64
	ReviewCount *int
	PriceLevel  *int
	OpenHours   model.OpenHours `gorm:"serializer:json"`

	KidsFriendly        bool
	PetsFriendly        bool
	HalalFood           bool
	VeganOptions        bool
	VegetarianOptions   bool
	WheelchairEntrance  bool
	WheelchairSeating   bool
	WheelchairToilet    bool
}

// ToModel converts a stored row into the planning entity
func (c *CatalogPOI) ToModel() model.POI {
	p := model.POI{
		ID:                           c.ID,
		Name:                         c.Name,
		Roles:                        c.Roles,
		Themes:                       c.Themes,
		Rating:                       c.Rating,
		ReviewCount:                  c.ReviewCount,
		PriceLevel:                   c.PriceLevel,
		OpenHours:                    c.OpenHours,
		KidsFriendly:                 c.KidsFriendly,
		PetsFriendly:                 c.PetsFriendly,
		HalalFood:                    c.HalalFood,
		VeganOptions:                 c.VeganOptions,
		VegetarianOptions:            c.VegetarianOptions,
		WheelchairAccessibleEntrance: c.WheelchairEntrance,
		WheelchairAccessibleSeating:  c.WheelchairSeating,
		WheelchairAccessibleToilet:   c.WheelchairToilet,
	}
	if c.Lat != nil && c.Lng != nil {
		p.Coordinates = &model.Coordinates{Lat: *c.Lat, Lng: *c.Lng}
	}
	return p
}

// CatalogPOIFromModel converts a planning entity into its stored form
func CatalogPOIFromModel(destination string, p *model.POI) *CatalogPOI {
	c := &CatalogPOI{
		ID:                 p.ID,
		Destination:        destination,
		Name:               p.Name,
		Roles:              p.Roles,
		Themes:             p.Themes,
		Rating:             p.Rating,
		ReviewCount:        p.ReviewCount,
		PriceLevel:         p.PriceLevel,
		OpenHours:          p.OpenHours,
		KidsFriendly:       p.KidsFriendly,
		PetsFriendly:       p.PetsFriendly,
		HalalFood:          p.HalalFood,
		VeganOptions:       p.VeganOptions,
		VegetarianOptions:  p.VegetarianOptions,
		WheelchairEntrance: p.WheelchairAccessibleEntrance,
		WheelchairSeating:  p.WheelchairAccessibleSeating,
		WheelchairToilet:   p.WheelchairAccessibleToilet,
	}
	if p.Coordinates != nil {
		lat, lng := p.Coordinates.Lat, p.Coordinates.Lng
		c.Lat, c.Lng = &lat, &lng
	}
	return c
}

// Catalog is the gorm-backed candidate oracle
type Catalog struct {
	db *gorm.DB
}

// NewCatalog creates a Catalog over an open database handle
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ImportPOIs upserts catalog rows for a destination
func (c *Catalog) ImportPOIs(destination string, pois []model.POI) error {
	for i := range pois {
		row := CatalogPOIFromModel(destination, &pois[i])
		if err := c.db.Save(row).Error; err != nil {
			return err
		}
	}
	return nil
}

// FetchCandidates returns rows for the destination that meet the
// quality floors and the hard preference filters. Quality floors keep
// unrated rows; missing metadata must not exclude a candidate. Role
// mixes are resolved in memory because roles live in a JSON column.
func (c *Catalog) FetchCandidates(ctx context.Context, q maut.CandidateQuery) ([]model.POI, error) {
	var rows []CatalogPOI
	err := c.db.WithContext(ctx).
		Where("destination = ?", q.Destination).
		Where("rating IS NULL OR rating >= ?", q.MinRating).
		Where("review_count IS NULL OR review_count >= ?", q.MinReviews).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(q.ExcludedThemes))
	for _, t := range q.ExcludedThemes {
		excluded[strings.ToLower(t)] = true
	}
	if q.ExcludeNightlife {
		excluded["nightlife"] = true
	}

	out := make([]model.POI, 0, len(rows))
	for i := range rows {
		p := rows[i].ToModel()
		if hasExcludedTheme(&p, excluded) {
			continue
		}
		if q.HalalOnly && p.HasRole(model.RoleMeal) && !p.HalalFood {
			continue
		}
		if q.WheelchairOnly && !p.AnyAccessible() {
			continue
		}
		out = append(out, p)
	}
	log.Debugf(ctx, "catalog: %d rows for %q, %d after filters", len(rows), q.Destination, len(out))
	return out, nil
}

func hasExcludedTheme(p *model.POI, excluded map[string]bool) bool {
	if len(excluded) == 0 {
		return false
	}
	for _, t := range p.Themes {
		if excluded[strings.ToLower(t)] {
			return true
		}
	}
	return false
}
