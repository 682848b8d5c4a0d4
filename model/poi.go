// Package model holds the shared vocabulary of the planning pipeline:
// catalog POIs, user requests, and generated plans.
package model

// POI roles. A catalog entry may carry several.
const (
	RoleAttraction    = "attraction"
	RoleMeal          = "meal"
	RoleAccommodation = "accommodation"
	RoleDepot         = "depot"
)

// Coordinates is a WGS84 decimal-degree pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OpenHours maps a weekday name ("Monday") to raw opening labels as
// scraped from the catalog, e.g. "9 am-6 pm", "closed", "open 24 hours".
type OpenHours map[string][]string

// POI is a catalog entity, immutable within one request
type POI struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Roles       []string     `json:"roles"`
	Themes      []string     `json:"themes"`
	Coordinates *Coordinates `json:"coordinates"`
	// Rating in [0,5]; nil when the catalog has no reviews
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	// PriceLevel in {1,2,3,4}; nil when unknown
	PriceLevel *int      `json:"price_level,omitempty"`
	OpenHours  OpenHours `json:"open_hours,omitempty"`

	KidsFriendly                 bool `json:"kids_friendly"`
	PetsFriendly                 bool `json:"pets_friendly"`
	HalalFood                    bool `json:"halal_food"`
	VeganOptions                 bool `json:"vegan_options"`
	VegetarianOptions            bool `json:"vegetarian_options"`
	WheelchairAccessibleEntrance bool `json:"wheelchair_accessible_entrance"`
	WheelchairAccessibleSeating  bool `json:"wheelchair_accessible_seating"`
	WheelchairAccessibleToilet   bool `json:"wheelchair_accessible_toilet"`
}

// HasRole reports whether the POI carries the given role
func (p *POI) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasTheme reports whether the POI carries the given theme tag
func (p *POI) HasTheme(theme string) bool {
	for _, t := range p.Themes {
		if t == theme {
			return true
		}
	}
	return false
}

// AnyAccessible reports whether any wheelchair attribute is set
func (p *POI) AnyAccessible() bool {
	return p.WheelchairAccessibleEntrance || p.WheelchairAccessibleSeating || p.WheelchairAccessibleToilet
}
