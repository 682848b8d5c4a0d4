package model

// Budget tiers, each mapping to a target price level 1-4
const (
	BudgetTight    = "tight"
	BudgetSensible = "sensible"
	BudgetUpscale  = "upscale"
	BudgetLuxury   = "luxury"
)

// Pacing profiles controlling the daily horizon and service times
const (
	PacingRelaxed  = "relaxed"
	PacingBalanced = "balanced"
	PacingPacked   = "packed"
)

// Dietary restriction keys
const (
	DietHalal      = "halal"
	DietVegan      = "vegan"
	DietVegetarian = "vegetarian"
)

// Travelers holds the party composition from the intake form
type Travelers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Pets     int `json:"pets"`
}

// Dates describes the requested trip dates. Type is "specific" when
// exact dates are given, otherwise Days carries a flexible duration.
type Dates struct {
	Type      string `json:"type,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Days      int    `json:"days,omitempty"`
}

// Flags are per-request boolean preferences. has_child/has_pets are
// derived from traveler counts; the rest are explicit.
type Flags struct {
	HasChild             bool `json:"has_child"`
	HasPets              bool `json:"has_pets"`
	WheelchairAccessible bool `json:"wheelchair_accessible"`
	IsMuslim             bool `json:"is_muslim"`
	ExcludeNightlife     bool `json:"exclude_nightlife"`
}

// MandatoryVisit pins a POI to a day (1-based) and an HH:MM window
type MandatoryVisit struct {
	Day    int       `json:"day"`
	Window [2]string `json:"window"`
}

// Preferences is the raw preference block from the intake form
type Preferences struct {
	Budget    string   `json:"budget,omitempty"`
	Pacing    string   `json:"pacing,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// IntakeRequest is the raw payload accepted by the API surface before
// normalization into a Request.
type IntakeRequest struct {
	Destination         string                    `json:"destination"`
	NumDays             int                       `json:"num_days,omitempty"`
	Dates               *Dates                    `json:"dates,omitempty"`
	Travelers           Travelers                 `json:"travelers"`
	Preferences         Preferences               `json:"preferences"`
	Flags               Flags                     `json:"flags"`
	DietaryRestrictions []string                  `json:"dietary_restrictions,omitempty"`
	ExcludedThemes      []string                  `json:"excluded_themes,omitempty"`
	SeedLat             *float64                  `json:"seed_lat,omitempty"`
	SeedLon             *float64                  `json:"seed_lon,omitempty"`
	Mandatory           map[string]MandatoryVisit `json:"mandatory,omitempty"`
}

// Request is the normalized planning request consumed by the pipeline
type Request struct {
	Destination         string
	NumDays             int
	Dates               *Dates
	BudgetTier          string
	Pacing              string
	InterestThemes      []string
	Flags               Flags
	DietaryRestrictions []string
	ExcludedThemes      []string
	SeedLat             *float64
	SeedLon             *float64
	Mandatory           map[string]MandatoryVisit
}
