// Package maut scores candidate POIs with a multi-attribute utility
// model and trims them by role quota with theme balance.
package maut

import (
	"context"
	"fmt"
	"sort"

	"github.com/fikatrip/planner/log"
	"github.com/fikatrip/planner/model"
)

// fallbackThemes pads the user's interests to exactly three
var fallbackThemes = []string{"shopping", "cultural_history", "nature"}

// Scored pairs a POI with its utility in [0, 1]
type Scored struct {
	POI   model.POI
	Score float64
}

// Selection is the selector output consumed by the CVRPTW builder
type Selection struct {
	// Places holds all kept POIs sorted by score descending
	Places []Scored
	// ByRole splits the kept POIs into attraction/meal/accommodation streams
	ByRole map[string][]Scored
	// SelectedThemes is the padded three-theme list
	SelectedThemes []string
	CountIn        int
	CountOut       int
	// Hotel is the top-scored pure accommodation, if any
	Hotel *Scored
}

// Selector runs MAUT scoring over catalog candidates
type Selector struct {
	catalog Catalog
}

// NewSelector creates a Selector backed by the given catalog oracle
func NewSelector(catalog Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// DeriveSelectedThemes dedupes the interests and pads to three themes
func DeriveSelectedThemes(interests []string) []string {
	themes := make([]string, 0, 3)
	seen := make(map[string]bool)
	for _, t := range interests {
		if !seen[t] {
			seen[t] = true
			themes = append(themes, t)
		}
	}
	for _, f := range fallbackThemes {
		if len(themes) >= 3 {
			break
		}
		if !seen[f] {
			seen[f] = true
			themes = append(themes, f)
		}
	}
	if len(themes) > 3 {
		themes = themes[:3]
	}
	return themes
}

// Select fetches, scores, and trims candidates for the request. It
// returns a well-formed empty selection when nothing qualifies and an
// error only on oracle failure.
func (s *Selector) Select(ctx context.Context, req *model.Request) (*Selection, error) {
	themes := DeriveSelectedThemes(req.InterestThemes)

	q := CandidateQuery{
		Destination:      req.Destination,
		Themes:           themes,
		Quotas:           QuotasForDays(req.NumDays),
		MinRating:        MinRating,
		MinReviews:       MinReviews,
		HalalOnly:        req.Flags.IsMuslim,
		WheelchairOnly:   req.Flags.WheelchairAccessible,
		ExcludedThemes:   req.ExcludedThemes,
		ExcludeNightlife: req.Flags.ExcludeNightlife,
		SeedLat:          req.SeedLat,
		SeedLon:          req.SeedLon,
	}

	rows, err := s.catalog.FetchCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch failed: %w", err)
	}

	scored := make([]Scored, 0, len(rows))
	for i := range rows {
		p := rows[i]
		// Entries without coordinates cannot be routed
		if p.Coordinates == nil {
			continue
		}
		scored = append(scored, Scored{POI: p, Score: ScorePOI(req, &p, themes)})
	}

	byRole := trimByRole(scored, q.Quotas, themes)

	var places []Scored
	for _, role := range []string{model.RoleAttraction, model.RoleMeal, model.RoleAccommodation} {
		places = append(places, byRole[role]...)
	}
	sort.SliceStable(places, func(i, j int) bool { return places[i].Score > places[j].Score })

	sel := &Selection{
		Places:         places,
		ByRole:         byRole,
		SelectedThemes: themes,
		CountIn:        len(rows),
		CountOut:       len(places),
	}
	if accom := byRole[model.RoleAccommodation]; len(accom) > 0 {
		hotel := accom[0]
		sel.Hotel = &hotel
	}

	log.Infof(ctx, "MAUT selection: %d in, %d out (attraction=%d meal=%d accommodation=%d)",
		sel.CountIn, sel.CountOut,
		len(byRole[model.RoleAttraction]), len(byRole[model.RoleMeal]), len(byRole[model.RoleAccommodation]))

	return sel, nil
}

// trimByRole applies role quotas with theme balance for attractions.
// Accommodation and meal streams are picked first so that a multi-role
// POI lands in its scarcer stream.
func trimByRole(scored []Scored, quotas RoleQuotas, themes []string) map[string][]Scored {
	streams := map[string][]Scored{
		model.RoleAttraction:    nil,
		model.RoleMeal:          nil,
		model.RoleAccommodation: nil,
	}

	for _, sc := range scored {
		p := &sc.POI
		if p.HasRole(model.RoleMeal) {
			streams[model.RoleMeal] = append(streams[model.RoleMeal], sc)
		}
		if p.HasRole(model.RoleAccommodation) && !p.HasRole(model.RoleAttraction) && !p.HasRole(model.RoleMeal) {
			streams[model.RoleAccommodation] = append(streams[model.RoleAccommodation], sc)
		}
		if p.HasRole(model.RoleAttraction) || len(p.Roles) == 0 {
			streams[model.RoleAttraction] = append(streams[model.RoleAttraction], sc)
		}
	}

	for role := range streams {
		s := streams[role]
		sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
	}

	result := map[string][]Scored{}
	seen := make(map[string]bool)

	greedyPick := func(role string, quota int) {
		var kept []Scored
		for _, sc := range streams[role] {
			if len(kept) >= quota {
				break
			}
			if seen[sc.POI.ID] {
				continue
			}
			kept = append(kept, sc)
			seen[sc.POI.ID] = true
		}
		result[role] = kept
	}

	greedyPick(model.RoleAccommodation, quotas.Accommodation)
	greedyPick(model.RoleMeal, quotas.Meal)

	// Attractions: divide the quota into per-theme buckets, floor plus
	// remainder spread left to right, then top up from the global ranking.
	attractions := streams[model.RoleAttraction]
	quota := quotas.Attraction
	if len(themes) == 0 || len(attractions) == 0 {
		greedyPick(model.RoleAttraction, quota)
		return result
	}

	perTheme := quota / len(themes)
	remainder := quota % len(themes)

	byTheme := make(map[string][]Scored, len(themes))
	for _, sc := range attractions {
		if seen[sc.POI.ID] {
			continue
		}
		for _, theme := range themes {
			if sc.POI.HasTheme(theme) {
				byTheme[theme] = append(byTheme[theme], sc)
				break
			}
		}
	}

	var kept []Scored
	for i, theme := range themes {
		themeQuota := perTheme
		if i < remainder {
			themeQuota++
		}
		picked := 0
		for _, sc := range byTheme[theme] {
			if picked >= themeQuota {
				break
			}
			if seen[sc.POI.ID] {
				continue
			}
			kept = append(kept, sc)
			seen[sc.POI.ID] = true
			picked++
		}
	}

	if len(kept) < quota {
		for _, sc := range attractions {
			if len(kept) >= quota {
				break
			}
			if seen[sc.POI.ID] {
				continue
			}
			kept = append(kept, sc)
			seen[sc.POI.ID] = true
		}
	}

	result[model.RoleAttraction] = kept
	return result
}
