// Package cvrptw formulates and solves the day-assignment problem:
// one vehicle per travel day, opening-hour time windows, meal cadence,
// and soft diversity penalties over a transit-minute matrix.
package cvrptw

import (
	"context"
	"fmt"
	"time"

	"github.com/fikatrip/planner/log"
	"github.com/fikatrip/planner/maut"
	"github.com/fikatrip/planner/model"
	"github.com/fikatrip/planner/osrm"
)

// Service minutes by role and pacing
var serviceTime = map[string]map[string]int{
	model.RoleAttraction:    {model.PacingRelaxed: 120, model.PacingBalanced: 90, model.PacingPacked: 60},
	model.RoleMeal:          {model.PacingRelaxed: 75, model.PacingBalanced: 60, model.PacingPacked: 45},
	model.RoleAccommodation: {model.PacingRelaxed: 0, model.PacingBalanced: 0, model.PacingPacked: 0},
}

// Daily horizon in minutes by pacing; days start at 09:00
var paceDayBudget = map[string]int{
	model.PacingRelaxed:  9 * 60,
	model.PacingBalanced: 11 * 60,
	model.PacingPacked:   13 * 60,
}

// Role-default opening windows applied when the catalog has no hours
var roleDefaultWindow = map[string]Window{
	model.RoleAttraction:    {Open: 9 * 60, Close: 19 * 60},
	model.RoleMeal:          {Open: 10 * 60, Close: 22 * 60},
	model.RoleAccommodation: {Open: 0, Close: MinutesPerDay},
}

const dayStartMin = 9 * 60

// DaySpec is one vehicle's operating envelope
type DaySpec struct {
	DayIndex int
	Date     time.Time
	StartMin int
	EndMin   int
	DepotID  string
}

// Node is one visitable copy of a POI on a specific day. The depot
// (index 0) is the only node available on every day.
type Node struct {
	Idx        int
	ID         string // composite "<poi_id>#day<k>" for POI copies
	BaseID     string
	Name       string
	Role       string
	Lat        float64
	Lon        float64
	ServiceMin int
	Theme      string // primary theme, "" when none
	Mandatory  bool
	// WindowsByDay maps day index to opening windows; POI copies carry
	// exactly one day, the depot carries all.
	WindowsByDay map[int][]Window
}

// Day returns the single day index of a POI copy
func (n *Node) Day() int {
	if n.Role == model.RoleDepot {
		return 0
	}
	for d := range n.WindowsByDay {
		return d
	}
	return 0
}

// Depot is the start/end location of every day, typically the hotel
type Depot struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// Problem is the solver input assembled by the Builder
type Problem struct {
	DaySpecs []DaySpec
	Nodes    []Node
	Transit  [][]int
	// Degraded is set when transit came from the Haversine fallback
	Degraded bool
}

// TransitSource supplies the inter-node travel-time matrix
type TransitSource interface {
	MatrixMinutes(ctx context.Context, coords [][2]float64) [][]int
	Available(ctx context.Context) bool
}

// Builder translates a MAUT selection into a typed CVRPTW problem
type Builder struct {
	travel TransitSource
}

// NewBuilder creates a Builder using the given travel-time source
func NewBuilder(travel TransitSource) *Builder {
	return &Builder{travel: travel}
}

// BuildInput carries the request-level knobs the Builder needs
type BuildInput struct {
	Selection *maut.Selection
	Depot     Depot
	Pacing    string
	NumDays   int
	Dates     *model.Dates
	Mandatory map[string]model.MandatoryVisit
}

// DaySpan returns the (start, end) minutes of a day for the pacing
func DaySpan(pacing string) (int, int) {
	horizon, ok := paceDayBudget[pacing]
	if !ok {
		horizon = paceDayBudget[model.PacingBalanced]
	}
	return dayStartMin, dayStartMin + horizon
}

// ServiceMinutes returns the visit duration for a role under a pacing
func ServiceMinutes(role, pacing string) int {
	if byPace, ok := serviceTime[role]; ok {
		if v, ok := byPace[pacing]; ok {
			return v
		}
		return byPace[model.PacingBalanced]
	}
	return 0
}

// Build materialises day specs, per-(POI, day) nodes, and the transit
// matrix. POIs closed on every trip day are dropped entirely.
func (b *Builder) Build(ctx context.Context, in BuildInput) (*Problem, error) {
	if in.Selection == nil {
		return nil, fmt.Errorf("selection is required")
	}

	start, numDays, err := resolveDates(in.Dates, in.NumDays)
	if err != nil {
		return nil, err
	}

	dStart, dEnd := DaySpan(in.Pacing)
	daySpecs := make([]DaySpec, numDays)
	for k := 0; k < numDays; k++ {
		daySpecs[k] = DaySpec{
			DayIndex: k,
			Date:     start.AddDate(0, 0, k),
			StartMin: dStart,
			EndMin:   dEnd,
			DepotID:  in.Depot.ID,
		}
	}

	depotWindows := make(map[int][]Window, numDays)
	for _, d := range daySpecs {
		depotWindows[d.DayIndex] = []Window{{Open: d.StartMin, Close: d.EndMin}}
	}
	nodes := []Node{{
		Idx:          0,
		ID:           in.Depot.ID,
		BaseID:       in.Depot.ID,
		Name:         in.Depot.Name,
		Role:         model.RoleDepot,
		Lat:          in.Depot.Lat,
		Lon:          in.Depot.Lon,
		WindowsByDay: depotWindows,
	}}

	// Accommodation is served by the depot, so only meals and
	// attractions become routable nodes.
	for _, role := range []string{model.RoleMeal, model.RoleAttraction} {
		for _, sc := range in.Selection.ByRole[role] {
			poiNodes, err := b.materialise(&sc.POI, role, daySpecs, in)
			if err != nil {
				return nil, err
			}
			for _, n := range poiNodes {
				n.Idx = len(nodes)
				nodes = append(nodes, n)
			}
		}
	}

	coords := make([][2]float64, len(nodes))
	for i, n := range nodes {
		coords[i] = [2]float64{n.Lat, n.Lon}
	}
	transit := b.travel.MatrixMinutes(ctx, coords)
	prob := &Problem{
		DaySpecs: daySpecs,
		Nodes:    nodes,
		Transit:  transit,
		Degraded: len(nodes) > osrm.MaxTableNodes || !b.travel.Available(ctx),
	}

	log.Infof(ctx, "CVRPTW problem: %d days, %d nodes (degraded=%v)", numDays, len(nodes), prob.Degraded)
	return prob, nil
}

// materialise builds one node per day the POI is allowed and open
func (b *Builder) materialise(p *model.POI, role string, daySpecs []DaySpec, in BuildInput) ([]Node, error) {
	service := ServiceMinutes(role, in.Pacing)
	theme := primaryTheme(p, in.Selection.SelectedThemes)

	mand, isMandatory := in.Mandatory[p.ID]
	var mandDay int
	var mandWindow Window
	if isMandatory {
		open, err := ParseHHMM(mand.Window[0])
		if err != nil {
			return nil, fmt.Errorf("mandatory window for %s: %w", p.ID, err)
		}
		close, err := ParseHHMM(mand.Window[1])
		if err != nil {
			return nil, fmt.Errorf("mandatory window for %s: %w", p.ID, err)
		}
		if mand.Day < 1 || mand.Day > len(daySpecs) || close <= open {
			return nil, fmt.Errorf("mandatory visit for %s has invalid day/window", p.ID)
		}
		mandDay = mand.Day - 1
		mandWindow = Window{Open: open, Close: close}
	}

	var out []Node
	for _, d := range daySpecs {
		var windows []Window
		if isMandatory {
			if d.DayIndex != mandDay {
				continue
			}
			windows = []Window{mandWindow}
		} else {
			windows = windowsForDay(p, role, d)
			if len(windows) == 0 {
				continue
			}
		}

		out = append(out, Node{
			ID:           fmt.Sprintf("%s#day%d", p.ID, d.DayIndex),
			BaseID:       p.ID,
			Name:         p.Name,
			Role:         role,
			Lat:          p.Coordinates.Lat,
			Lon:          p.Coordinates.Lng,
			ServiceMin:   service,
			Theme:        theme,
			Mandatory:    isMandatory,
			WindowsByDay: map[int][]Window{d.DayIndex: windows},
		})
	}
	return out, nil
}

// windowsForDay intersects the catalog hours for the date with the
// role default and the day envelope. Closed days yield no windows;
// unparseable labels fall back to the role default.
func windowsForDay(p *model.POI, role string, d DaySpec) []Window {
	bounds, ok := intersect(roleDefaultWindow[role], Window{Open: d.StartMin, Close: d.EndMin})
	if !ok {
		return nil
	}

	if p.OpenHours == nil {
		return []Window{bounds}
	}
	labels, present := p.OpenHours[WeekdayName(d.Date)]
	if !present || len(labels) == 0 {
		return []Window{bounds}
	}

	var out []Window
	for _, label := range labels {
		w, closed := ParseTimeRangeLabel(label)
		if closed {
			return nil
		}
		if w == nil {
			continue
		}
		if clipped, ok := intersect(*w, bounds); ok {
			out = append(out, clipped)
		}
	}
	if len(out) == 0 {
		return []Window{bounds}
	}
	return out
}

// primaryTheme picks the first selected theme the POI carries
func primaryTheme(p *model.POI, selected []string) string {
	for _, t := range selected {
		if p.HasTheme(t) {
			return t
		}
	}
	return ""
}

// resolveDates returns the trip start date and day count. Specific
// date spans override the requested day count.
func resolveDates(dates *model.Dates, numDays int) (time.Time, int, error) {
	start := time.Now().Truncate(24 * time.Hour)
	if dates != nil && dates.Type == "specific" && dates.StartDate != "" {
		s, err := time.Parse("2006-01-02", dates.StartDate)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("invalid start date %q: %w", dates.StartDate, err)
		}
		start = s
		if dates.EndDate != "" {
			e, err := time.Parse("2006-01-02", dates.EndDate)
			if err != nil {
				return time.Time{}, 0, fmt.Errorf("invalid end date %q: %w", dates.EndDate, err)
			}
			numDays = int(e.Sub(s).Hours()/24) + 1
		}
	}
	if numDays < 1 {
		return time.Time{}, 0, fmt.Errorf("trip must span at least one day")
	}
	return start, numDays, nil
}
