// Package aco refines a single day's visit order with an elitist Ant
// System over Euclidean distances. It is a polish step: callers verify
// the refined order still fits the day's schedule before adopting it.
package aco

import (
	"math"
	"math/rand"
)

// Config holds the colony parameters
type Config struct {
	NAnts      int
	Iterations int
	Alpha      float64 // pheromone exponent
	Beta       float64 // inverse-distance exponent
	Decay      float64 // evaporation rate per iteration
	Q          float64 // deposit numerator
	NBest      int     // elite ants reinforced each iteration
}

// DefaultConfig returns the tuning used by the itinerary refiner
func DefaultConfig() Config {
	return Config{
		NAnts:      20,
		Iterations: 50,
		Alpha:      1.0,
		Beta:       2.0,
		Decay:      0.5,
		Q:          100.0,
		NBest:      5,
	}
}

// Point is a node position in (lat, lon) degrees
type Point struct {
	Lat float64
	Lon float64
}

// Optimizer searches closed tours over a fixed point set
type Optimizer struct {
	cfg Config
	rng *rand.Rand
}

// New creates an Optimizer with a seeded source so runs reproduce
func New(cfg Config, seed int64) *Optimizer {
	return &Optimizer{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Result is the best closed tour found and its length
type Result struct {
	Order   []int
	Length  float64
	History []float64
}

// Solve returns the best tour over the points. Fewer than three points
// have a single tour, which is returned as-is.
func (o *Optimizer) Solve(points []Point) Result {
	n := len(points)
	if n < 3 {
		order := identity(n)
		return Result{Order: order, Length: tourLength(order, distances(points))}
	}

	dist := distances(points)
	pher := make([][]float64, n)
	for i := range pher {
		pher[i] = make([]float64, n)
		for j := range pher[i] {
			pher[i][j] = 1.0 / float64(n)
		}
	}

	best := Result{Length: math.Inf(1)}
	for iter := 0; iter < o.cfg.Iterations; iter++ {
		tours := make([][]int, o.cfg.NAnts)
		lengths := make([]float64, o.cfg.NAnts)
		for a := 0; a < o.cfg.NAnts; a++ {
			tours[a] = o.construct(dist, pher)
			lengths[a] = tourLength(tours[a], dist)
			if lengths[a] < best.Length {
				best.Order = tours[a]
				best.Length = lengths[a]
			}
		}
		o.update(pher, tours, lengths, best)
		best.History = append(best.History, best.Length)
	}
	return best
}

// construct builds one ant's closed tour by roulette selection
func (o *Optimizer) construct(dist, pher [][]float64) []int {
	n := len(dist)
	start := o.rng.Intn(n)
	tour := make([]int, 0, n)
	tour = append(tour, start)
	visited := make([]bool, n)
	visited[start] = true

	cur := start
	weights := make([]float64, n)
	for len(tour) < n {
		var total float64
		for j := 0; j < n; j++ {
			weights[j] = 0
			if visited[j] || j == cur {
				continue
			}
			d := dist[cur][j]
			if d <= 0 {
				// Coincident nodes carry no heuristic pull; the
				// fallback below still visits them.
				continue
			}
			weights[j] = math.Pow(pher[cur][j], o.cfg.Alpha) * math.Pow(1.0/d, o.cfg.Beta)
			total += weights[j]
		}

		next := -1
		if total > 0 {
			r := o.rng.Float64() * total
			for j := 0; j < n; j++ {
				if weights[j] == 0 {
					continue
				}
				r -= weights[j]
				if r <= 0 {
					next = j
					break
				}
			}
		}
		if next < 0 {
			for j := 0; j < n; j++ {
				if !visited[j] {
					next = j
					break
				}
			}
		}
		tour = append(tour, next)
		visited[next] = true
		cur = next
	}
	return tour
}

// update evaporates pheromone, then reinforces the elite ants of this
// iteration and doubles down on the global best.
func (o *Optimizer) update(pher [][]float64, tours [][]int, lengths []float64, best Result) {
	for i := range pher {
		for j := range pher[i] {
			pher[i][j] *= 1.0 - o.cfg.Decay
		}
	}

	elite := rankByLength(lengths)
	if len(elite) > o.cfg.NBest {
		elite = elite[:o.cfg.NBest]
	}
	for _, a := range elite {
		if lengths[a] > 0 {
			deposit(pher, tours[a], o.cfg.Q/lengths[a])
		}
	}
	if best.Order != nil && best.Length > 0 {
		deposit(pher, best.Order, 2.0*o.cfg.Q/best.Length)
	}
}

// deposit spreads amount over every arc of the closed tour
func deposit(pher [][]float64, tour []int, amount float64) {
	for i := range tour {
		a, b := tour[i], tour[(i+1)%len(tour)]
		pher[a][b] += amount
		pher[b][a] += amount
	}
}

// rankByLength returns ant indices sorted by ascending tour length
func rankByLength(lengths []float64) []int {
	idx := identity(len(lengths))
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && lengths[idx[j]] < lengths[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx
}

// distances fills the pairwise Euclidean matrix in degrees
func distances(points []Point) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dx := points[i].Lat - points[j].Lat
			dy := points[i].Lon - points[j].Lon
			dist[i][j] = math.Sqrt(dx*dx + dy*dy)
		}
	}
	return dist
}

// tourLength sums the closed tour's arc lengths
func tourLength(tour []int, dist [][]float64) float64 {
	if len(tour) < 2 {
		return 0
	}
	var total float64
	for i := range tour {
		total += dist[tour[i]][tour[(i+1)%len(tour)]]
	}
	return total
}

// ClosedTourLength measures an arbitrary order as a closed tour over
// the points, in the same Euclidean units Solve optimizes.
func ClosedTourLength(points []Point, order []int) float64 {
	return tourLength(order, distances(points))
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
