package osrm

import "math"

const earthRadiusKm = 6371.0

// Default fallback speeds when the routing backend is unavailable
const (
	PairwiseFallbackSpeedKmh = 30.0
	MatrixFallbackSpeedKmh   = 25.0
)

// HaversineKm returns the great-circle distance in km
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := toRad(lat2 - lat1)
	dlon := toRad(lon2 - lon1)
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// HaversineSeconds returns travel time in seconds assuming a constant speed
func HaversineSeconds(lat1, lon1, lat2, lon2, speedKmh float64) float64 {
	return HaversineKm(lat1, lon1, lat2, lon2) / speedKmh * 3600.0
}

// HaversineMatrix builds an NxN travel-time matrix in whole minutes
func HaversineMatrix(coords [][2]float64, speedKmh float64) [][]int {
	n := len(coords)
	matrix := make([][]int, n)
	for i := range matrix {
		matrix[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sec := HaversineSeconds(coords[i][0], coords[i][1], coords[j][0], coords[j][1], speedKmh)
			matrix[i][j] = roundMinutes(sec)
		}
	}
	return matrix
}

func roundMinutes(sec float64) int {
	m := int(math.Round(sec / 60.0))
	if m < 0 {
		return 0
	}
	return m
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
