package utils

import "math"

const earthRadiusMeters = 6371000

// PositionJitterDegrees is roughly 50 meters of latitude. Position
// fixes closer than this on both axes are treated as GPS noise.
const PositionJitterDegrees = 0.0005

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the distance between two GPS coordinates in meters.
func Haversine(startLat, startLng, endLat, endLng float64) float64 {
	phi1 := degToRad(startLat)
	phi2 := degToRad(endLat)
	deltaPhi := degToRad(endLat - startLat)
	deltaLambda := degToRad(endLng - startLng)

	a := math.Pow(math.Sin(deltaPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*
		math.Pow(math.Sin(deltaLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinJitter reports whether two fixes differ by no more than the
// jitter threshold on each axis.
func WithinJitter(lat1, lng1, lat2, lng2 float64) bool {
	return math.Abs(lat1-lat2) <= PositionJitterDegrees &&
		math.Abs(lng1-lng2) <= PositionJitterDegrees
}

// SamplePoints reduces a sequence to at most max entries, always
// keeping the first and last and spacing the rest at uniform index
// intervals. Order is preserved. Sequences at or under max are
// returned unchanged.
func SamplePoints[T any](points []T, max int) []T {
	if max < 2 || len(points) <= max {
		return points
	}

	sampled := make([]T, 0, max)
	sampled = append(sampled, points[0])
	step := float64(len(points)-1) / float64(max-1)
	for i := 1; i < max-1; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx <= 0 {
			idx = 1
		}
		if idx >= len(points)-1 {
			idx = len(points) - 2
		}
		sampled = append(sampled, points[idx])
	}
	sampled = append(sampled, points[len(points)-1])
	return sampled
}
