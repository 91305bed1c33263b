package utils_test

import (
	"math"
	"testing"

	"github.com/supmap/navd/internal/utils"
)

type coords struct {
	lat float64
	lng float64
}

var (
	eiffelTower     = coords{48.8582599, 2.2945006}
	arcDeTriomphe   = coords{48.8737791, 2.2950372}
	montSaintMichel = coords{48.6359541, -1.5114561}
	statueOfLiberty = coords{40.6892494, -74.0445004}
)

func TestHaversine(t *testing.T) {
	t.Parallel()

	// Short distance: Eiffel Tower to Arc de Triomphe
	dist := math.Round(utils.Haversine(eiffelTower.lat, eiffelTower.lng, arcDeTriomphe.lat, arcDeTriomphe.lng))
	if dist != 1726 {
		t.Errorf("expected 1726 meters between the Eiffel Tower and the Arc de Triomphe, got %f", dist)
	}

	// Reverse short distance: Arc de Triomphe to Eiffel Tower
	dist = math.Round(utils.Haversine(arcDeTriomphe.lat, arcDeTriomphe.lng, eiffelTower.lat, eiffelTower.lng))
	if dist != 1726 {
		t.Errorf("expected 1726 meters between the Arc de Triomphe and the Eiffel Tower, got %f", dist)
	}

	// Medium distance: Eiffel Tower to Mont Saint-Michel
	dist = math.Round(utils.Haversine(eiffelTower.lat, eiffelTower.lng, montSaintMichel.lat, montSaintMichel.lng))
	if dist != 280116 {
		t.Errorf("expected 280116 meters between the Eiffel Tower and Mont Saint-Michel, got %f", dist)
	}

	// Long distance: Eiffel Tower to Statue of Liberty
	dist = math.Round(utils.Haversine(eiffelTower.lat, eiffelTower.lng, statueOfLiberty.lat, statueOfLiberty.lng))
	if dist != 5837418 {
		t.Errorf("expected 5837418 meters between the Eiffel Tower and the Statue of Liberty, got %f", dist)
	}
}

func TestWithinJitter(t *testing.T) {
	t.Parallel()

	if !utils.WithinJitter(48.8582599, 2.2945006, 48.8582599, 2.2945006) {
		t.Error("identical fixes should be within jitter")
	}
	if !utils.WithinJitter(48.8582599, 2.2945006, 48.8586599, 2.2949006) {
		t.Error("fixes 0.0004 degrees apart should be within jitter")
	}
	if utils.WithinJitter(48.8582599, 2.2945006, 48.8589599, 2.2945006) {
		t.Error("fixes 0.0007 degrees apart in latitude should not be within jitter")
	}
	if utils.WithinJitter(48.8582599, 2.2945006, 48.8582599, 2.2952006) {
		t.Error("fixes 0.0007 degrees apart in longitude should not be within jitter")
	}
}

func TestSamplePointsShortSequenceUnchanged(t *testing.T) {
	t.Parallel()

	points := make([]int, 50)
	for i := range points {
		points[i] = i
	}
	sampled := utils.SamplePoints(points, 50)
	if len(sampled) != 50 {
		t.Errorf("expected 50 points, got %d", len(sampled))
	}
	for i := range points {
		if sampled[i] != points[i] {
			t.Errorf("expected point %d unchanged, got %d", points[i], sampled[i])
		}
	}
}

func TestSamplePointsLongSequence(t *testing.T) {
	t.Parallel()

	for _, length := range []int{51, 100, 137, 1000} {
		points := make([]int, length)
		for i := range points {
			points[i] = i
		}
		sampled := utils.SamplePoints(points, 50)
		if len(sampled) != 50 {
			t.Errorf("length %d: expected exactly 50 points, got %d", length, len(sampled))
		}
		if sampled[0] != 0 {
			t.Errorf("length %d: expected first point preserved, got %d", length, sampled[0])
		}
		if sampled[len(sampled)-1] != length-1 {
			t.Errorf("length %d: expected last point preserved, got %d", length, sampled[len(sampled)-1])
		}
		for i := 1; i < len(sampled); i++ {
			if sampled[i] < sampled[i-1] {
				t.Errorf("length %d: ordering not preserved at index %d", length, i)
			}
		}
	}
}
