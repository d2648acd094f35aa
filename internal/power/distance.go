// Package power derives the allied power of a city from the populations of
// its allies, discounted by geodesic distance.
package power

import (
	"fmt"
	"math"

	"github.com/tidwall/geodesic"
)

// DistanceFunc returns the surface distance between two coordinates in whole kilometres
type DistanceFunc func(lat1, lon1, lat2, lon2 float64) (int64, error)

// Distance returns the WGS-84 geodesic distance between two points in
// kilometres, rounded half to even.
func Distance(lat1, lon1, lat2, lon2 float64) (int64, error) {
	if err := checkCoordinate(lat1, lon1); err != nil {
		return 0, err
	}
	if err := checkCoordinate(lat2, lon2); err != nil {
		return 0, err
	}

	var meters float64
	geodesic.WGS84.Inverse(lat1, lon1, lat2, lon2, &meters, nil, nil)
	if math.IsNaN(meters) || math.IsInf(meters, 0) {
		return 0, fmt.Errorf("geodesic distance between (%g, %g) and (%g, %g) did not converge", lat1, lon1, lat2, lon2)
	}

	return int64(math.RoundToEven(meters / 1000)), nil
}

func checkCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("coordinate (%g, %g) is not finite", lat, lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %g out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %g out of range [-180, 180]", lon)
	}
	return nil
}
