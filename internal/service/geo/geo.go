// Package geo computes great-circle distances and ranks candidates by distance.
package geo

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
)

const EarthRadiusMeters = 6371000.0

// Validate checks that c is a finite point with lat in [-90,90] and lon in [-180,180].
func Validate(c models.Coordinates) error {
	switch {
	case math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0):
		return fmt.Errorf("%w: latitude is not a number", types.ErrInvalidCoordinate)
	case math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0):
		return fmt.Errorf("%w: longitude is not a number", types.ErrInvalidCoordinate)
	case c.Latitude < -90 || c.Latitude > 90:
		return fmt.Errorf("%w: latitude %v out of range", types.ErrInvalidCoordinate, c.Latitude)
	case c.Longitude < -180 || c.Longitude > 180:
		return fmt.Errorf("%w: longitude %v out of range", types.ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// Distance returns haversine distance between a and b in meters.
func Distance(a, b models.Coordinates) (float64, error) {
	if err := Validate(a); err != nil {
		return 0, err
	}
	if err := Validate(b); err != nil {
		return 0, err
	}
	return haversine(a, b), nil
}

// DistanceKm is Distance in kilometers.
func DistanceKm(a, b models.Coordinates) (float64, error) {
	m, err := Distance(a, b)
	return m / 1000, err
}

func haversine(a, b models.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Ranked is an item with its distance to the query origin, in meters.
type Ranked[T any] struct {
	Item     T
	Distance float64
}

// Within returns items not farther than radius meters from origin, nearest first.
// Items with invalid coordinates are skipped. Equal distances keep input order.
func Within[T any](origin models.Coordinates, radius float64, items []T, coords func(T) models.Coordinates) ([]Ranked[T], error) {
	if err := Validate(origin); err != nil {
		return nil, err
	}

	out := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		p := coords(item)
		if Validate(p) != nil {
			continue
		}
		if d := haversine(origin, p); d <= radius {
			out = append(out, Ranked[T]{Item: item, Distance: d})
		}
	}

	slices.SortStableFunc(out, func(a, b Ranked[T]) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	return out, nil
}
