package geospatial

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// ValidateBoundary validates a GeoJSON feature string describing a parcel
// boundary and returns its geometry.
func ValidateBoundary(geojsonStr string) (orb.Geometry, error) {
	feature, err := geojson.UnmarshalFeature([]byte(geojsonStr))
	if err != nil {
		return nil, err
	}
	if feature.Geometry == nil {
		return nil, errors.New("invalid GeoJSON: no geometry")
	}
	return feature.Geometry, nil
}

// NewPoint builds a lng/lat point, validating coordinate ranges.
func NewPoint(lng, lat float64) (orb.Point, error) {
	if lng < -180 || lng > 180 {
		return orb.Point{}, errors.New("longitude out of range")
	}
	if lat < -90 || lat > 90 {
		return orb.Point{}, errors.New("latitude out of range")
	}
	return orb.Point{lng, lat}, nil
}

// DistanceKm returns the great-circle distance between two points in kilometers.
func DistanceKm(a, b orb.Point) float64 {
	return geo.Distance(a, b) / 1000
}

// BoundaryAreaSqM returns the geodesic area of a geometry in square meters.
func BoundaryAreaSqM(geometry orb.Geometry) float64 {
	return geo.Area(geometry)
}
