package selector

import (
	"github.com/mmcloughlin/geohash"

	"zenoh-go/core/zerr"
)

// GeoBox is a latitude/longitude bounding box decoded from a selector's
// "geohash=" query parameter. It lets a queryable filter samples by
// location without the grammar needing its own geo syntax: the geohash
// string IS the selector parameter value.
type GeoBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether (lat, lng) falls within the box.
func (b GeoBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseGeoBox decodes a geohash string (as found in a "geohash="
// selector parameter) into its bounding box.
func ParseGeoBox(hash string) (GeoBox, error) {
	if hash == "" {
		return GeoBox{}, zerr.New(zerr.InvalidArgument, "empty geohash")
	}
	box := geohash.BoundingBox(hash)
	return GeoBox{
		MinLat: box.MinLat,
		MaxLat: box.MaxLat,
		MinLng: box.MinLng,
		MaxLng: box.MaxLng,
	}, nil
}

// GeoBoxFromParams looks up key in params and decodes its value as a
// geohash, returning ok=false if the key is absent.
func GeoBoxFromParams(params []Param, key string) (GeoBox, bool, error) {
	v, ok := Get(params, key)
	if !ok {
		return GeoBox{}, false, nil
	}
	box, err := ParseGeoBox(v)
	if err != nil {
		return GeoBox{}, false, err
	}
	return box, true, nil
}
