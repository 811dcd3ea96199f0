package selector

import "testing"

func TestParseGeoBoxIsWellFormed(t *testing.T) {
	box, err := ParseGeoBox("u4pruydqqvj")
	if err != nil {
		t.Fatal(err)
	}
	// Only the shape of the box is asserted: each minimum lies strictly
	// below its maximum.
	if box.MinLat >= box.MaxLat || box.MinLng >= box.MaxLng {
		t.Fatalf("degenerate box: %+v", box)
	}
}

func TestGeoBoxFromParamsAbsent(t *testing.T) {
	_, ok, err := GeoBoxFromParams(nil, "geohash")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected ok=false for absent key")
	}
}

func TestGeoBoxFromParamsPresent(t *testing.T) {
	params := ParseParams("geohash=gbsuv;other=1")
	box, ok, err := GeoBoxFromParams(params, "geohash")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if box.MinLat >= box.MaxLat {
		t.Fatalf("degenerate box: %+v", box)
	}
}

func TestParseGeoBoxRejectsEmpty(t *testing.T) {
	if _, err := ParseGeoBox(""); err == nil {
		t.Fatal("expected error for empty geohash")
	}
}
