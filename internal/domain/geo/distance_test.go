package geo

import (
	"math"
	"testing"
)

func almost(a, b, eps float64) bool {
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestHaversine_SamePoint(t *testing.T) {
	d := Haversine(40.7128, -74.0060, 40.7128, -74.0060)
	if d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestHaversine_NewYork_London(t *testing.T) {
	d := Haversine(40.7128, -74.0060, 51.5074, -0.1278)
	if !almost(d, 5570, 10) {
		t.Fatalf("want ~5570 km, got %f", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	d1 := Haversine(37.7749, -122.4194, 34.0522, -118.2437)
	d2 := Haversine(34.0522, -118.2437, 37.7749, -122.4194)
	if !almost(d1, d2, 1e-9) {
		t.Fatalf("asymmetric: %f vs %f", d1, d2)
	}
}

func TestDistanceKm_SamePoint(t *testing.T) {
	p := &Point{Lat: 52.52, Lng: 13.405}
	if d := DistanceKm(p, p); d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestDistanceKm_ShortHop(t *testing.T) {
	// Roughly 1.1 km: one hundredth of a degree of latitude.
	a := &Point{Lat: 40.00, Lng: -74.00}
	b := &Point{Lat: 40.01, Lng: -74.00}
	if d := DistanceKm(a, b); !almost(d, 1.112, 0.01) {
		t.Fatalf("want ~1.112 km, got %f", d)
	}
}

func TestDistanceKm_Degenerate(t *testing.T) {
	p := &Point{Lat: 10, Lng: 10}
	tests := []struct {
		name string
		a, b *Point
	}{
		{"nil a", nil, p},
		{"nil b", p, nil},
		{"both nil", nil, nil},
		{"nan lat", &Point{Lat: math.NaN(), Lng: 0}, p},
		{"nan lng", p, &Point{Lat: 0, Lng: math.NaN()}},
		{"inf lat", &Point{Lat: math.Inf(1), Lng: 0}, p},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if d := DistanceKm(tc.a, tc.b); !math.IsInf(d, 1) {
				t.Fatalf("want +Inf, got %f", d)
			}
		})
	}
}

func TestPoint_Valid(t *testing.T) {
	tests := []struct {
		name string
		p    *Point
		want bool
	}{
		{"nil", nil, false},
		{"origin", &Point{}, true},
		{"max corners", &Point{Lat: 90, Lng: 180}, true},
		{"lat out of range", &Point{Lat: 91, Lng: 0}, false},
		{"lng out of range", &Point{Lat: 0, Lng: -181}, false},
		{"nan", &Point{Lat: math.NaN(), Lng: 0}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}
