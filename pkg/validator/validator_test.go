package validator

import "testing"

type point struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type request struct {
	Vehicle string  `json:"vehicle" validate:"required,oneof=bike auto"`
	Fare    float64 `json:"fare" validate:"gt=0"`
	Pickup  point   `json:"pickup"`
}

func ptr(f float64) *float64 { return &f }

func TestStruct_ReportsJSONNames(t *testing.T) {
	v := New()
	v.Struct(request{
		Vehicle: "plane",
		Fare:    0,
		Pickup:  point{Latitude: ptr(91), Longitude: nil},
	})

	if v.Valid() {
		t.Fatalf("expected validation errors")
	}

	for _, key := range []string{"vehicle", "fare", "pickup.latitude", "pickup.longitude"} {
		if _, ok := v.Errors[key]; !ok {
			t.Fatalf("missing error for %q, got %v", key, v.Errors)
		}
	}
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	v.Struct(request{
		Vehicle: "bike",
		Fare:    10,
		Pickup:  point{Latitude: ptr(27.7), Longitude: ptr(85.3)},
	})

	if !v.Valid() {
		t.Fatalf("unexpected errors: %v", v.Errors)
	}
}

func TestCheck_FirstMessageWins(t *testing.T) {
	v := New()
	v.Check(false, "otp", "must be provided")
	v.Check(false, "otp", "must be 4 digits")

	if v.Errors["otp"] != "must be provided" {
		t.Fatalf("first message must be kept, got %q", v.Errors["otp"])
	}
}

func TestPermittedValue(t *testing.T) {
	if !PermittedValue("a", "a", "b") {
		t.Fatalf("a is permitted")
	}
	if PermittedValue(3, 1, 2) {
		t.Fatalf("3 is not permitted")
	}
}
