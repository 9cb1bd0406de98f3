package ride

import (
	"errors"
	"regexp"
	"testing"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
)

func TestRecommendedFare(t *testing.T) {
	tests := []struct {
		vehicle types.VehicleType
		km      float64
		want    int
	}{
		{types.VehicleCabEconomy, 5, 70},
		{types.VehicleCabEconomy, 4.9, 69},
		{types.VehicleCabEconomy, 5.01, 70},
		{types.VehicleCabEconomy, 5.1, 71},
		{types.VehicleCabEconomy, 5.26, 73},
		{types.VehicleCabEconomy, 0.5, 50},
		{types.VehicleBike, 0, 25},
		{types.VehicleBike, 10, 60},
		{types.VehicleBike, 3.5, 28},
		{types.VehicleAuto, 3, 36},
		{types.VehicleCabPremium, 1, 70},
		{types.VehicleCabPremium, 3, 75},
		{types.VehiclePickupTruck, 12, 290},
		{types.VehicleContainerTruck, -3, 700},
	}

	for _, tt := range tests {
		got, err := RecommendedFare(tt.vehicle, tt.km)
		if err != nil {
			t.Fatalf("%s %.2f km: %v", tt.vehicle, tt.km, err)
		}
		if got != tt.want {
			t.Errorf("%s %.2f km = %d, want %d", tt.vehicle, tt.km, got, tt.want)
		}
	}

	if _, err := RecommendedFare("rocket", 1); !errors.Is(err, types.ErrUnknownVehicle) {
		t.Errorf("unknown vehicle err = %v", err)
	}
}

func TestGenerateOTP(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{4}$`)
	for range 200 {
		otp, err := generateOTP()
		if err != nil {
			t.Fatal(err)
		}
		if !digits.MatchString(otp) {
			t.Fatalf("otp %q is not 4 digits", otp)
		}
	}
}

func TestLockMap_ReleasesEntries(t *testing.T) {
	m := newLockMap()
	id := [16]byte{1}

	unlock := m.Lock(id)
	if m.size() != 1 {
		t.Fatalf("size = %d, want 1", m.size())
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Lock(id)()
	}()

	unlock()
	<-done

	if m.size() != 0 {
		t.Errorf("size = %d, want 0", m.size())
	}
}
