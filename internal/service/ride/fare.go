package ride

import (
	"math"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
)

type rate struct {
	base    float64
	perKm   float64
	minimum float64
}

// тарифы по классу транспорта
var rates = map[types.VehicleType]rate{
	types.VehicleBike:           {base: 10, perKm: 5, minimum: 25},
	types.VehicleAuto:           {base: 15, perKm: 7, minimum: 30},
	types.VehicleCabEconomy:     {base: 20, perKm: 10, minimum: 50},
	types.VehicleCabPremium:     {base: 30, perKm: 15, minimum: 70},
	types.VehiclePickupTruck:    {base: 50, perKm: 20, minimum: 150},
	types.VehicleMiniTruck:      {base: 80, perKm: 25, minimum: 200},
	types.VehicleLargeTruck:     {base: 150, perKm: 40, minimum: 400},
	types.VehicleContainerTruck: {base: 250, perKm: 60, minimum: 700},
}

// RecommendedFare = max(base + perKm*km, minimum), rounded once to a whole amount.
func RecommendedFare(vehicle types.VehicleType, distanceKm float64) (int, error) {
	r, ok := rates[vehicle]
	if !ok {
		return 0, types.ErrUnknownVehicle
	}
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		distanceKm = 0
	}

	fare := r.base + r.perKm*distanceKm
	return int(math.Round(max(fare, r.minimum))), nil
}

func IsKnownVehicle(v types.VehicleType) bool {
	_, ok := rates[v]
	return ok
}
