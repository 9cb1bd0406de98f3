package dto

import (
	"github.com/Temutjin2k/ride-bidding/internal/service/ride"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
)

type SubmitOfferRequest struct {
	OfferedFare      float64 `json:"offered_fare" validate:"gt=0"`
	ETA              int     `json:"eta" validate:"gte=0,lte=600"`
	DistanceToPickup float64 `json:"distance_to_pickup" validate:"gte=0"`
}

func (r *SubmitOfferRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *SubmitOfferRequest) ToInput() ride.OfferInput {
	return ride.OfferInput{
		OfferedFare:      r.OfferedFare,
		ETA:              r.ETA,
		DistanceToPickup: r.DistanceToPickup,
	}
}

type CounterOfferRequest struct {
	Amount  float64 `json:"amount" validate:"gt=0"`
	Message string  `json:"message" validate:"max=255"`
}

func (r *CounterOfferRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *CounterOfferRequest) ToInput() ride.CounterInput {
	return ride.CounterInput{
		Amount:  r.Amount,
		Message: r.Message,
	}
}
