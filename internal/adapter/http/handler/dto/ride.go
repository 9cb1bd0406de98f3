package dto

import (
	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/ride"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
)

type PlaceRequest struct {
	Address   string   `json:"address" validate:"required,max=255"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func (p PlaceRequest) ToModel() models.Place {
	return models.Place{
		Address:   p.Address,
		Latitude:  *p.Latitude,
		Longitude: *p.Longitude,
	}
}

type CreateRideRequest struct {
	Vehicle        string         `json:"vehicle" validate:"required,oneof=bike auto cabEconomy cabPremium pickupTruck miniTruck largeTruck containerTruck"`
	ServiceType    string         `json:"service_type" validate:"omitempty,oneof=city intercity delivery freight"`
	ServiceDetails map[string]any `json:"service_details"`
	Pickup         PlaceRequest   `json:"pickup"`
	Drop           PlaceRequest   `json:"drop"`
	ProposedFare   float64        `json:"proposed_fare" validate:"gte=0"`
}

func (r *CreateRideRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *CreateRideRequest) ToInput() ride.CreateInput {
	serviceType := types.ServiceType(r.ServiceType)
	if serviceType == "" {
		serviceType = types.ServiceCity
	}
	return ride.CreateInput{
		Vehicle:        types.VehicleType(r.Vehicle),
		ServiceType:    serviceType,
		ServiceDetails: r.ServiceDetails,
		Pickup:         r.Pickup.ToModel(),
		Drop:           r.Drop.ToModel(),
		ProposedFare:   r.ProposedFare,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ARRIVED START COMPLETED"`
}

func (r *UpdateStatusRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=4,numeric"`
}

func (r *VerifyOTPRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

type RateRequest struct {
	Rating  int      `json:"rating" validate:"required,min=1,max=5"`
	Tags    []string `json:"feedback_tags" validate:"max=10,dive,max=50"`
	Comment string   `json:"comment" validate:"max=500"`
	Tip     int      `json:"tip" validate:"gte=0"`
}

func (r *RateRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *RateRequest) ToInput() ride.RateInput {
	return ride.RateInput{
		Rating:  r.Rating,
		Tags:    r.Tags,
		Comment: r.Comment,
		Tip:     r.Tip,
	}
}

type ListRidesResponse struct {
	Rides    []*models.Ride  `json:"rides"`
	Metadata models.Metadata `json:"metadata"`
}
