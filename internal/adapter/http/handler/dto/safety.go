package dto

import (
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
)

type ShareRequest struct {
	SharedWith []string `json:"shared_with" validate:"max=5,dive,required,max=100"`
	// minutes, zero means default link lifetime
	ExpiresIn int `json:"expires_in" validate:"gte=0,lte=1440"`
}

func (r *ShareRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *ShareRequest) TTL() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Minute
}

type SOSRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"required_with=Latitude,omitempty,longitude"`
}

func (r *SOSRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

// Location is nil when client didn't send coordinates.
func (r *SOSRequest) Location() *models.Coordinates {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &models.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
}
