package dto

import (
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/support"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
	"github.com/google/uuid"
)

type AddContactRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"required,max=20"`
	Relationship string `json:"relationship" validate:"max=50"`
}

func (r *AddContactRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *AddContactRequest) ToInput() support.ContactInput {
	return support.ContactInput{Name: r.Name, Phone: r.Phone, Relationship: r.Relationship}
}

type CreateTicketRequest struct {
	RideID      string `json:"ride_id" validate:"omitempty,uuid"`
	Category    string `json:"category" validate:"omitempty,oneof=late_arrival unsafe_driving fare_dispute app_issue other"`
	Description string `json:"description" validate:"required,max=2000"`
}

func (r *CreateTicketRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

// ToInput expects a validated request.
func (r *CreateTicketRequest) ToInput() support.TicketInput {
	in := support.TicketInput{
		Category:    types.TicketCategory(r.Category),
		Description: r.Description,
	}
	if id, err := uuid.Parse(r.RideID); err == nil {
		in.RideID = &id
	}
	return in
}
