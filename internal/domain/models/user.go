package models

import (
	"context"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

// User is the authenticated caller, taken from the access token
type User struct {
	ID   uuid.UUID      `json:"id"`
	Role types.UserRole `json:"role"`
}

func AnonymousUser() *User {
	return &User{Role: types.RoleAnonymous}
}

func (u *User) IsAnonymous() bool {
	return u == nil || u.Role == types.RoleAnonymous
}

type userCtxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns user stored by auth middleware, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Profile is public user info. Drivers carry a snapshot of it while on duty.
type Profile struct {
	ID               uuid.UUID      `json:"id"`
	Role             types.UserRole `json:"role"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"`
	Rating           float64        `json:"rating"`
	RatingCount      int            `json:"rating_count"`
	TotalRides       int            `json:"total_rides"`
	AcceptanceRate   float64        `json:"acceptance_rate"`
	CancellationRate float64        `json:"cancellation_rate"`
	Vehicle          *Vehicle       `json:"vehicle,omitempty"`
}

type Vehicle struct {
	Type  types.VehicleType `json:"type"`
	Plate string            `json:"plate,omitempty"`
	Model string            `json:"model,omitempty"`
}

const (
	DefaultRating           = 4.8
	DefaultAcceptanceRate   = 95
	DefaultCancellationRate = 3
)

// ApplyRating updates running average: newAvg = (oldAvg*oldCount + rating) / (oldCount+1).
func (p *Profile) ApplyRating(rating int) {
	p.Rating = (p.Rating*float64(p.RatingCount) + float64(rating)) / float64(p.RatingCount+1)
	p.RatingCount++
}
