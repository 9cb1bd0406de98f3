package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("secret")
	user := &models.User{ID: uuid.New(), Role: types.RoleRider}

	token, err := s.Issue(user, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Validate(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID || got.Role != user.Role {
		t.Fatalf("got %+v, want %+v", got, user)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	s := NewTokenService("secret")
	user := &models.User{ID: uuid.New(), Role: types.RoleCustomer}

	expired, err := s.Issue(user, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := NewTokenService("other").Issue(user, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    "admin",
		"exp":     time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    "customer",
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, ErrExpToken},
		{"wrong secret", foreign, ErrInvalidToken},
		{"unknown role", badRole, ErrInvalidToken},
		{"no expiry", noExp, ErrInvalidToken},
		{"garbage", "not-a-token", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Validate(context.Background(), tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
