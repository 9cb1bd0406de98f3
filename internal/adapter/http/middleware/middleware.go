package middleware

import (
	"context"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
)

type (
	TokenValidator interface {
		Validate(ctx context.Context, token string) (*models.User, error)
	}

	Middleware struct {
		auth TokenValidator
		log  logger.Logger
	}
)

func NewMiddleware(auth TokenValidator, log logger.Logger) *Middleware {
	return &Middleware{
		auth: auth,
		log:  log,
	}
}
