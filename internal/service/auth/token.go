package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService validates access tokens issued by the identity provider.
// Tokens are HS256 signed and carry user_id, role and exp.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Validate parses the token and returns the caller it was issued for.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, wrap.Error(ctx, ErrExpToken)
	}
	if err != nil || !parsed.Valid {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	userIDStr, _ := mc["user_id"].(string)
	if userIDStr == "" {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: missing 'user_id' in token claims", ErrInvalidToken))
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: invalid 'user_id' in token claims", ErrInvalidToken))
	}

	role := types.UserRole(fmt.Sprint(mc["role"]))
	if role != types.RoleCustomer && role != types.RoleRider {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role))
	}

	return &models.User{ID: userID, Role: role}, nil
}

// Issue signs an access token. Used by tests and local tooling, production tokens come from the identity provider.
func (s *TokenService) Issue(user *models.User, ttl time.Duration) (string, error) {
	if user == nil {
		return "", errors.New("user is nil")
	}

	issuedAt := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role.String(),
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(ttl).Unix(),
	})
	return token.SignedString(s.secret)
}
