package services

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService trusts tokens signed by the account service.
type authService struct {
	authAdapter driven.AuthAdapter
}

// NewAuthService creates a new AuthService
func NewAuthService(authAdapter driven.AuthAdapter) driving.AuthService {
	return &authService{authAdapter: authAdapter}
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}

	switch claims.Role {
	case domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent:
	default:
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
