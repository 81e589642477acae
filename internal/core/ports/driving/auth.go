package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// AuthService turns bearer tokens issued by the account service into caller identities.
type AuthService interface {
	// ValidateToken verifies a JWT and returns the auth context.
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
