package driven

import "github.com/custodia-labs/lectern/internal/core/domain"

// AuthAdapter signs and verifies bearer tokens. Accounts live in the
// external account service; this side only trusts the shared secret.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
