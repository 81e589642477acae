package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Adapter implements AuthAdapter
var _ driven.AuthAdapter = (*Adapter)(nil)

// jwtClaims is the token payload issued by the account service.
// The user id travels in the standard "sub" claim.
type jwtClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Adapter signs and verifies HS256 bearer tokens.
type Adapter struct {
	secret []byte
	issuer string
}

// NewAdapter creates an adapter with the shared secret. A non-empty issuer
// is stamped on generated tokens and required on parsed ones.
func NewAdapter(secret, issuer string) *Adapter {
	return &Adapter{secret: []byte(secret), issuer: issuer}
}

// GenerateToken creates a signed JWT from domain claims. Zero times are
// left out of the token.
func (a *Adapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	jc := jwtClaims{
		Email: claims.Email,
		Role:  claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: claims.UserID,
			Issuer:  a.issuer,
		},
	}
	if claims.IssuedAt != 0 {
		jc.IssuedAt = jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0))
	}
	if claims.ExpiresAt != 0 {
		jc.ExpiresAt = jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, jc).SignedString(a.secret)
}

// ParseToken verifies the signature and expiry and returns the claims.
// Expired tokens yield domain.ErrTokenExpired; anything else wrong yields
// domain.ErrTokenInvalid.
func (a *Adapter) ParseToken(tokenString string) (*domain.TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var jc jwtClaims
	token, err := jwt.ParseWithClaims(tokenString, &jc, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%v: %w", err, domain.ErrTokenInvalid)
	}
	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	out := &domain.TokenClaims{
		UserID: jc.Subject,
		Email:  jc.Email,
		Role:   jc.Role,
	}
	if jc.IssuedAt != nil {
		out.IssuedAt = jc.IssuedAt.Unix()
	}
	if jc.ExpiresAt != nil {
		out.ExpiresAt = jc.ExpiresAt.Unix()
	}
	return out, nil
}
