// Package identity verifies end-user bearer tokens. Tokens are EdDSA-signed
// JWTs whose subject is the user id.
package identity

import (
	"context"
	"crypto/ed25519"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
	"github.com/ericfisherdev/passwords/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityVerifier = (*JWTVerifier)(nil)

// Config defines how tokens are verified. Issuer and Audience are only
// checked when set.
type Config struct {
	Key      ed25519.PublicKey
	Issuer   string
	Audience string
	Now      func() time.Time
}

// JWTVerifier checks token signature, expiry, and the configured claims.
type JWTVerifier struct {
	cfg Config
}

// NewJWTVerifier creates a verifier. The key must be a full Ed25519 public key.
func NewJWTVerifier(cfg Config) (*JWTVerifier, error) {
	if len(cfg.Key) != ed25519.PublicKeySize {
		return nil, errors.New("identity verifier requires an Ed25519 public key")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JWTVerifier{cfg: cfg}, nil
}

// Verify parses token and returns the identity it carries. Every rejection is
// an AuthenticationRequired error.
func (v *JWTVerifier) Verify(_ context.Context, token string) (model.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Identity{}, apperr.AuthenticationRequired("authorization token is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.cfg.Now),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.cfg.Key, nil
	}, opts...)
	if err != nil {
		return model.Identity{}, mapJWTError(err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return model.Identity{}, apperr.AuthenticationRequired("token has no subject")
	}

	identity := model.Identity{
		UserID: subject,
		Issuer: claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return identity, nil
}

// mapJWTError translates jwt library errors to authentication failures.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.AuthenticationRequired("token is expired")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return apperr.AuthenticationRequired("token is not active yet")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrEd25519Verification):
		return apperr.AuthenticationRequired("token signature is invalid")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return apperr.AuthenticationRequired("token was not issued for this service")
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return apperr.AuthenticationRequired("token is missing a required claim")
	default:
		return apperr.AuthenticationRequired("invalid authorization token")
	}
}
