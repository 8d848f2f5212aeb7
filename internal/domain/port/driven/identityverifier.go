package driven

import (
	"context"

	"github.com/ericfisherdev/passwords/internal/domain/model"
)

// IdentityVerifier exchanges a raw bearer token for a verified identity.
// Invalid, expired or unsigned tokens fail with apperr.AuthenticationRequired.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (model.Identity, error)
}
