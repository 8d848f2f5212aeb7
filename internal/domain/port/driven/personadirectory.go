package driven

import (
	"context"

	"github.com/ericfisherdev/passwords/internal/domain/model"
)

// PersonaDirectory defines the driven port for persona lookups.
// Show returns the persona when it exists and the caller in req may act on it.
// Missing and forbidden personas both fail with apperr.NotFoundOrForbidden.
type PersonaDirectory interface {
	Show(ctx context.Context, req model.Request, personaID string) (model.Persona, error)
}
