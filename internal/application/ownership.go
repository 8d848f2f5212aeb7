package application

import (
	"context"
	"strings"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
	"github.com/ericfisherdev/passwords/internal/domain/port/driven"
)

// OwnershipGate decides whether the caller of a request may act on a persona.
// It delegates to the persona directory and fails closed.
type OwnershipGate struct {
	personas driven.PersonaDirectory
}

// NewOwnershipGate creates an OwnershipGate backed by personas.
func NewOwnershipGate(personas driven.PersonaDirectory) *OwnershipGate {
	return &OwnershipGate{personas: personas}
}

// EnsureAccessible returns nil when personaID exists and the caller in req may
// act on it. Directory errors are returned unchanged.
func (g *OwnershipGate) EnsureAccessible(ctx context.Context, req model.Request, personaID string) error {
	if g == nil || g.personas == nil {
		return apperr.NotFoundOrForbidden()
	}
	if strings.TrimSpace(personaID) == "" {
		return apperr.NotFoundOrForbidden()
	}
	if _, err := g.personas.Show(ctx, req, personaID); err != nil {
		return err
	}
	return nil
}
