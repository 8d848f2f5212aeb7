// Package application contains the credential use cases and the request
// lifecycle that drives them.
package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
	"github.com/ericfisherdev/passwords/internal/domain/port/driven"
)

// CredentialService implements create, list, show, edit and delete on top of
// the credential store, checking persona access through the OwnershipGate on
// every call.
type CredentialService struct {
	store  driven.CredentialStore
	gate   *OwnershipGate
	logger *slog.Logger
}

// NewCredentialService creates a CredentialService with the required dependencies.
func NewCredentialService(store driven.CredentialStore, gate *OwnershipGate, logger *slog.Logger) *CredentialService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialService{
		store:  store,
		gate:   gate,
		logger: logger,
	}
}

// Create stores a new credential for personaID. Only name, uri, username and
// password are read from input; ids and persona fields in input are ignored.
func (s *CredentialService) Create(ctx context.Context, req model.Request, personaID string, input model.Payload) (*model.Credential, error) {
	if err := s.gate.EnsureAccessible(ctx, req, personaID); err != nil {
		return nil, err
	}

	fields := input.Whitelist()
	if err := ValidateCredential(fields); err != nil {
		return nil, err
	}

	id, err := s.store.Insert(ctx, model.NewCredential(personaID, fields))
	if err != nil {
		return nil, s.storeFailure(ctx, req, "insert", err, "persona_id", personaID)
	}

	stored, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeFailure(ctx, req, "find_by_id", err, "credential_id", id)
	}
	if stored == nil {
		return nil, apperr.NotFoundOrForbidden()
	}

	s.logger.InfoContext(ctx, "credential created",
		"request_id", req.ID,
		"credential_id", id,
		"persona_id", personaID,
	)
	return stored, nil
}

// List returns the credentials owned by personaID in store order. A count of
// zero or less returns every credential.
func (s *CredentialService) List(ctx context.Context, req model.Request, personaID string, count int) ([]model.Credential, error) {
	if err := s.gate.EnsureAccessible(ctx, req, personaID); err != nil {
		return nil, err
	}

	creds, err := s.store.FindByPersona(ctx, personaID, count)
	if err != nil {
		return nil, s.storeFailure(ctx, req, "find_by_persona", err, "persona_id", personaID)
	}
	if creds == nil {
		creds = []model.Credential{}
	}
	return creds, nil
}

// Show returns the credential with the given id if the caller may access its
// persona. Missing credentials and inaccessible personas fail the same way.
func (s *CredentialService) Show(ctx context.Context, req model.Request, id string) (*model.Credential, error) {
	cred, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeFailure(ctx, req, "find_by_id", err, "credential_id", id)
	}
	if cred == nil {
		return nil, apperr.NotFoundOrForbidden()
	}

	if err := s.gate.EnsureAccessible(ctx, req, cred.PersonaID); err != nil {
		return nil, err
	}
	return cred, nil
}

// Edit applies a partial update to the credential and returns it reloaded.
// Only whitelisted fields present in input change; everything else is kept.
func (s *CredentialService) Edit(ctx context.Context, req model.Request, id string, input model.Payload) (*model.Credential, error) {
	if _, err := s.Show(ctx, req, id); err != nil {
		return nil, err
	}

	fields := input.Whitelist()
	if err := ValidateCredential(fields); err != nil {
		return nil, err
	}

	patch := model.PatchFromPayload(fields)
	if !patch.IsEmpty() {
		if err := s.store.UpdateByID(ctx, id, patch); err != nil {
			if errors.Is(err, driven.ErrCredentialNotFound) {
				return nil, apperr.NotFoundOrForbidden()
			}
			return nil, s.storeFailure(ctx, req, "update_by_id", err, "credential_id", id)
		}
	}

	return s.Show(ctx, req, id)
}

// Delete removes the credential after the same checks as Show.
func (s *CredentialService) Delete(ctx context.Context, req model.Request, id string) error {
	if _, err := s.Show(ctx, req, id); err != nil {
		return err
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, driven.ErrCredentialNotFound) {
			return apperr.NotFoundOrForbidden()
		}
		return s.storeFailure(ctx, req, "delete_by_id", err, "credential_id", id)
	}

	s.logger.InfoContext(ctx, "credential deleted",
		"request_id", req.ID,
		"credential_id", id,
	)
	return nil
}

// storeFailure logs the store error with its detail and returns an upstream
// failure that does not carry the store's text to the caller.
func (s *CredentialService) storeFailure(ctx context.Context, req model.Request, op string, err error, attrs ...any) error {
	args := append([]any{"request_id", req.ID, "op", op, "error", err}, attrs...)
	s.logger.ErrorContext(ctx, "credential store failure", args...)
	return apperr.Upstream(err, "credential store unavailable")
}
