package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/passwords/internal/domain/model"
)

// ErrCredentialNotFound is returned by UpdateByID and DeleteByID when no row
// matches the identifier.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore defines the driven port for credential persistence.
// Every operation is addressed by identifier only; persona scoping is the
// caller's job.
type CredentialStore interface {
	// Insert stores a new credential and returns the identifier the store
	// assigned to it. Any ID on cred is ignored.
	Insert(ctx context.Context, cred model.Credential) (string, error)

	// FindByPersona returns the credentials owned by personaID in insertion
	// order. limit <= 0 returns all of them.
	FindByPersona(ctx context.Context, personaID string, limit int) ([]model.Credential, error)

	// FindByID returns the credential with the given identifier.
	// Returns nil, nil if it does not exist.
	FindByID(ctx context.Context, id string) (*model.Credential, error)

	// UpdateByID applies patch to the credential. Fields left nil in patch are
	// not touched. Returns ErrCredentialNotFound if no row matches.
	UpdateByID(ctx context.Context, id string, patch model.CredentialPatch) error

	// DeleteByID removes the credential. Returns ErrCredentialNotFound if no
	// row matches.
	DeleteByID(ctx context.Context, id string) error
}
