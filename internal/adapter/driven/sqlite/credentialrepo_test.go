package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/passwords/internal/domain/model"
	"github.com/ericfisherdev/passwords/internal/domain/port/driven"
)

func strPtr(s string) *string { return &s }

func newTestCredential(personaID, name string) model.Credential {
	return model.Credential{
		PersonaID: personaID,
		Name:      name,
		URI:       "https://" + name + ".example.com",
		Username:  name + "-user",
		Password:  name + "-secret",
	}
}

func TestCredentialRepo_InsertAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	in := newTestCredential("p1", "mail")
	in.ID = "client-chosen"

	id, err := repo.Insert(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "client-chosen", id)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "p1", got.PersonaID)
	assert.Equal(t, "mail", got.Name)
	assert.Equal(t, "https://mail.example.com", got.URI)
	assert.Equal(t, "mail-user", got.Username)
	assert.Equal(t, "mail-secret", got.Password)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestCredentialRepo_FindByIDMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	got, err := repo.FindByID(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCredentialRepo_FindByPersonaOrderAndScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"zeta", "alpha", "mid"} {
		id, err := repo.Insert(ctx, newTestCredential("p1", name))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := repo.Insert(ctx, newTestCredential("p2", "other"))
	require.NoError(t, err)

	creds, err := repo.FindByPersona(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, creds, 3)
	for i, cred := range creds {
		assert.Equal(t, ids[i], cred.ID, "insertion order")
		assert.Equal(t, "p1", cred.PersonaID)
	}

	limited, err := repo.FindByPersona(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[0], limited[0].ID)
	assert.Equal(t, ids[1], limited[1].ID)
}

func TestCredentialRepo_FindByPersonaEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	creds, err := repo.FindByPersona(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestCredentialRepo_UpdateByIDPartial(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return created }

	id, err := repo.Insert(ctx, newTestCredential("p1", "mail"))
	require.NoError(t, err)

	edited := created.Add(time.Hour)
	repo.now = func() time.Time { return edited }

	err = repo.UpdateByID(ctx, id, model.CredentialPatch{Name: strPtr("webmail"), Password: strPtr("")})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "webmail", got.Name)
	assert.Empty(t, got.Password)
	assert.Equal(t, "https://mail.example.com", got.URI, "untouched field kept")
	assert.Equal(t, "mail-user", got.Username, "untouched field kept")
	assert.Equal(t, "p1", got.PersonaID)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, edited, got.UpdatedAt)
}

func TestCredentialRepo_UpdateByIDMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	err := repo.UpdateByID(context.Background(), "nonexistent", model.CredentialPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
}

func TestCredentialRepo_DeleteByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	id, err := repo.Insert(ctx, newTestCredential("p1", "mail"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, id))

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = repo.DeleteByID(ctx, id)
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
}

func TestCredentialRepo_ConcurrentInserts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	errs := make(chan error, 10)
	for i := range 10 {
		go func() {
			_, err := repo.Insert(ctx, newTestCredential("p1", fmt.Sprintf("site%d", i)))
			errs <- err
		}()
	}
	for range 10 {
		require.NoError(t, <-errs)
	}

	creds, err := repo.FindByPersona(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Len(t, creds, 10)
}

func TestNewDB_FileBacked(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "passwords.db")

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	require.NoError(t, RunMigrations(db.Writer), "second run is a no-op")
	require.NoError(t, db.Ping(ctx))
	assert.Equal(t, path, db.Path())

	version, dirty, err := SchemaVersion(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
