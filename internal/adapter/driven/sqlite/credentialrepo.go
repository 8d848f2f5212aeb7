package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/passwords/internal/domain/model"
	"github.com/ericfisherdev/passwords/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

const credentialColumns = `id, persona_id, name, uri, username, password, created_at, updated_at`

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
type CredentialRepo struct {
	db    *DB
	now   func() time.Time
	newID func() string
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Insert stores cred under a freshly generated id and returns that id. Any id
// already set on cred is ignored.
func (r *CredentialRepo) Insert(ctx context.Context, cred model.Credential) (string, error) {
	const query = `INSERT INTO credentials (` + credentialColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id := r.newID()
	stamp := formatTime(r.now())

	_, err := r.db.Writer.ExecContext(ctx, query,
		id, cred.PersonaID, cred.Name, cred.URI, cred.Username, cred.Password, stamp, stamp,
	)
	if err != nil {
		return "", fmt.Errorf("insert credential for persona %s: %w", cred.PersonaID, err)
	}

	return id, nil
}

// FindByPersona returns the credentials of personaID in insertion order. A
// limit of zero or less means no limit.
func (r *CredentialRepo) FindByPersona(ctx context.Context, personaID string, limit int) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE persona_id = ? ORDER BY rowid`
	args := []any{personaID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials for persona %s: %w", personaID, err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// FindByID retrieves a credential by id. Returns nil, nil if the credential
// does not exist.
func (r *CredentialRepo) FindByID(ctx context.Context, id string) (*model.Credential, error) {
	const query = `SELECT ` + credentialColumns + ` FROM credentials WHERE id = ?`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	return cred, nil
}

// UpdateByID sets the non-nil fields of patch on the credential. persona_id
// and id are never written. Returns driven.ErrCredentialNotFound if no row
// matches.
func (r *CredentialRepo) UpdateByID(ctx context.Context, id string, patch model.CredentialPatch) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		sets = append(sets, column+" = ?")
		args = append(args, *value)
	}
	add("name", patch.Name)
	add("uri", patch.URI)
	add("username", patch.Username)
	add("password", patch.Password)

	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(r.now()), id)

	query := `UPDATE credentials SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update credential %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update credential %s: %w", id, driven.ErrCredentialNotFound)
	}

	return nil
}

// DeleteByID removes a credential. Returns driven.ErrCredentialNotFound if no
// row matches.
func (r *CredentialRepo) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM credentials WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete credential %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete credential %s: %w", id, driven.ErrCredentialNotFound)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*model.Credential, error) {
	var cred model.Credential
	var createdAt, updatedAt string

	err := s.Scan(
		&cred.ID, &cred.PersonaID, &cred.Name, &cred.URI,
		&cred.Username, &cred.Password, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cred, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
