package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
	"github.com/ericfisherdev/passwords/internal/domain/port/driven"
)

// --- Mock implementations ---

// memStore is an in-memory driven.CredentialStore that keeps insertion order
// and counts mutations.
type memStore struct {
	mu        sync.Mutex
	order     []string
	rows      map[string]model.Credential
	seq       int
	mutations int

	insertErr error
	findErr   error
	updateErr error
	deleteErr error
}

var _ driven.CredentialStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{rows: map[string]model.Credential{}}
}

func (m *memStore) Insert(_ context.Context, cred model.Credential) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return "", m.insertErr
	}
	m.seq++
	cred.ID = fmt.Sprintf("cred-%d", m.seq)
	cred.CreatedAt = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	cred.UpdatedAt = cred.CreatedAt
	m.rows[cred.ID] = cred
	m.order = append(m.order, cred.ID)
	m.mutations++
	return cred.ID, nil
}

func (m *memStore) FindByPersona(_ context.Context, personaID string, limit int) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []model.Credential
	for _, id := range m.order {
		cred, ok := m.rows[id]
		if !ok || cred.PersonaID != personaID {
			continue
		}
		out = append(out, cred)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	cred, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (m *memStore) UpdateByID(_ context.Context, id string, patch model.CredentialPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cred, ok := m.rows[id]
	if !ok {
		return driven.ErrCredentialNotFound
	}
	if patch.Name != nil {
		cred.Name = *patch.Name
	}
	if patch.URI != nil {
		cred.URI = *patch.URI
	}
	if patch.Username != nil {
		cred.Username = *patch.Username
	}
	if patch.Password != nil {
		cred.Password = *patch.Password
	}
	m.rows[id] = cred
	m.mutations++
	return nil
}

func (m *memStore) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return driven.ErrCredentialNotFound
	}
	delete(m.rows, id)
	m.mutations++
	return nil
}

func (m *memStore) mutationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutations
}

// mockPersonas grants access to the personas in allowed and rejects the rest
// with NotFoundOrForbidden.
type mockPersonas struct {
	mu      sync.Mutex
	allowed map[string]bool
	err     error
	calls   []string
}

func newMockPersonas(allowed ...string) *mockPersonas {
	m := &mockPersonas{allowed: map[string]bool{}}
	for _, id := range allowed {
		m.allowed[id] = true
	}
	return m
}

func (m *mockPersonas) Show(_ context.Context, _ model.Request, personaID string) (model.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, personaID)
	if m.err != nil {
		return model.Persona{}, m.err
	}
	if !m.allowed[personaID] {
		return model.Persona{}, apperr.NotFoundOrForbidden()
	}
	return model.Persona{ID: personaID}, nil
}

func (m *mockPersonas) deny(personaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.allowed, personaID)
}

// mockVerifier accepts the tokens in identities.
type mockVerifier struct {
	identities map[string]model.Identity
	err        error
}

func (m *mockVerifier) Verify(_ context.Context, token string) (model.Identity, error) {
	if m.err != nil {
		return model.Identity{}, m.err
	}
	identity, ok := m.identities[token]
	if !ok {
		return model.Identity{}, apperr.AuthenticationRequired("invalid authorization token")
	}
	return identity, nil
}

// --- Test helpers ---

var userReq = model.Request{
	ID:       "req-1",
	Call:     model.CallContext{Type: model.CallerUser, Authorization: "tok"},
	Identity: &model.Identity{UserID: "user-1"},
}

func validPayload() model.Payload {
	return model.Payload{
		"name":     "n",
		"uri":      "https://x.com",
		"username": "u",
		"password": "pw",
	}
}
