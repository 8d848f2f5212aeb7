package model

import "time"

// Credential fields that callers may supply. Everything else in an inbound
// payload (ids, persona, unknown keys) is dropped by Whitelist.
const (
	FieldName     = "name"
	FieldURI      = "uri"
	FieldUsername = "username"
	FieldPassword = "password"
)

// MutableFields lists the whitelisted credential fields in validation order.
var MutableFields = []string{FieldName, FieldURI, FieldUsername, FieldPassword}

// Credential is a stored secret record owned by exactly one persona.
// PersonaID is set at creation and never changes afterwards.
type Credential struct {
	ID        string    `json:"_id"`
	PersonaID string    `json:"personaId"`
	Name      string    `json:"name"`
	URI       string    `json:"uri"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Payload is an untyped credential document as received from a caller.
type Payload map[string]any

// Whitelist returns a copy of p holding only the mutable credential fields.
func (p Payload) Whitelist() Payload {
	out := make(Payload, len(MutableFields))
	for _, field := range MutableFields {
		if v, ok := p[field]; ok {
			out[field] = v
		}
	}
	return out
}

// CredentialPatch is a partial update. Nil fields are left untouched.
type CredentialPatch struct {
	Name     *string
	URI      *string
	Username *string
	Password *string
}

// IsEmpty reports whether the patch changes nothing.
func (p CredentialPatch) IsEmpty() bool {
	return p.Name == nil && p.URI == nil && p.Username == nil && p.Password == nil
}

// PatchFromPayload converts a validated payload into a CredentialPatch.
// Values that are not strings are skipped; callers validate first.
func PatchFromPayload(p Payload) CredentialPatch {
	var patch CredentialPatch
	pick := func(field string) *string {
		s, ok := p[field].(string)
		if !ok {
			return nil
		}
		return &s
	}
	patch.Name = pick(FieldName)
	patch.URI = pick(FieldURI)
	patch.Username = pick(FieldUsername)
	patch.Password = pick(FieldPassword)
	return patch
}

// NewCredential builds an unsaved credential for personaID from a validated
// payload. Absent fields are left empty.
func NewCredential(personaID string, p Payload) Credential {
	str := func(field string) string {
		s, _ := p[field].(string)
		return s
	}
	return Credential{
		PersonaID: personaID,
		Name:      str(FieldName),
		URI:       str(FieldURI),
		Username:  str(FieldUsername),
		Password:  str(FieldPassword),
	}
}
