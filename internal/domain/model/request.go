package model

import "time"

// CallerType is the trust level attached to an inbound call.
type CallerType string

const (
	// CallerSystem marks a trusted service-to-service call; it skips end-user
	// authentication.
	CallerSystem CallerType = "system"
	// CallerUser marks an end-user call that must carry a bearer token.
	CallerUser CallerType = "user"
)

// Headers that mark a trusted internal call between services.
const (
	HeaderCallerType = "X-Caller-Type"
	HeaderSystemKey  = "X-System-Key"
)

// CallContext is what the transport knows about a call before authentication.
type CallContext struct {
	Type          CallerType
	Authorization string // Raw bearer token, without the "Bearer " prefix.
}

// IsSystem reports whether the call is a trusted internal call.
func (c CallContext) IsSystem() bool {
	return c.Type == CallerSystem
}

// Identity is a verified end user.
type Identity struct {
	UserID    string
	Issuer    string
	ExpiresAt time.Time
}

// Request is the state scoped to a single call. A fresh value is built for
// every call and never shared between calls.
type Request struct {
	ID        string
	Operation string
	Call      CallContext
	Identity  *Identity // nil for system calls.
	StartedAt time.Time
}

// Persona is the subset of a persona record this service relies on.
type Persona struct {
	ID     string `json:"_id"`
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
}
