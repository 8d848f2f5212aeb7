package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
)

// StandardHooks is the production Hooks implementation. Bootstrap opens the
// store and collaborators; system calls skip authentication; user calls must
// present a bearer token the runtime's verifier accepts.
type StandardHooks struct {
	Bootstrap func(ctx context.Context) (*Runtime, error)
	Logger    *slog.Logger
	Now       func() time.Time
}

// Initialize calls Bootstrap.
func (h *StandardHooks) Initialize(ctx context.Context) (*Runtime, error) {
	if h.Bootstrap == nil {
		return nil, errors.New("no bootstrap configured")
	}
	return h.Bootstrap(ctx)
}

// Authenticate resolves the caller identity. A user call with no token is
// rejected rather than let through unauthenticated.
func (h *StandardHooks) Authenticate(ctx context.Context, rt *Runtime, call model.CallContext) (*model.Identity, error) {
	if call.IsSystem() {
		return nil, nil
	}

	token := strings.TrimSpace(call.Authorization)
	if token == "" {
		return nil, apperr.AuthenticationRequired("authorization token is required")
	}
	if rt == nil || rt.Verifier == nil {
		return nil, apperr.Upstream(nil, "identity verifier unavailable")
	}

	identity, err := rt.Verifier.Verify(ctx, token)
	if err != nil {
		if apperr.IsAuthenticationRequired(err) || apperr.IsUpstream(err) {
			return nil, err
		}
		return nil, apperr.AuthenticationRequired("invalid authorization token")
	}
	if identity.UserID == "" {
		return nil, apperr.AuthenticationRequired("token has no subject")
	}
	return &identity, nil
}

// Finalize logs the outcome of the call. No request-scoped resources are held,
// so there is nothing to release.
func (h *StandardHooks) Finalize(ctx context.Context, req model.Request, err error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	args := []any{
		"request_id", req.ID,
		"operation", req.Operation,
		"caller", string(req.Call.Type),
		"duration", now().Sub(req.StartedAt).Round(time.Microsecond),
	}
	if req.Identity != nil {
		args = append(args, "user_id", req.Identity.UserID)
	}

	switch {
	case err == nil:
		logger.DebugContext(ctx, "call finished", args...)
	case apperr.IsValidation(err), apperr.IsNotFoundOrForbidden(err), apperr.IsAuthenticationRequired(err):
		for _, attr := range goerrors.ToSlogAttributes(err) {
			args = append(args, attr)
		}
		logger.InfoContext(ctx, "call rejected", args...)
	default:
		args = append(args, "error", err)
		for _, attr := range goerrors.ToSlogAttributes(err) {
			args = append(args, attr)
		}
		logger.ErrorContext(ctx, "call failed", args...)
	}
}
