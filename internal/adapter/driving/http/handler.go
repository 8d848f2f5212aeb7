package httphandler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/passwords/internal/application"
	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
)

// HeaderRequestID carries the per-call id on every dispatched response.
const HeaderRequestID = "X-Request-ID"

// maxBodyBytes bounds create and edit request bodies.
const maxBodyBytes = 1 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	ctrl      *application.Controller
	systemKey string
	store     Pinger
	logger    *slog.Logger
}

// NewHandler creates a Handler. systemKey authenticates X-Caller-Type: system
// requests; when empty, system calls are refused. store may be nil, in which
// case health reports ok without probing.
func NewHandler(ctrl *application.Controller, systemKey string, store Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ctrl:      ctrl,
		systemKey: systemKey,
		store:     store,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/personas/{personaID}/passwords", h.Create)
	mux.HandleFunc("GET /api/v1/personas/{personaID}/passwords", h.List)
	mux.HandleFunc("GET /api/v1/passwords/{id}", h.Show)
	mux.HandleFunc("PATCH /api/v1/passwords/{id}", h.Edit)
	mux.HandleFunc("DELETE /api/v1/passwords/{id}", h.Delete)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Create stores a new credential for the persona in the path.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	personaID := r.PathValue("personaID")

	h.dispatch(w, r, "create", http.StatusCreated, func(ctx context.Context, svc *application.CredentialService, req model.Request) (any, error) {
		payload, err := decodePayload(w, r)
		if err != nil {
			return nil, err
		}
		cred, err := svc.Create(ctx, req, personaID, payload)
		if err != nil {
			return nil, err
		}
		return toCredentialResponse(*cred), nil
	})
}

// List returns the persona's credentials. The optional count query parameter
// caps the number returned.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	personaID := r.PathValue("personaID")

	h.dispatch(w, r, "list", http.StatusOK, func(ctx context.Context, svc *application.CredentialService, req model.Request) (any, error) {
		count, err := parseCount(r.URL.Query().Get("count"))
		if err != nil {
			return nil, err
		}
		creds, err := svc.List(ctx, req, personaID, count)
		if err != nil {
			return nil, err
		}
		resp := make([]CredentialResponse, 0, len(creds))
		for _, cred := range creds {
			resp = append(resp, toCredentialResponse(cred))
		}
		return resp, nil
	})
}

// Show returns a single credential.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	h.dispatch(w, r, "show", http.StatusOK, func(ctx context.Context, svc *application.CredentialService, req model.Request) (any, error) {
		cred, err := svc.Show(ctx, req, id)
		if err != nil {
			return nil, err
		}
		return toCredentialResponse(*cred), nil
	})
}

// Edit applies a partial update and returns the updated credential.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	h.dispatch(w, r, "edit", http.StatusOK, func(ctx context.Context, svc *application.CredentialService, req model.Request) (any, error) {
		payload, err := decodePayload(w, r)
		if err != nil {
			return nil, err
		}
		cred, err := svc.Edit(ctx, req, id, payload)
		if err != nil {
			return nil, err
		}
		return toCredentialResponse(*cred), nil
	})
}

// Delete removes a credential.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	h.dispatch(w, r, "delete", http.StatusNoContent, func(ctx context.Context, svc *application.CredentialService, req model.Request) (any, error) {
		return nil, svc.Delete(ctx, req, id)
	})
}

// Health reports liveness, probing the store when one is configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
			resp.Status = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type serveFunc func(ctx context.Context, svc *application.CredentialService, req model.Request) (any, error)

// dispatch runs serve through the lifecycle controller and writes its result
// with status on success.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, operation string, status int, serve serveFunc) {
	call, err := h.callContext(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	var result any
	req, err := h.ctrl.Dispatch(r.Context(), operation, call, func(ctx context.Context, svc *application.CredentialService, req model.Request) error {
		var serveErr error
		result, serveErr = serve(ctx, svc, req)
		return serveErr
	})
	if req.ID != "" {
		w.Header().Set(HeaderRequestID, req.ID)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, result)
}

// callContext classifies the caller. A system claim must carry the configured
// system key; anything else is treated as an end-user call.
func (h *Handler) callContext(r *http.Request) (model.CallContext, error) {
	if strings.EqualFold(r.Header.Get(model.HeaderCallerType), string(model.CallerSystem)) {
		key := r.Header.Get(model.HeaderSystemKey)
		if h.systemKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.systemKey)) != 1 {
			return model.CallContext{}, apperr.AuthenticationRequired("system caller not recognized")
		}
		return model.CallContext{Type: model.CallerSystem}, nil
	}

	return model.CallContext{
		Type:          model.CallerUser,
		Authorization: bearerToken(r.Header.Get("Authorization")),
	}, nil
}

// bearerToken extracts the token from an Authorization header value. Other
// schemes yield an empty token.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// parseCount reads the optional list bound. Empty means no bound.
func parseCount(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("count", "must be a non-negative integer")
	}
	return n, nil
}

// decodePayload reads a JSON object body. Anything that is not an object is a
// validation failure.
func decodePayload(w http.ResponseWriter, r *http.Request) (model.Payload, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var payload model.Payload
	dec := json.NewDecoder(body)
	if err := dec.Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperr.Validation("body", "request body too large")
		}
		return nil, apperr.Validation("body", "must be a JSON object")
	}
	if payload == nil {
		return nil, apperr.Validation("body", "must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, apperr.Validation("body", "must contain a single JSON object")
	}

	return payload, nil
}
