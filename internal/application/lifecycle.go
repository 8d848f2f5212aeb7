package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
	"github.com/ericfisherdev/passwords/internal/domain/port/driven"
)

// Runtime is the process-wide state established once by Hooks.Initialize and
// shared by every call. Each collaborator handles its own synchronization.
type Runtime struct {
	Store    driven.CredentialStore
	Personas driven.PersonaDirectory
	Verifier driven.IdentityVerifier
}

// Hooks are the points the Controller invokes around every call.
type Hooks interface {
	// Initialize runs once per service, before the first call.
	Initialize(ctx context.Context) (*Runtime, error)

	// Authenticate runs before each handler. It returns the verified identity,
	// or nil for trusted system calls.
	Authenticate(ctx context.Context, rt *Runtime, call model.CallContext) (*model.Identity, error)

	// Finalize runs after each call whatever the outcome. err is the error the
	// call is about to return, if any.
	Finalize(ctx context.Context, req model.Request, err error)
}

// HandlerFunc serves one call with its request-scoped state.
type HandlerFunc func(ctx context.Context, svc *CredentialService, req model.Request) error

// Controller drives the request lifecycle: Initialize once, then for every
// call Authenticate, the handler, and Finalize.
type Controller struct {
	hooks  Hooks
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	once    sync.Once
	runtime *Runtime
	svc     *CredentialService
	initErr error
}

// NewController creates a Controller around hooks.
func NewController(hooks Hooks, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		hooks:  hooks,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Initialize runs Hooks.Initialize exactly once. Every later call returns the
// outcome of the first one; a failed initialization is never retried.
func (c *Controller) Initialize(ctx context.Context) error {
	c.once.Do(func() {
		rt, err := c.hooks.Initialize(ctx)
		if err != nil {
			c.initErr = fmt.Errorf("initialize service: %w", err)
			return
		}
		if rt == nil || rt.Store == nil || rt.Personas == nil || rt.Verifier == nil {
			c.initErr = errors.New("initialize service: runtime is missing a collaborator")
			return
		}
		c.runtime = rt
		c.svc = NewCredentialService(rt.Store, NewOwnershipGate(rt.Personas), c.logger)
		c.logger.InfoContext(ctx, "service initialized")
	})
	return c.initErr
}

// Dispatch runs one call for operation. It returns the request state built
// for the call alongside the call's error, so transports can echo the
// request id.
func (c *Controller) Dispatch(ctx context.Context, operation string, call model.CallContext, handle HandlerFunc) (req model.Request, err error) {
	req = model.Request{
		ID:        c.newID(),
		Operation: operation,
		Call:      call,
		StartedAt: c.now(),
	}
	defer func() {
		c.hooks.Finalize(ctx, req, err)
	}()

	if initErr := c.Initialize(ctx); initErr != nil {
		return req, apperr.Upstream(initErr, "service unavailable")
	}

	identity, err := c.hooks.Authenticate(ctx, c.runtime, call)
	if err != nil {
		return req, err
	}
	req.Identity = identity

	err = handle(ctx, c.svc, req)
	return req, err
}
