// Package persona looks up personas in the persona service over HTTP on
// behalf of the caller of the current request.
package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
	"github.com/ericfisherdev/passwords/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PersonaDirectory = (*Client)(nil)

// Client resolves personas through GET {base}/api/v1/personas/{id}. The
// persona service answers 404 or 403 when the caller may not see the persona.
type Client struct {
	baseURL   string
	systemKey string
	http      *http.Client
}

// NewClient creates a Client for the persona service at baseURL. systemKey is
// forwarded on system calls; timeout bounds each lookup.
func NewClient(baseURL, systemKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		systemKey: systemKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// Show returns the persona if the caller in req may access it.
func (c *Client) Show(ctx context.Context, req model.Request, personaID string) (model.Persona, error) {
	endpoint := c.baseURL + "/api/v1/personas/" + url.PathEscape(personaID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Persona{}, apperr.Upstream(fmt.Errorf("build persona request: %w", err), "persona directory unavailable")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.ID != "" {
		httpReq.Header.Set("X-Request-ID", req.ID)
	}

	if req.Call.IsSystem() {
		httpReq.Header.Set(model.HeaderCallerType, string(model.CallerSystem))
		if c.systemKey != "" {
			httpReq.Header.Set(model.HeaderSystemKey, c.systemKey)
		}
	} else {
		if req.Call.Authorization == "" {
			return model.Persona{}, apperr.AuthenticationRequired("authorization token is required")
		}
		httpReq.Header.Set("Authorization", "Bearer "+req.Call.Authorization)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return model.Persona{}, apperr.Upstream(fmt.Errorf("persona request: %w", err), "persona directory unavailable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusForbidden:
		return model.Persona{}, apperr.NotFoundOrForbidden()
	case http.StatusUnauthorized:
		return model.Persona{}, apperr.AuthenticationRequired("persona service rejected the caller")
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Persona{}, apperr.Upstream(
			fmt.Errorf("persona service returned %s: %s", resp.Status, strings.TrimSpace(string(snippet))),
			"persona directory unavailable",
		)
	}

	var persona model.Persona
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&persona); err != nil {
		return model.Persona{}, apperr.Upstream(fmt.Errorf("decode persona %s: %w", personaID, err), "persona directory unavailable")
	}
	if persona.ID == "" {
		persona.ID = personaID
	}

	return persona, nil
}
