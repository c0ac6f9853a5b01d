// ABOUTME: Request dispatcher for the SpaceTraders API with credential resolution
// ABOUTME: Applies the global rate limit and returns raw responses without interpretation

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/startrader/gateway/internal/ratelimit"
)

// ErrMissingAccountToken indicates an account-credentialed dispatch was
// attempted without an account token configured. Checked before any rate
// limit slot is consumed or network call is made.
var ErrMissingAccountToken = errors.New("account token not configured")

type credentialKind int

const (
	credentialNone credentialKind = iota
	credentialAccount
	credentialAgent
)

// Credential selects which bearer token a dispatch attaches. The selection is
// an explicit variant rather than a pair of optional parameters, so the
// precedence (account > agent > none) is structural.
type Credential struct {
	kind  credentialKind
	agent string
}

// NoCredential selects an unauthenticated request.
func NoCredential() Credential {
	return Credential{kind: credentialNone}
}

// AccountCredential selects the process-wide account token.
func AccountCredential() Credential {
	return Credential{kind: credentialAccount}
}

// AgentCredential selects the stored token for the given agent symbol.
// If no token is stored for the agent, the request proceeds unauthenticated;
// this is deliberate, since some endpoints are public and reached through the
// same call path.
func AgentCredential(symbol string) Credential {
	return Credential{kind: credentialAgent, agent: symbol}
}

// AgentSymbol returns the agent symbol for agent credentials.
func (c Credential) AgentSymbol() string {
	return c.agent
}

// TokenReader is the read-only view of the agent token store the dispatcher
// needs.
type TokenReader interface {
	Get(symbol string) (string, bool)
}

// AuditEntry describes one completed (or failed) dispatch.
type AuditEntry struct {
	Method      string
	Path        string
	AgentSymbol string
	Status      int
	Duration    time.Duration
	Err         string
}

// Auditor records dispatches. Recording failures are logged by the gateway
// and never propagated to callers.
type Auditor interface {
	RecordDispatch(ctx context.Context, entry AuditEntry) error
}

// Request describes a single dispatch. Body, when non-nil, is JSON-encoded.
type Request struct {
	Method     string
	Path       string
	Credential Credential
	Body       any
	Header     map[string]string
}

// Config holds the dependencies for a Gateway.
type Config struct {
	BaseURL      string
	AccountToken string
	Tokens       TokenReader
	Limiter      *ratelimit.Limiter
	HTTPClient   *http.Client
	Auditor      Auditor
	Logger       *slog.Logger
}

// Gateway mediates access to the remote API on behalf of multiple agents.
// One instance per process; all dispatches share its rate limiter.
type Gateway struct {
	baseURL      string
	accountToken string
	tokens       TokenReader
	limiter      *ratelimit.Limiter
	client       *http.Client
	auditor      Auditor
	logger       *slog.Logger
}

// New creates a Gateway from the given configuration.
func New(cfg Config) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token store is required")
	}
	if cfg.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		accountToken: cfg.AccountToken,
		tokens:       cfg.Tokens,
		limiter:      cfg.Limiter,
		client:       client,
		auditor:      cfg.Auditor,
		logger:       logger.With("component", "gateway"),
	}, nil
}

// HasAccountToken reports whether an account token is configured.
func (g *Gateway) HasAccountToken() bool {
	return g.accountToken != ""
}

// Get dispatches a GET request.
func (g *Gateway) Get(ctx context.Context, path string, cred Credential) (*Response, error) {
	return g.Dispatch(ctx, Request{Method: http.MethodGet, Path: path, Credential: cred})
}

// Post dispatches a POST request with an optional JSON body.
func (g *Gateway) Post(ctx context.Context, path string, cred Credential, body any) (*Response, error) {
	return g.Dispatch(ctx, Request{Method: http.MethodPost, Path: path, Credential: cred, Body: body})
}

// Dispatch performs exactly one rate-limited call against the remote API and
// returns the raw response. Non-2xx statuses are not errors; classification
// belongs to the caller. The gateway never retries.
func (g *Gateway) Dispatch(ctx context.Context, req Request) (*Response, error) {
	// Precondition: fail before consuming a rate limit slot
	if req.Credential.kind == credentialAccount && g.accountToken == "" {
		return nil, ErrMissingAccountToken
	}

	// The slot is consumed here, before the call is attempted; a request
	// that later fails to connect still counts against the limit
	if err := g.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquiring rate limit slot: %w", err)
	}

	token, authenticated := g.resolveToken(req.Credential)

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	url := g.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		g.audit(ctx, req, 0, time.Since(start), err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		g.audit(ctx, req, httpResp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	duration := time.Since(start)
	g.logger.Debug("dispatched request",
		"method", req.Method,
		"path", req.Path,
		"agent", req.Credential.agent,
		"status", httpResp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	g.audit(ctx, req, httpResp.StatusCode, duration, nil)

	return &Response{StatusCode: httpResp.StatusCode, Body: body}, nil
}

// resolveToken applies the credential precedence: account > agent > none.
// An agent with no stored token resolves to unauthenticated.
func (g *Gateway) resolveToken(cred Credential) (string, bool) {
	switch cred.kind {
	case credentialAccount:
		return g.accountToken, true
	case credentialAgent:
		if token, ok := g.tokens.Get(cred.agent); ok {
			return token, true
		}
		g.logger.Debug("no stored token, dispatching unauthenticated", "agent", cred.agent)
		return "", false
	default:
		return "", false
	}
}

func (g *Gateway) audit(ctx context.Context, req Request, status int, duration time.Duration, dispatchErr error) {
	if g.auditor == nil {
		return
	}

	entry := AuditEntry{
		Method:      req.Method,
		Path:        req.Path,
		AgentSymbol: req.Credential.agent,
		Status:      status,
		Duration:    duration,
	}
	if dispatchErr != nil {
		entry.Err = dispatchErr.Error()
	}

	if err := g.auditor.RecordDispatch(ctx, entry); err != nil {
		g.logger.Warn("failed to record dispatch", "error", err)
	}
}
