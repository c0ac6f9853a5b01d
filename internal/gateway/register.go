// ABOUTME: Agent registration orchestrator atop the dispatcher and token store
// ABOUTME: The sole call-site that writes to the credential store

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// TokenWriter is the write side of the token store. Registration is its only
// caller.
type TokenWriter interface {
	Store(symbol, token string) error
}

// Registration is the outcome of a successful agent registration.
type Registration struct {
	Symbol  string
	Faction string
	Token   string
}

// Registrar registers new agents and persists their issued tokens.
type Registrar struct {
	gw     *Gateway
	tokens TokenWriter
	logger *slog.Logger
}

// NewRegistrar creates a Registrar writing to the given token store.
func NewRegistrar(gw *Gateway, tokens TokenWriter, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		gw:     gw,
		tokens: tokens,
		logger: logger.With("component", "registrar"),
	}
}

type registerRequest struct {
	Symbol  string `json:"symbol"`
	Faction string `json:"faction"`
}

type registerData struct {
	Token string `json:"token"`
	Agent struct {
		Symbol          string `json:"symbol"`
		StartingFaction string `json:"startingFaction"`
	} `json:"agent"`
}

// RegisterAgent creates a new agent with the account credential and stores
// the issued token under the canonical symbol the API returns. On any
// non-creation status the remote error message is surfaced verbatim.
func (r *Registrar) RegisterAgent(ctx context.Context, symbol, faction string) (*Registration, error) {
	resp, err := r.gw.Post(ctx, "register", AccountCredential(), registerRequest{
		Symbol:  symbol,
		Faction: faction,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("registration failed: %s (status %d)", resp.ErrorMessage(), resp.StatusCode)
	}

	var data registerData
	if err := resp.Data(&data); err != nil {
		return nil, fmt.Errorf("parsing registration response: %w", err)
	}
	if data.Token == "" || data.Agent.Symbol == "" {
		return nil, fmt.Errorf("registration response missing token or agent symbol")
	}

	if err := r.tokens.Store(data.Agent.Symbol, data.Token); err != nil {
		return nil, err
	}

	r.logger.Info("registered agent",
		"agent", data.Agent.Symbol,
		"faction", data.Agent.StartingFaction,
	)

	return &Registration{
		Symbol:  data.Agent.Symbol,
		Faction: data.Agent.StartingFaction,
		Token:   data.Token,
	}, nil
}
