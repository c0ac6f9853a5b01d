// ABOUTME: Agent tools: registration, own-agent details, and public agent listings
// ABOUTME: register_agent is the only tool that writes to the credential store

package trader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/startrader/gateway/internal/gateway"
	"github.com/startrader/gateway/internal/tools"
)

func (h *handlers) agentTools() []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "register_agent",
			Description: "Register a new agent with the SpaceTraders API and store its token. Requires the account token.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"symbol":{"type":"string","description":"Desired agent callsign"},"faction":{"type":"string","description":"Starting faction","default":"COSMIC"}},"required":["symbol"]}`),
			Handler:     h.RegisterAgent,
		},
		{
			Name:        "view_agent",
			Description: "View details of one of your agents: credits, headquarters, ship count.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"}},"required":["agent_symbol"]}`),
			Handler:     h.ViewAgent,
		},
		{
			Name:        "list_agents",
			Description: "List all publicly visible agents.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string","description":"Agent whose token authenticates the request"}},"required":["agent_symbol"]}`),
			Handler:     h.ListAgents,
		},
		{
			Name:        "get_public_agent",
			Description: "View the public details of any agent by symbol.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"}},"required":["agent_symbol"]}`),
			Handler:     h.GetPublicAgent,
		},
	}
}

type registerAgentInput struct {
	Symbol  string `json:"symbol"`
	Faction string `json:"faction"`
}

func (h *handlers) RegisterAgent(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in registerAgentInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if in.Faction == "" {
		in.Faction = "COSMIC"
	}

	registration, err := h.reg.RegisterAgent(ctx, in.Symbol, in.Faction)
	if err != nil {
		return nil, err
	}

	return json.Marshal(map[string]string{
		"agent":   registration.Symbol,
		"faction": registration.Faction,
		"status":  "registered, token stored",
	})
}

type agentSymbolInput struct {
	AgentSymbol string `json:"agent_symbol"`
}

func (h *handlers) ViewAgent(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in agentSymbolInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodGet, "my/agent", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) ListAgents(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in agentSymbolInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodGet, "agents", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) GetPublicAgent(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in agentSymbolInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	// Public endpoint: no credential needed
	return h.call(ctx, http.MethodGet, "agents/"+in.AgentSymbol, gateway.NoCredential(), nil)
}
