// ABOUTME: Contract tools: listing, negotiation, acceptance, delivery, fulfillment
// ABOUTME: Multi-step contract flows are independent dispatches with no rollback

package trader

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/startrader/gateway/internal/gateway"
	"github.com/startrader/gateway/internal/tools"
)

func (h *handlers) contractTools() []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "list_contracts",
			Description: "List an agent's contracts with terms and status.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"}},"required":["agent_symbol"]}`),
			Handler:     h.ListContracts,
		},
		{
			Name:        "get_contract",
			Description: "View a single contract by ID.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"contract_id":{"type":"string"}},"required":["agent_symbol","contract_id"]}`),
			Handler:     h.GetContract,
		},
		{
			Name:        "negotiate_contract",
			Description: "Negotiate a new contract with a docked ship.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.NegotiateContract,
		},
		{
			Name:        "accept_contract",
			Description: "Accept a contract, collecting the advance payment.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"contract_id":{"type":"string"}},"required":["agent_symbol","contract_id"]}`),
			Handler:     h.AcceptContract,
		},
		{
			Name:        "deliver_contract_cargo",
			Description: "Deliver cargo toward a contract from a docked ship.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"contract_id":{"type":"string"},"ship_symbol":{"type":"string"},"trade_symbol":{"type":"string"},"units":{"type":"integer"}},"required":["agent_symbol","contract_id","ship_symbol","trade_symbol","units"]}`),
			Handler:     h.DeliverContractCargo,
		},
		{
			Name:        "fulfill_contract",
			Description: "Fulfill a contract whose delivery terms are met, collecting payment.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"contract_id":{"type":"string"}},"required":["agent_symbol","contract_id"]}`),
			Handler:     h.FulfillContract,
		},
	}
}

func (h *handlers) ListContracts(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in agentSymbolInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodGet, "my/contracts", gateway.AgentCredential(in.AgentSymbol), nil)
}

type contractInput struct {
	AgentSymbol string `json:"agent_symbol"`
	ContractID  string `json:"contract_id"`
}

func (h *handlers) GetContract(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in contractInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodGet, "my/contracts/"+in.ContractID, gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) NegotiateContract(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/negotiate/contract", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) AcceptContract(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in contractInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/contracts/"+in.ContractID+"/accept", gateway.AgentCredential(in.AgentSymbol), nil)
}

type deliverInput struct {
	AgentSymbol string `json:"agent_symbol"`
	ContractID  string `json:"contract_id"`
	ShipSymbol  string `json:"ship_symbol"`
	TradeSymbol string `json:"trade_symbol"`
	Units       int    `json:"units"`
}

func (h *handlers) DeliverContractCargo(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in deliverInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	body := map[string]any{
		"shipSymbol":  in.ShipSymbol,
		"tradeSymbol": in.TradeSymbol,
		"units":       in.Units,
	}
	return h.call(ctx, http.MethodPost, "my/contracts/"+in.ContractID+"/deliver", gateway.AgentCredential(in.AgentSymbol), body)
}

func (h *handlers) FulfillContract(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in contractInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/contracts/"+in.ContractID+"/fulfill", gateway.AgentCredential(in.AgentSymbol), nil)
}
