// ABOUTME: Cargo tools: inventory, selling, jettison, and ship-to-ship transfer
// ABOUTME: All operate on a docked or orbiting ship via single dispatches

package trader

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/startrader/gateway/internal/gateway"
	"github.com/startrader/gateway/internal/tools"
)

func (h *handlers) cargoTools() []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "view_ship_cargo",
			Description: "View a ship's cargo hold: capacity, units, and inventory.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.ViewShipCargo,
		},
		{
			Name:        "sell_cargo",
			Description: "Sell cargo units at the ship's current marketplace. The ship must be docked.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"},"cargo_symbol":{"type":"string"},"units":{"type":"integer"}},"required":["agent_symbol","ship_symbol","cargo_symbol","units"]}`),
			Handler:     h.SellCargo,
		},
		{
			Name:        "jettison_cargo",
			Description: "Jettison cargo units from a ship's hold.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"},"cargo_symbol":{"type":"string"},"units":{"type":"integer"}},"required":["agent_symbol","ship_symbol","cargo_symbol","units"]}`),
			Handler:     h.JettisonCargo,
		},
		{
			Name:        "transfer_cargo",
			Description: "Transfer cargo between two of an agent's ships at the same waypoint.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"source_ship":{"type":"string"},"destination_ship":{"type":"string"},"cargo_symbol":{"type":"string"},"units":{"type":"integer"}},"required":["agent_symbol","source_ship","destination_ship","cargo_symbol","units"]}`),
			Handler:     h.TransferCargo,
		},
	}
}

func (h *handlers) ViewShipCargo(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodGet, "my/ships/"+in.ShipSymbol+"/cargo", gateway.AgentCredential(in.AgentSymbol), nil)
}

type cargoInput struct {
	AgentSymbol string `json:"agent_symbol"`
	ShipSymbol  string `json:"ship_symbol"`
	CargoSymbol string `json:"cargo_symbol"`
	Units       int    `json:"units"`
}

func (h *handlers) SellCargo(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in cargoInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	body := map[string]any{"symbol": in.CargoSymbol, "units": in.Units}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/sell", gateway.AgentCredential(in.AgentSymbol), body)
}

func (h *handlers) JettisonCargo(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in cargoInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	body := map[string]any{"symbol": in.CargoSymbol, "units": in.Units}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/jettison", gateway.AgentCredential(in.AgentSymbol), body)
}

type transferInput struct {
	AgentSymbol     string `json:"agent_symbol"`
	SourceShip      string `json:"source_ship"`
	DestinationShip string `json:"destination_ship"`
	CargoSymbol     string `json:"cargo_symbol"`
	Units           int    `json:"units"`
}

func (h *handlers) TransferCargo(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in transferInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	body := map[string]any{
		"tradeSymbol": in.CargoSymbol,
		"units":       in.Units,
		"shipSymbol":  in.DestinationShip,
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.SourceShip+"/transfer", gateway.AgentCredential(in.AgentSymbol), body)
}
