// ABOUTME: Fleet tools: ship listings, flight mode transitions, purchase, refuel, cooldown
// ABOUTME: Cooldown maps the API's 204 to an explicit no-cooldown result

package trader

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/startrader/gateway/internal/gateway"
	"github.com/startrader/gateway/internal/tools"
)

func (h *handlers) fleetTools() []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "list_ships",
			Description: "List all ships owned by an agent.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"}},"required":["agent_symbol"]}`),
			Handler:     h.ListShips,
		},
		{
			Name:        "view_ship",
			Description: "View the full details of one ship: nav, crew, fuel, cargo, mounts.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.ViewShip,
		},
		{
			Name:        "purchase_ship",
			Description: "Purchase a ship of the given type at a shipyard waypoint.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_type":{"type":"string"},"waypoint_symbol":{"type":"string"}},"required":["agent_symbol","ship_type","waypoint_symbol"]}`),
			Handler:     h.PurchaseShip,
		},
		{
			Name:        "orbit_ship",
			Description: "Move a docked ship into orbit.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.OrbitShip,
		},
		{
			Name:        "dock_ship",
			Description: "Dock a ship at its current waypoint.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.DockShip,
		},
		{
			Name:        "navigate_ship",
			Description: "Navigate a ship in orbit to a waypoint in the same system.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"},"waypoint_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol","waypoint_symbol"]}`),
			Handler:     h.NavigateShip,
		},
		{
			Name:        "refuel_ship",
			Description: "Refuel a docked ship from the local market.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.RefuelShip,
		},
		{
			Name:        "get_ship_cooldown",
			Description: "Check a ship's reactor cooldown. Reports ready when no cooldown is active.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.GetShipCooldown,
		},
	}
}

type shipInput struct {
	AgentSymbol string `json:"agent_symbol"`
	ShipSymbol  string `json:"ship_symbol"`
}

func (h *handlers) ListShips(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in agentSymbolInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodGet, "my/ships", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) ViewShip(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodGet, "my/ships/"+in.ShipSymbol, gateway.AgentCredential(in.AgentSymbol), nil)
}

type purchaseShipInput struct {
	AgentSymbol    string `json:"agent_symbol"`
	ShipType       string `json:"ship_type"`
	WaypointSymbol string `json:"waypoint_symbol"`
}

func (h *handlers) PurchaseShip(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in purchaseShipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	body := map[string]string{
		"shipType":       in.ShipType,
		"waypointSymbol": in.WaypointSymbol,
	}
	return h.call(ctx, http.MethodPost, "my/ships", gateway.AgentCredential(in.AgentSymbol), body)
}

func (h *handlers) OrbitShip(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/orbit", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) DockShip(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/dock", gateway.AgentCredential(in.AgentSymbol), nil)
}

type navigateInput struct {
	AgentSymbol    string `json:"agent_symbol"`
	ShipSymbol     string `json:"ship_symbol"`
	WaypointSymbol string `json:"waypoint_symbol"`
}

func (h *handlers) NavigateShip(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in navigateInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	body := map[string]string{"waypointSymbol": in.WaypointSymbol}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/navigate", gateway.AgentCredential(in.AgentSymbol), body)
}

func (h *handlers) RefuelShip(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/refuel", gateway.AgentCredential(in.AgentSymbol), nil)
}

// GetShipCooldown treats the API's 204 as "ready", not as an error.
func (h *handlers) GetShipCooldown(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	resp, err := h.gw.Get(ctx, "my/ships/"+in.ShipSymbol+"/cooldown", gateway.AgentCredential(in.AgentSymbol))
	if err != nil {
		return nil, err
	}
	if resp.NoContent() {
		return json.Marshal(map[string]any{"active": false, "message": "no active cooldown"})
	}
	return dataOrError(resp)
}
