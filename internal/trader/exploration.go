// ABOUTME: Exploration tools: waypoints, markets, shipyards, scanning, extraction, surveys
// ABOUTME: Market and shipyard paths derive the system symbol from the waypoint symbol

package trader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/startrader/gateway/internal/gateway"
	"github.com/startrader/gateway/internal/tools"
)

func (h *handlers) explorationTools() []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "list_waypoints",
			Description: "List waypoints in a system, optionally filtered by type and/or trait (e.g. SHIPYARD, MARKETPLACE).",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"system_symbol":{"type":"string"},"waypoint_type":{"type":"string"},"trait":{"type":"string"}},"required":["agent_symbol","system_symbol"]}`),
			Handler:     h.ListWaypoints,
		},
		{
			Name:        "view_market",
			Description: "View the market at a waypoint: imports, exports, exchange, and trade goods.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"waypoint_symbol":{"type":"string"}},"required":["agent_symbol","waypoint_symbol"]}`),
			Handler:     h.ViewMarket,
		},
		{
			Name:        "view_shipyard",
			Description: "View the shipyard at a waypoint: ship types and prices.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"waypoint_symbol":{"type":"string"}},"required":["agent_symbol","waypoint_symbol"]}`),
			Handler:     h.ViewShipyard,
		},
		{
			Name:        "scan_systems",
			Description: "Scan nearby systems with a ship's sensor array. Taxes the reactor cooldown.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.ScanSystems,
		},
		{
			Name:        "scan_waypoints",
			Description: "Scan waypoints in the ship's current system. Taxes the reactor cooldown.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.ScanWaypoints,
		},
		{
			Name:        "scan_ships",
			Description: "Scan ships near the ship's current waypoint. Taxes the reactor cooldown.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.ScanShips,
		},
		{
			Name:        "chart_waypoint",
			Description: "Chart the ship's current waypoint, adding it to the public map.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.ChartWaypoint,
		},
		{
			Name:        "extract_resources",
			Description: "Extract resources at the ship's current waypoint with a mining mount.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.ExtractResources,
		},
		{
			Name:        "create_survey",
			Description: "Survey the ship's current waypoint with a surveyor mount for targeted extraction.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"}},"required":["agent_symbol","ship_symbol"]}`),
			Handler:     h.CreateSurvey,
		},
		{
			Name:        "refine_ship",
			Description: "Refine raw materials aboard a ship with a refinery module (e.g. IRON_ORE into IRON).",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_symbol":{"type":"string"},"ship_symbol":{"type":"string"},"produce":{"type":"string"}},"required":["agent_symbol","ship_symbol","produce"]}`),
			Handler:     h.RefineShip,
		},
	}
}

type listWaypointsInput struct {
	AgentSymbol  string `json:"agent_symbol"`
	SystemSymbol string `json:"system_symbol"`
	WaypointType string `json:"waypoint_type"`
	Trait        string `json:"trait"`
}

func (h *handlers) ListWaypoints(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in listWaypointsInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	path := "systems/" + in.SystemSymbol + "/waypoints"
	query := url.Values{}
	if in.WaypointType != "" {
		query.Set("type", in.WaypointType)
	}
	if in.Trait != "" {
		query.Set("traits", in.Trait)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	return h.call(ctx, http.MethodGet, path, gateway.AgentCredential(in.AgentSymbol), nil)
}

type waypointInput struct {
	AgentSymbol    string `json:"agent_symbol"`
	WaypointSymbol string `json:"waypoint_symbol"`
}

func (h *handlers) ViewMarket(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in waypointInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	system := systemFromWaypoint(in.WaypointSymbol)
	path := "systems/" + system + "/waypoints/" + in.WaypointSymbol + "/market"
	return h.call(ctx, http.MethodGet, path, gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) ViewShipyard(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in waypointInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	system := systemFromWaypoint(in.WaypointSymbol)
	path := "systems/" + system + "/waypoints/" + in.WaypointSymbol + "/shipyard"
	return h.call(ctx, http.MethodGet, path, gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) ScanSystems(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/scan/systems", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) ScanWaypoints(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/scan/waypoints", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) ScanShips(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/scan/ships", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) ChartWaypoint(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/chart", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) ExtractResources(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/extract", gateway.AgentCredential(in.AgentSymbol), nil)
}

func (h *handlers) CreateSurvey(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in shipInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/survey", gateway.AgentCredential(in.AgentSymbol), nil)
}

type refineInput struct {
	AgentSymbol string `json:"agent_symbol"`
	ShipSymbol  string `json:"ship_symbol"`
	Produce     string `json:"produce"`
}

func (h *handlers) RefineShip(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in refineInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	body := map[string]string{"produce": in.Produce}
	return h.call(ctx, http.MethodPost, "my/ships/"+in.ShipSymbol+"/refine", gateway.AgentCredential(in.AgentSymbol), body)
}
