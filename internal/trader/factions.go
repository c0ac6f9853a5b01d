// ABOUTME: Faction tools: global reference data listings
// ABOUTME: Account-scoped reads used when choosing a starting faction

package trader

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/startrader/gateway/internal/gateway"
	"github.com/startrader/gateway/internal/tools"
)

func (h *handlers) factionTools() []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "list_factions",
			Description: "List all factions: symbols, names, headquarters, and traits.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Handler:     h.ListFactions,
		},
		{
			Name:        "get_faction",
			Description: "View the details of a specific faction.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"faction_symbol":{"type":"string"}},"required":["faction_symbol"]}`),
			Handler:     h.GetFaction,
		},
	}
}

func (h *handlers) ListFactions(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	return h.call(ctx, http.MethodGet, "factions", gateway.AccountCredential(), nil)
}

type factionSymbolInput struct {
	FactionSymbol string `json:"faction_symbol"`
}

func (h *handlers) GetFaction(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in factionSymbolInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	return h.call(ctx, http.MethodGet, "factions/"+in.FactionSymbol, gateway.AccountCredential(), nil)
}
