// ABOUTME: Assembles the SpaceTraders tool pack and shared call-site plumbing
// ABOUTME: Every tool is one dispatch plus uniform envelope interpretation

package trader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/startrader/gateway/internal/gateway"
	"github.com/startrader/gateway/internal/tools"
)

// handlers carries the dependencies shared by all trader tools.
type handlers struct {
	gw     *gateway.Gateway
	reg    *gateway.Registrar
	logger *slog.Logger
}

// Pack returns the full SpaceTraders tool set backed by the given gateway.
func Pack(gw *gateway.Gateway, reg *gateway.Registrar, logger *slog.Logger) []*tools.Tool {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{gw: gw, reg: reg, logger: logger.With("component", "trader")}

	var ts []*tools.Tool
	ts = append(ts, h.agentTools()...)
	ts = append(ts, h.factionTools()...)
	ts = append(ts, h.fleetTools()...)
	ts = append(ts, h.cargoTools()...)
	ts = append(ts, h.contractTools()...)
	ts = append(ts, h.explorationTools()...)
	return ts
}

// call performs one dispatch and interprets the response envelope: 2xx yields
// the "data" payload, anything else becomes an error carrying the remote
// message and status. This is the single interpretation pattern all trader
// tools share.
func (h *handlers) call(ctx context.Context, method, path string, cred gateway.Credential, body any) (json.RawMessage, error) {
	resp, err := h.gw.Dispatch(ctx, gateway.Request{
		Method:     method,
		Path:       path,
		Credential: cred,
		Body:       body,
	})
	if err != nil {
		return nil, err
	}
	return dataOrError(resp)
}

// dataOrError classifies a raw response per the API envelope convention.
func dataOrError(resp *gateway.Response) (json.RawMessage, error) {
	if !resp.OK() {
		return nil, fmt.Errorf("%s (status %d)", resp.ErrorMessage(), resp.StatusCode)
	}
	if resp.NoContent() {
		return json.RawMessage(`{}`), nil
	}

	var data json.RawMessage
	if err := resp.Data(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// systemFromWaypoint derives a system symbol from a waypoint symbol.
// Waypoint symbols are SECTOR-SYSTEM-WAYPOINT; the system is the first two
// segments.
func systemFromWaypoint(waypoint string) string {
	parts := strings.Split(waypoint, "-")
	if len(parts) < 2 {
		return waypoint
	}
	return parts[0] + "-" + parts[1]
}

func decodeInput(input json.RawMessage, v any) error {
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}
