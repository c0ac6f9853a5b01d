// ABOUTME: Entry point for the startrader-gateway MCP server and CLI
// ABOUTME: Wires config, token store, rate limiter, dispatcher, audit store, and MCP transport

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/startrader/gateway/internal/config"
	"github.com/startrader/gateway/internal/gateway"
	"github.com/startrader/gateway/internal/mcp"
	"github.com/startrader/gateway/internal/ratelimit"
	"github.com/startrader/gateway/internal/store"
	"github.com/startrader/gateway/internal/tokens"
	"github.com/startrader/gateway/internal/tools"
	"github.com/startrader/gateway/internal/trader"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
      _             _                 _
  ___| |_ __ _ _ __| |_ _ __ __ _  __| | ___ _ __
 / __| __/ _' | '__| __| '__/ _' |/ _' |/ _ \ '__|
 \__ \ || (_| | |  | |_| | | (_| | (_| |  __/ |
 |___/\__\__,_|_|   \__|_|  \__,_|\__,_|\___|_|
`

// getConfigPath returns the path to the gateway config file.
// Priority: STARTRADER_CONFIG env var > XDG_CONFIG_HOME/startrader/gateway.yaml > ~/.config/startrader/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("STARTRADER_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "startrader", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: startrader-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                       Start the MCP gateway server")
		fmt.Println("  init                        Write a default config file")
		fmt.Println("  register SYMBOL [FACTION]   Register a new agent and store its token")
		fmt.Println("  agents                      List agents with stored tokens")
		fmt.Println("  history [LIMIT]             Show recent dispatched requests")
		fmt.Println("  call METHOD PATH [AGENT]    Dispatch a raw API request")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "register":
		err = runRegister(ctx, os.Args[2:])
	case "agents":
		err = runAgents()
	case "history":
		err = runHistory(ctx, os.Args[2:])
	case "call":
		err = runCall(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// components bundles everything built from one config load.
type components struct {
	cfg       *config.Config
	tokens    *tokens.Store
	gw        *gateway.Gateway
	registrar *gateway.Registrar
	audit     *store.SQLiteStore // nil when auditing is disabled
	logger    *slog.Logger
}

// buildComponents loads config and wires the gateway stack.
func buildComponents(configPath string) (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	tokenStore, err := tokens.Load(cfg.Tokens.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("loading token store: %w", err)
	}

	limiter, err := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Period)
	if err != nil {
		return nil, fmt.Errorf("creating rate limiter: %w", err)
	}

	var audit *store.SQLiteStore
	if cfg.Database.Path != "" {
		audit, err = store.NewSQLiteStore(cfg.Database.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
	}

	httpClient := &http.Client{}
	if cfg.API.Timeout > 0 {
		httpClient.Timeout = cfg.API.Timeout
	}

	gwCfg := gateway.Config{
		BaseURL:      cfg.API.BaseURL,
		AccountToken: cfg.API.AccountToken,
		Tokens:       tokenStore,
		Limiter:      limiter,
		HTTPClient:   httpClient,
		Logger:       logger,
	}
	if audit != nil {
		gwCfg.Auditor = audit
	}

	gw, err := gateway.New(gwCfg)
	if err != nil {
		return nil, fmt.Errorf("creating gateway: %w", err)
	}

	return &components{
		cfg:       cfg,
		tokens:    tokenStore,
		gw:        gw,
		registrar: gateway.NewRegistrar(gw, tokenStore, logger),
		audit:     audit,
		logger:    logger,
	}, nil
}

func (c *components) close() {
	if c.audit != nil {
		c.audit.Close()
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	c, err := buildComponents(configPath)
	if err != nil {
		return err
	}
	defer c.close()

	if !c.gw.HasAccountToken() {
		color.New(color.FgYellow).Println("    ! no account token configured; registration will be unavailable")
	}

	registry := tools.NewRegistry(c.logger)
	if err := registry.RegisterAll(trader.Pack(c.gw, c.registrar, c.logger)); err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	server, err := mcp.NewServer(mcp.Config{
		Registry:      registry,
		Logger:        c.logger,
		AccessToken:   c.cfg.Server.AccessToken,
		ServerName:    "startrader-gateway",
		ServerVersion: version,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	httpAddr := c.cfg.Server.HTTPAddr
	if httpAddr == "" {
		httpAddr = "127.0.0.1:8490"
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("API:     %s\n", c.cfg.API.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("MCP:     http://%s/mcp\n", httpAddr)
	green.Print("    ▶ ")
	fmt.Printf("Tools:   %d\n", registry.Len())
	fmt.Println()

	c.logger.Info("starting startrader-gateway",
		"config", configPath,
		"http_addr", httpAddr,
		"base_url", c.cfg.API.BaseURL,
		"tools", registry.Len(),
	)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}

	c.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

const defaultConfig = `# startrader-gateway configuration
api:
  base_url: https://api.spacetraders.io/v2
  # Account token from https://my.spacetraders.io, used for registration
  account_token: ${SPACETRADERS_API_KEY}
  timeout: 30s

rate_limit:
  requests: 2
  period: 1s

tokens:
  path: agent_tokens.json

# Leave the path empty to disable the request audit log
database:
  path: requests.db

server:
  http_addr: 127.0.0.1:8490
  # access_token: change-me

logging:
  level: info
  format: text
`

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	color.New(color.FgGreen).Print("✓ ")
	fmt.Printf("Wrote %s\n", configPath)
	return nil
}

func runRegister(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: startrader-gateway register SYMBOL [FACTION]")
	}
	symbol := args[0]
	faction := "COSMIC"
	if len(args) > 1 {
		faction = args[1]
	}

	c, err := buildComponents(getConfigPath())
	if err != nil {
		return err
	}
	defer c.close()

	registration, err := c.registrar.RegisterAgent(ctx, symbol, faction)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Print("✓ ")
	fmt.Printf("Registered agent %s (faction %s); token stored\n", registration.Symbol, registration.Faction)
	return nil
}

func runAgents() error {
	c, err := buildComponents(getConfigPath())
	if err != nil {
		return err
	}
	defer c.close()

	symbols := c.tokens.Symbols()
	if len(symbols) == 0 {
		fmt.Println("No agents registered")
		return nil
	}

	for _, symbol := range symbols {
		color.New(color.FgCyan).Print("● ")
		fmt.Println(symbol)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	limit := 20
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &limit); err != nil {
			return fmt.Errorf("invalid limit %q", args[0])
		}
	}

	c, err := buildComponents(getConfigPath())
	if err != nil {
		return err
	}
	defer c.close()

	if c.audit == nil {
		return fmt.Errorf("request auditing is disabled (database.path is empty)")
	}

	records, err := c.audit.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack)
	for _, rec := range records {
		gray.Printf("%s ", rec.CreatedAt.Local().Format("15:04:05"))

		switch {
		case rec.Error != "":
			color.New(color.FgRed).Printf("ERR ")
		case rec.Status >= 400:
			color.New(color.FgYellow).Printf("%d ", rec.Status)
		default:
			color.New(color.FgGreen).Printf("%d ", rec.Status)
		}

		fmt.Printf("%-4s %s", rec.Method, rec.Path)
		if rec.AgentSymbol != "" {
			gray.Printf(" agent=%s", rec.AgentSymbol)
		}
		gray.Printf(" %dms", rec.DurationMs)
		if rec.Error != "" {
			color.New(color.FgRed).Printf(" %s", rec.Error)
		}
		fmt.Println()
	}
	return nil
}

func runCall(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: startrader-gateway call METHOD PATH [AGENT]")
	}
	method := strings.ToUpper(args[0])
	path := args[1]

	cred := gateway.NoCredential()
	if len(args) > 2 {
		cred = gateway.AgentCredential(args[2])
	}

	c, err := buildComponents(getConfigPath())
	if err != nil {
		return err
	}
	defer c.close()

	resp, err := c.gw.Dispatch(ctx, gateway.Request{Method: method, Path: path, Credential: cred})
	if err != nil {
		return err
	}

	if resp.OK() {
		color.New(color.FgGreen).Printf("%d\n", resp.StatusCode)
	} else {
		color.New(color.FgRed).Printf("%d\n", resp.StatusCode)
	}

	if len(resp.Body) > 0 {
		var pretty json.RawMessage
		if err := json.Unmarshal(resp.Body, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
		} else {
			fmt.Println(string(resp.Body))
		}
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
