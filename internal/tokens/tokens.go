// ABOUTME: Durable agent token store backed by a JSON file
// ABOUTME: Supports concurrent reads with serialized, atomically persisted writes

package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrCorrupt indicates the token file exists but could not be parsed.
// A missing file is not an error; a corrupt one must be surfaced to the
// operator rather than silently replaced with an empty store.
var ErrCorrupt = errors.New("token file corrupt")

// Store maps agent symbols to their bearer tokens and persists the full
// mapping after every write. There is no delete operation; the only writer
// is agent registration.
type Store struct {
	mu     sync.RWMutex
	path   string
	tokens map[string]string
	logger *slog.Logger
}

// Load reads the token mapping from path. A missing file yields an empty
// store. An unreadable or malformed file returns an error wrapping ErrCorrupt.
func Load(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tokens")

	s := &Store{
		path:   path,
		tokens: make(map[string]string),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no token file, starting empty", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCorrupt, path, err)
	}

	if err := json.Unmarshal(data, &s.tokens); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrCorrupt, path, err)
	}

	logger.Debug("loaded token file", "path", path, "agents", len(s.tokens))
	return s, nil
}

// Get returns the stored token for an agent symbol.
func (s *Store) Get(symbol string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[symbol]
	return token, ok
}

// Store inserts or overwrites the token for an agent symbol and persists the
// entire mapping before returning. Readers never observe a partially written
// mapping: the in-memory map is guarded by the lock and the file is replaced
// atomically via rename.
func (s *Store) Store(symbol, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[symbol] = token
	if err := s.persist(); err != nil {
		return fmt.Errorf("persisting token for %s: %w", symbol, err)
	}

	s.logger.Info("stored agent token", "agent", symbol)
	return nil
}

// Symbols returns the stored agent symbols in sorted order.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.tokens))
	for symbol := range s.tokens {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Len returns the number of stored tokens.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// persist writes the mapping as pretty-printed JSON. Caller must hold the
// write lock.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	// Write to a temp file in the same directory, then rename over the
	// target so a crash mid-write cannot leave a torn file behind.
	tmp, err := os.CreateTemp(dir, ".agent_tokens-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	// Tokens are credentials; keep the file private
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting token file mode: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing token file: %w", err)
	}

	return nil
}
