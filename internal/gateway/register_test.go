// ABOUTME: Tests for agent registration and token persistence
// ABOUTME: Verifies canonical-symbol storage and error surfacing on refusal

package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapTokenWriter records Store calls in memory.
type mapTokenWriter struct {
	stored map[string]string
	err    error
}

func (w *mapTokenWriter) Store(symbol, token string) error {
	if w.err != nil {
		return w.err
	}
	if w.stored == nil {
		w.stored = make(map[string]string)
	}
	w.stored[symbol] = token
	return nil
}

func TestRegisterAgent(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"token":"tok123","agent":{"symbol":"ALPHA","startingFaction":"COSMIC"}}}`))
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, Config{AccountToken: "acct"})
	writer := &mapTokenWriter{}
	reg := NewRegistrar(gw, writer, nil)

	// Lowercase on the way in: the API canonicalizes the symbol
	out, err := reg.RegisterAgent(context.Background(), "alpha", "COSMIC")
	require.NoError(t, err)

	assert.Equal(t, "Bearer acct", gotAuth)
	assert.JSONEq(t, `{"symbol":"alpha","faction":"COSMIC"}`, string(gotBody))

	assert.Equal(t, "ALPHA", out.Symbol)
	assert.Equal(t, "COSMIC", out.Faction)
	assert.Equal(t, "tok123", out.Token)

	// Stored under the canonical symbol from the response, not the input
	assert.Equal(t, map[string]string{"ALPHA": "tok123"}, writer.stored)
}

func TestRegisterAgentRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"message":"Agent symbol ALPHA has already been claimed.","code":4111}}`))
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, Config{AccountToken: "acct"})
	writer := &mapTokenWriter{}
	reg := NewRegistrar(gw, writer, nil)

	_, err := reg.RegisterAgent(context.Background(), "ALPHA", "COSMIC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Agent symbol ALPHA has already been claimed.")
	assert.Contains(t, err.Error(), "409")
	assert.Empty(t, writer.stored, "no token persisted on refusal")
}

func TestRegisterAgentWithoutAccountToken(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, Config{})
	reg := NewRegistrar(gw, &mapTokenWriter{}, nil)

	_, err := reg.RegisterAgent(context.Background(), "ALPHA", "COSMIC")
	assert.ErrorIs(t, err, ErrMissingAccountToken)
	assert.Equal(t, 0, hits)
}

func TestRegisterAgentMalformedResponse(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"agent":{"symbol":"ALPHA"}}}`))
		}))
		defer srv.Close()

		gw := newTestGateway(t, srv.URL, Config{AccountToken: "acct"})
		reg := NewRegistrar(gw, &mapTokenWriter{}, nil)

		_, err := reg.RegisterAgent(context.Background(), "ALPHA", "COSMIC")
		assert.ErrorContains(t, err, "missing token or agent symbol")
	})

	t.Run("no data payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		gw := newTestGateway(t, srv.URL, Config{AccountToken: "acct"})
		reg := NewRegistrar(gw, &mapTokenWriter{}, nil)

		_, err := reg.RegisterAgent(context.Background(), "ALPHA", "COSMIC")
		assert.ErrorContains(t, err, "parsing registration response")
	})
}

func TestRegisterAgentStoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"token": "tok123",
				"agent": map[string]any{"symbol": "ALPHA", "startingFaction": "COSMIC"},
			},
		})
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, Config{AccountToken: "acct"})
	writer := &mapTokenWriter{err: assert.AnError}
	reg := NewRegistrar(gw, writer, nil)

	_, err := reg.RegisterAgent(context.Background(), "ALPHA", "COSMIC")
	assert.ErrorIs(t, err, assert.AnError)
}
