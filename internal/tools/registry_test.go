// ABOUTME: Tests for the tool registry: registration, collisions, and dispatch
// ABOUTME: Covers empty-input normalization and error pass-through

package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its input",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, input json.RawMessage) (json.RawMessage, error) {
			return input, nil
		},
	}
}

func TestRegister(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Register(echoTool("echo")))
		assert.Equal(t, 1, r.Len())
		assert.NotNil(t, r.Get("echo"))
	})

	t.Run("collision", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Register(echoTool("echo")))
		err := r.Register(echoTool("echo"))
		assert.ErrorIs(t, err, ErrToolCollision)
	})

	t.Run("empty name", func(t *testing.T) {
		r := NewRegistry(nil)
		assert.Error(t, r.Register(&Tool{Handler: echoTool("x").Handler}))
	})

	t.Run("nil handler", func(t *testing.T) {
		r := NewRegistry(nil)
		assert.Error(t, r.Register(&Tool{Name: "broken"}))
	})
}

func TestRegisterAll(t *testing.T) {
	r := NewRegistry(nil)
	err := r.RegisterAll([]*Tool{echoTool("a"), echoTool("b"), echoTool("a")})
	assert.ErrorIs(t, err, ErrToolCollision)
	assert.Equal(t, 2, r.Len())
}

func TestListSorted(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterAll([]*Tool{echoTool("zeta"), echoTool("alpha"), echoTool("mid")}))

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestCall(t *testing.T) {
	t.Run("dispatches to the handler", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Register(echoTool("echo")))

		out, err := r.Call(context.Background(), "echo", json.RawMessage(`{"x":1}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":1}`, string(out))
	})

	t.Run("unknown tool", func(t *testing.T) {
		r := NewRegistry(nil)
		_, err := r.Call(context.Background(), "nope", nil)
		assert.ErrorIs(t, err, ErrToolNotFound)
	})

	t.Run("nil input becomes empty object", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Register(echoTool("echo")))

		out, err := r.Call(context.Background(), "echo", nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(out))
	})

	t.Run("json null becomes empty object", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Register(echoTool("echo")))

		out, err := r.Call(context.Background(), "echo", json.RawMessage(`null`))
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(out))
	})

	t.Run("handler error is returned", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Register(&Tool{
			Name: "failing",
			Handler: func(context.Context, json.RawMessage) (json.RawMessage, error) {
				return nil, assert.AnError
			},
		}))

		_, err := r.Call(context.Background(), "failing", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, assert.AnError)
	})
}
