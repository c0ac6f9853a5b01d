// ABOUTME: Raw response type and envelope helpers for SpaceTraders API replies
// ABOUTME: Callers use these to classify success and extract data or error messages

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the uninterpreted result of a dispatch: status code plus raw
// body. The gateway returns every structurally valid HTTP response this way,
// including non-2xx statuses.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// NoContent reports whether the response is 204. The API uses this for
// "nothing here" semantics such as a ship with no active cooldown.
func (r *Response) NoContent() bool {
	return r.StatusCode == http.StatusNoContent
}

// envelope is the remote API's response convention: successful replies carry
// a "data" payload, failures an "error" object with a message and code.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Data decodes the response's "data" payload into v.
func (r *Response) Data(v any) error {
	var env envelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return fmt.Errorf("decoding response envelope: %w", err)
	}
	if env.Data == nil {
		return fmt.Errorf("response has no data payload")
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decoding data payload: %w", err)
	}
	return nil
}

// ErrorMessage extracts the error message from the response envelope.
// Falls back to the raw body when the envelope is absent or unparseable.
func (r *Response) ErrorMessage() string {
	var env envelope
	if err := json.Unmarshal(r.Body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	if len(r.Body) == 0 {
		return http.StatusText(r.StatusCode)
	}
	return string(r.Body)
}
