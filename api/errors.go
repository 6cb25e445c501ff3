package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Error is the one error shape that crosses the executor boundary.
// Heterogeneous transport failures (non-2xx responses, network errors,
// malformed bodies) all become this type; consumers above the executor
// never see a raw transport error.
type Error struct {
	// Status is the HTTP status code, or 0 when the failure happened
	// before a response existed (network error, cancelled context).
	Status int
	// Message is a human-readable description.
	Message string
	// Details carries whatever opaque payload the server attached.
	Details any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return "api: " + e.Message
}

// AsError unwraps err into *Error when it is one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

// errorFromResponse builds an Error from a non-2xx response. The body may
// carry {message} or {error} plus optional {details}; when it carries
// neither, the status text stands in.
func errorFromResponse(resp *Response) *Error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	body := gjson.ParseBytes(resp.Body)
	if msg := body.Get("message"); msg.Exists() && msg.String() != "" {
		apiErr.Message = msg.String()
	} else if msg := body.Get("error"); msg.Exists() && msg.String() != "" {
		apiErr.Message = msg.String()
	} else if trimmed := strings.TrimSpace(string(resp.Body)); trimmed != "" && !body.IsObject() {
		apiErr.Message = trimmed
	}

	if details := body.Get("details"); details.Exists() {
		var v any
		if err := json.Unmarshal([]byte(details.Raw), &v); err == nil {
			apiErr.Details = v
		}
	}

	return apiErr
}

// normalizeError converts a transport-level failure into an Error.
// Already-normalized errors pass through unchanged.
func normalizeError(err error) *Error {
	if apiErr, ok := AsError(err); ok {
		return apiErr
	}
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Message: msg}
}
