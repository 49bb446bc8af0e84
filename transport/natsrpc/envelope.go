// Package natsrpc serves a procedure dispatcher over NATS request/reply and
// provides the matching client.
package natsrpc

import (
	"encoding/json"

	"github.com/bjaus/procedure"
)

// Request is the JSON envelope of an incoming call.
type Request struct {
	ID        string           `json:"id"`
	Path      string           `json:"path"`
	Kind      procedure.Kind   `json:"kind"`
	Input     json.RawMessage  `json:"input,omitempty"`
	Ctx       procedure.Values `json:"ctx,omitempty"`
	TimeoutMs int              `json:"timeoutMs,omitempty"`
}

// Response is the JSON envelope of a reply.
type Response struct {
	ID     string                `json:"id"`
	Ok     bool                  `json:"ok"`
	Result any                   `json:"result,omitempty"`
	Error  *procedure.ErrorShape `json:"error,omitempty"`
}

// Err returns the error shape of a failed reply, or nil.
func (r *Response) Err() error {
	if r.Ok || r.Error == nil {
		return nil
	}
	return *r.Error
}
