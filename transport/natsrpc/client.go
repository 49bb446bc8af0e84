package natsrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/bjaus/procedure"
)

// Invoke sends req to the server listening on subject and waits for the
// reply until ctx is done. An empty request ID is filled in. The returned
// error reports transport failures only; a failed call is a Response with
// Ok false.
func Invoke(ctx context.Context, nc *comms.Conn, subject string, req Request) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.Must(uuid.NewV7()).String()
	}
	if req.TimeoutMs == 0 {
		if deadline, ok := ctx.Deadline(); ok {
			if ms := time.Until(deadline).Milliseconds(); ms > 0 {
				req.TimeoutMs = int(ms)
			}
		}
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("natsrpc:client - failed to encode request: %w", err)
	}
	msg, err := nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("natsrpc:client - request %s on %s: %w", req.Path, subject, err)
	}

	var resp Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("natsrpc:client - failed to decode response: %w", err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("natsrpc:client - response id %q does not match request id %q", resp.ID, req.ID)
	}
	return &resp, nil
}

// Call is Invoke for callers that only want the data: input is JSON-encoded
// and a failed call is returned as its procedure.ErrorShape.
func Call(ctx context.Context, nc *comms.Conn, subject, path string, kind procedure.Kind, input any) (any, error) {
	req := Request{Path: path, Kind: kind}
	if input != nil {
		raw, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("natsrpc:client - failed to encode input: %w", err)
		}
		req.Input = raw
	}
	resp, err := Invoke(ctx, nc, subject, req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Result, nil
}
