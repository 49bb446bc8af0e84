package natsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/bjaus/procedure"
)

const logPrefix = "natsrpc:server"

// DefaultTimeout bounds a call when no timeout is configured.
const DefaultTimeout = 25 * time.Second

// Server answers call envelopes published on one subject.
type Server struct {
	d       *procedure.Dispatcher
	nc      *comms.Conn
	subject string
	queue   string
	timeout time.Duration

	mu  sync.Mutex
	sub *comms.Subscription
}

// Option configures a Server.
type Option func(*Server)

// WithQueue joins the queue group so that several servers share the load of
// one subject.
func WithQueue(queue string) Option {
	return func(s *Server) { s.queue = queue }
}

// WithTimeout bounds every call. A caller may ask for less, never more.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates a Server dispatching requests on subject to d.
func NewServer(nc *comms.Conn, d *procedure.Dispatcher, subject string, opts ...Option) *Server {
	s := &Server{
		d:       d,
		nc:      nc,
		subject: subject,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to the subject. Calls run with contexts derived from ctx,
// so cancelling ctx cancels calls in progress.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return fmt.Errorf("%s - already started on %s", logPrefix, s.subject)
	}

	handler := func(msg *comms.Msg) {
		s.handle(ctx, msg)
	}
	var (
		sub *comms.Subscription
		err error
	)
	if s.queue != "" {
		sub, err = s.nc.QueueSubscribe(s.subject, s.queue, handler)
	} else {
		sub, err = s.nc.Subscribe(s.subject, handler)
	}
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, s.subject, err)
	}
	s.sub = sub
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, s.subject))
	return nil
}

// Stop drains the subscription: requests already received are answered,
// then no more are accepted.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return nil
	}
	err := s.sub.Drain()
	s.sub = nil
	if err != nil && !errors.Is(err, comms.ErrConnectionClosed) {
		return fmt.Errorf("%s - failed to drain %s: %w", logPrefix, s.subject, err)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, msg *comms.Msg) {
	var req Request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
		s.respond(msg, s.failure("", "", procedure.WrapError(procedure.CodeParseError, err)))
		return
	}
	if !req.Kind.Valid() {
		s.respond(msg, s.failure(req.ID, req.Path, procedure.NewError(procedure.CodeBadRequest, "kind is required")))
		return
	}

	// Per-request timeout; the caller may only shorten it.
	timeout := s.timeout
	if req.TimeoutMs > 0 {
		if d := time.Duration(req.TimeoutMs) * time.Millisecond; d < timeout {
			timeout = d
		}
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	call := procedure.Call{
		Path:   req.Path,
		Kind:   req.Kind,
		Values: req.Ctx,
	}
	if len(req.Input) > 0 {
		call.Input = req.Input
	}
	res := s.d.Dispatch(reqCtx, call)

	resp := &Response{ID: req.ID, Ok: res.OK(), Result: res.Data, Error: res.Error}
	s.respond(msg, resp)
}

func (s *Server) failure(id, path string, err error) *Response {
	shape := s.d.FormatError(err, path)
	return &Response{ID: id, Ok: false, Error: &shape}
}

func (s *Server) respond(msg *comms.Msg, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		data, _ = json.Marshal(s.failure(resp.ID, "", fmt.Errorf("encode response: %w", err)))
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
	}
}
