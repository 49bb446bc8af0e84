// Package httprpc serves a procedure dispatcher over HTTP.
//
// A query is called with GET and its input JSON-encoded in the "input" query
// parameter; a mutation is called with POST and its input as the request
// body. The response body is {"result":{"data":...}} on success and
// {"error":{...}} on failure, with the HTTP status of the error code.
//
//	mux.Handle("/rpc/", httprpc.New(d, httprpc.WithPrefix("/rpc/")))
package httprpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bjaus/procedure"
)

const logPrefix = "httprpc:handler"

// DefaultMaxBody is the largest request body read for a mutation.
const DefaultMaxBody = 1 << 20

// ContextFunc builds the base context of a call from the HTTP request. An
// error fails the call before dispatch; return a *procedure.Error to choose
// its code.
type ContextFunc func(r *http.Request) (procedure.Values, error)

// Handler is an http.Handler dispatching requests to procedures.
type Handler struct {
	d        *procedure.Dispatcher
	prefix   string
	contextF ContextFunc
	maxBody  int64
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithPrefix strips prefix from the URL path before it is used as the
// procedure path.
func WithPrefix(prefix string) Option {
	return func(h *Handler) { h.prefix = prefix }
}

// WithContext sets the function building the base context of every call.
func WithContext(fn ContextFunc) Option {
	return func(h *Handler) { h.contextF = fn }
}

// WithMaxBody limits the size of mutation bodies.
func WithMaxBody(n int64) Option {
	return func(h *Handler) { h.maxBody = n }
}

// WithLogger sets the logger for response write failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// New returns a Handler serving d.
func New(d *procedure.Dispatcher, opts ...Option) *Handler {
	h := &Handler{d: d, maxBody: DefaultMaxBody, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Response is the body written for every call.
type Response struct {
	Result *ResultBody           `json:"result,omitempty"`
	Error  *procedure.ErrorShape `json:"error,omitempty"`
}

// ResultBody wraps the data of a successful call.
type ResultBody struct {
	Data any `json:"data"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, h.prefix), "/")

	kind, err := h.kind(r.Method, path)
	if err != nil {
		h.writeError(w, path, err)
		return
	}

	input, err := h.input(r, kind)
	if err != nil {
		h.writeError(w, path, err)
		return
	}

	var values procedure.Values
	if h.contextF != nil {
		values, err = h.contextF(r)
		if err != nil {
			h.writeError(w, path, err)
			return
		}
	}

	res := h.d.Dispatch(r.Context(), procedure.Call{
		Path:   path,
		Kind:   kind,
		Input:  input,
		Values: values,
	})
	if res.Error != nil {
		h.write(w, res.Error.Code.HTTPStatus(), Response{Error: res.Error})
		return
	}
	h.write(w, http.StatusOK, Response{Result: &ResultBody{Data: res.Data}})
}

// kind maps the HTTP method to the procedure kind. Subscriptions need a
// streaming transport and are refused.
func (h *Handler) kind(method, path string) (procedure.Kind, error) {
	if p, ok := h.d.Table().Lookup(path); ok && p.Kind() == procedure.KindSubscription {
		return 0, procedure.Errorf(procedure.CodeMethodNotSupported, "subscriptions are not supported over HTTP")
	}
	switch method {
	case http.MethodGet:
		return procedure.KindQuery, nil
	case http.MethodPost:
		return procedure.KindMutation, nil
	}
	return 0, procedure.Errorf(procedure.CodeMethodNotSupported, "unsupported HTTP method %s", method)
}

func (h *Handler) input(r *http.Request, kind procedure.Kind) (any, error) {
	var raw []byte
	switch kind {
	case procedure.KindQuery:
		raw = []byte(r.URL.Query().Get("input"))
	default:
		b, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody+1))
		if err != nil {
			return nil, procedure.WrapError(procedure.CodeBadRequest, err)
		}
		if int64(len(b)) > h.maxBody {
			return nil, procedure.Errorf(procedure.CodeBadRequest, "request body exceeds %d bytes", h.maxBody)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, procedure.NewError(procedure.CodeParseError, "input is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

func (h *Handler) writeError(w http.ResponseWriter, path string, err error) {
	shape := h.d.FormatError(err, path)
	h.write(w, shape.Code.HTTPStatus(), Response{Error: &shape})
}

func (h *Handler) write(w http.ResponseWriter, status int, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		shape := h.d.FormatError(fmt.Errorf("encode response: %w", err), "")
		status = shape.Code.HTTPStatus()
		data, _ = json.Marshal(Response{Error: &shape})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		h.logger.Warn(fmt.Sprintf("%s - failed to write response: %v", logPrefix, err))
	}
}
