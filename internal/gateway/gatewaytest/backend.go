// Package gatewaytest runs a fake GraphQL backend for tests. Handlers are
// registered per operation name; every request is recorded with its headers.
// The same server accepts graphql-ws subscriptions fed through Publish.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Domenick1991/travelstore/internal/graphql"
)

type Call struct {
	Request graphql.Request
	Header  http.Header
}

// Handler returns the HTTP status and the JSON body to answer with.
type Handler func(req graphql.Request) (status int, body any)

type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	handlers map[string]Handler
	subs     subscriptions
}

func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		handlers: make(map[string]Handler),
		subs:     subscriptions{subs: make(map[*subscriber]struct{})},
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		b.serveWebsocket(w, r)
		return
	}
	var req graphql.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.calls = append(b.calls, Call{Request: req, Header: r.Header.Clone()})
	h := b.handlers[req.OperationName]
	b.mu.Unlock()

	if h == nil {
		http.Error(w, "no handler for "+req.OperationName, http.StatusBadRequest)
		return
	}
	status, body := h(req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (b *Backend) On(operation string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[operation] = h
}

// Reply answers operation with {"data": data}.
func (b *Backend) Reply(operation string, data any) {
	b.On(operation, func(graphql.Request) (int, any) {
		return http.StatusOK, Data(data)
	})
}

// Fail answers operation with a GraphQL errors list.
func (b *Backend) Fail(operation string, messages ...string) {
	b.On(operation, func(graphql.Request) (int, any) {
		return http.StatusOK, Errors(messages...)
	})
}

func (b *Backend) Calls(operation string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if c.Request.OperationName == operation {
			out = append(out, c)
		}
	}
	return out
}

func Data(v any) map[string]any {
	return map[string]any{"data": v}
}

func Errors(messages ...string) map[string]any {
	errs := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, map[string]any{"message": m})
	}
	return map[string]any{"errors": errs}
}
