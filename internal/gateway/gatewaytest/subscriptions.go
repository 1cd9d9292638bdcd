package gatewaytest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Domenick1991/travelstore/internal/graphql"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscriber struct {
	operation string
	events    chan json.RawMessage
	done      chan struct{}
	once      sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

type subscriptions struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
	// connection_init payloads, one per connection
	inits []map[string]any
}

var upgrader = websocket.Upgrader{
	Subprotocols: []string{"graphql-transport-ws"},
	CheckOrigin:  func(*http.Request) bool { return true },
}

// WebsocketURL is the subscription endpoint of the backend.
func (b *Backend) WebsocketURL() string {
	return "ws" + strings.TrimPrefix(b.URL, "http")
}

func (b *Backend) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "connection_init" {
		return
	}
	var init map[string]any
	_ = json.Unmarshal(msg.Payload, &init)
	b.subs.mu.Lock()
	b.subs.inits = append(b.subs.inits, init)
	b.subs.mu.Unlock()
	if err := conn.WriteJSON(wsMessage{Type: "connection_ack"}); err != nil {
		return
	}

	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "subscribe" {
		return
	}
	var req graphql.Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return
	}
	sub := &subscriber{
		operation: req.OperationName,
		events:    make(chan json.RawMessage, 16),
		done:      make(chan struct{}),
	}
	b.subs.mu.Lock()
	b.subs.subs[sub] = struct{}{}
	b.subs.mu.Unlock()
	defer func() {
		b.subs.mu.Lock()
		delete(b.subs.subs, sub)
		b.subs.mu.Unlock()
	}()

	// a read error means the client went away
	go func() {
		var ignored wsMessage
		for conn.ReadJSON(&ignored) == nil {
		}
		sub.close()
	}()

	for {
		select {
		case <-sub.done:
			return
		case event := <-sub.events:
			if err := conn.WriteJSON(wsMessage{ID: msg.ID, Type: "next", Payload: event}); err != nil {
				return
			}
		}
	}
}

// Publish sends data as the next event to every subscriber of operation.
func (b *Backend) Publish(operation string, data any) {
	payload, err := json.Marshal(Data(data))
	if err != nil {
		panic(err)
	}
	b.subs.mu.Lock()
	defer b.subs.mu.Unlock()
	for sub := range b.subs.subs {
		if sub.operation == operation {
			sub.events <- payload
		}
	}
}

// Subscribers counts the open subscriptions to operation.
func (b *Backend) Subscribers(operation string) int {
	b.subs.mu.Lock()
	defer b.subs.mu.Unlock()
	n := 0
	for sub := range b.subs.subs {
		if sub.operation == operation {
			n++
		}
	}
	return n
}

// DropSubscriptions closes every open subscription connection.
func (b *Backend) DropSubscriptions() {
	b.subs.mu.Lock()
	defer b.subs.mu.Unlock()
	for sub := range b.subs.subs {
		sub.close()
	}
}

// InitPayloads returns the connection_init payloads received so far.
func (b *Backend) InitPayloads() []map[string]any {
	b.subs.mu.Lock()
	defer b.subs.mu.Unlock()
	return append([]map[string]any(nil), b.subs.inits...)
}
