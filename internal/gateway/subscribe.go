package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Domenick1991/travelstore/internal/graphql"
)

const subprotocol = "graphql-transport-ws"

// graphql-ws message types.
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrSubscriptionClosed is returned when the server completes a stream.
var ErrSubscriptionClosed = errors.New("subscription completed by server")

// Subscribe opens a websocket, subscribes to op and calls onEvent with the
// data object of every event. It blocks until ctx is done, the server
// completes the stream or the connection fails.
func (c *Client) Subscribe(ctx context.Context, op graphql.Operation, vars graphql.Variables, onEvent func(json.RawMessage)) error {
	if op.Kind != graphql.KindSubscription {
		return fmt.Errorf("%s is a %s, not a subscription", op.Name, op.Kind)
	}
	if c.wsEndpoint == "" {
		return &NetworkError{Operation: op.Name, Err: errors.New("no websocket endpoint configured")}
	}

	dialer := *c.dialer
	dialer.Subprotocols = []string{subprotocol}
	conn, resp, err := dialer.DialContext(ctx, c.wsEndpoint, http.Header{
		"X-Admin": []string{strconv.FormatBool(c.session.IsAdmin())},
	})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return &NetworkError{Operation: op.Name, Err: err}
	}
	defer conn.Close()

	// unblock ReadJSON once ctx ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	if err := c.handshake(conn, op); err != nil {
		return c.streamErr(ctx, op, err)
	}

	subID := "1"
	payload, err := json.Marshal(op.Request(vars))
	if err != nil {
		return fmt.Errorf("%s: encode subscribe payload: %w", op.Name, err)
	}
	if err := conn.WriteJSON(wsMessage{ID: subID, Type: msgSubscribe, Payload: payload}); err != nil {
		return c.streamErr(ctx, op, err)
	}
	c.logger.Debug("subscription started", "operation", op.Name)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return c.streamErr(ctx, op, err)
		}
		switch msg.Type {
		case msgPing:
			if err := conn.WriteJSON(wsMessage{Type: msgPong}); err != nil {
				return c.streamErr(ctx, op, err)
			}
		case msgNext:
			if msg.ID != subID {
				continue
			}
			var event graphql.Response
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				c.logger.Warn("malformed subscription event", "operation", op.Name, "error", err)
				continue
			}
			if len(event.Errors) > 0 {
				c.logger.Warn("subscription event carried errors", "operation", op.Name, "errors", event.Errors)
				continue
			}
			subscriptionEvents.WithLabelValues(op.Name).Inc()
			onEvent(event.Data)
		case msgError:
			var errs []graphql.ErrorMessage
			_ = json.Unmarshal(msg.Payload, &errs)
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				messages = append(messages, e.Message)
			}
			return &GraphQLError{Operation: op.Name, Messages: messages}
		case msgComplete:
			if msg.ID == subID {
				return ErrSubscriptionClosed
			}
		}
	}
}

func (c *Client) handshake(conn *websocket.Conn, op graphql.Operation) error {
	init := map[string]any{}
	if token := c.session.Token(); token != "" {
		init["authorization"] = "Bearer " + token
	}
	raw, err := json.Marshal(init)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(wsMessage{Type: msgConnectionInit, Payload: raw}); err != nil {
		return err
	}
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		switch msg.Type {
		case msgConnectionAck:
			return nil
		case msgPing:
			if err := conn.WriteJSON(wsMessage{Type: msgPong}); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: unexpected %q before connection_ack", op.Name, msg.Type)
		}
	}
}

// streamErr reports ctx cancellation as such instead of the read error the
// closed connection produced.
func (c *Client) streamErr(ctx context.Context, op graphql.Operation, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &NetworkError{Operation: op.Name, Err: err}
}
