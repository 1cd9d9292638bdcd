// Package gateway talks to the travel GraphQL backend on behalf of one
// storefront client. Queries and mutations go over plain HTTP POSTs;
// subscriptions go over a graphql-ws websocket. Which one an operation uses
// is fixed by its kind in the catalogue.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Domenick1991/travelstore/internal/cache"
	"github.com/Domenick1991/travelstore/internal/graphql"
	"github.com/Domenick1991/travelstore/internal/poller"
)

// Session is what the gateway needs from the session store.
type Session interface {
	Token() string
	IsAdmin() bool
	ClearSession(ctx context.Context) error
}

type Client struct {
	endpoint   string
	wsEndpoint string
	httpClient *http.Client
	dialer     *websocket.Dialer
	session    Session
	cache      *cache.Cache
	polls      *poller.Group
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithWebsocketURL(url string) Option {
	return func(c *Client) {
		c.wsEndpoint = url
	}
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(endpoint string, session Session, store *cache.Cache, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dialer:     websocket.DefaultDialer,
		session:    session,
		cache:      store,
		polls:      poller.NewGroup(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Cache() *cache.Cache { return c.cache }

type FetchPolicy int

const (
	// CacheFirst answers from the cache when it holds the result.
	CacheFirst FetchPolicy = iota
	// NetworkOnly always asks the backend and refreshes the cache.
	NetworkOnly
)

type queryOptions struct {
	policy FetchPolicy
}

type QueryOption func(*queryOptions)

func WithFetchPolicy(policy FetchPolicy) QueryOption {
	return func(o *queryOptions) {
		o.policy = policy
	}
}

// Query runs a query and decodes its data object into out.
func (c *Client) Query(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts ...QueryOption) error {
	if op.Kind != graphql.KindQuery {
		return fmt.Errorf("%s is a %s, not a query", op.Name, op.Kind)
	}
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.policy == CacheFirst {
		found, err := c.cache.Read(op, vars, out)
		if err != nil {
			c.logger.Warn("cache read failed, going to network", "operation", op.Name, "error", err)
		} else if found {
			return nil
		}
	}

	data, err := c.execute(ctx, op, vars)
	if err != nil {
		return err
	}
	if err := c.cache.Write(op, vars, data); err != nil {
		c.logger.Warn("cache write failed", "operation", op.Name, "error", err)
	}
	return decodeInto(op, data, out)
}

// UpdateFunc patches other cached results after a mutation. It runs once
// against the optimistic layer with the optimistic data, if any, and once
// against the confirmed cache with the server's data.
type UpdateFunc func(store cache.Store, data json.RawMessage) error

type Refetch struct {
	Op   graphql.Operation
	Vars graphql.Variables
}

type MutateOptions struct {
	// Optimistic is the data object the mutation is expected to return.
	Optimistic     any
	Update         UpdateFunc
	RefetchQueries []Refetch
}

// Mutate runs a mutation. With an optimistic result the cache shows it until
// the server answers; on failure the cache goes back to what it showed before.
func (c *Client) Mutate(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts MutateOptions) error {
	if op.Kind != graphql.KindMutation {
		return fmt.Errorf("%s is a %s, not a mutation", op.Name, op.Kind)
	}

	var layer *cache.Optimistic
	if opts.Optimistic != nil {
		raw, err := json.Marshal(opts.Optimistic)
		if err != nil {
			return fmt.Errorf("encode optimistic result: %w", err)
		}
		layer = c.cache.BeginOptimistic()
		if err := applyResult(layer, op, vars, raw, opts.Update); err != nil {
			c.cache.Rollback(layer)
			return fmt.Errorf("apply optimistic result: %w", err)
		}
	}

	data, err := c.execute(ctx, op, vars)
	if err != nil {
		if layer != nil {
			c.cache.Rollback(layer)
		}
		return err
	}

	if layer != nil {
		err = c.cache.Commit(layer, func(s cache.Store) error {
			return applyResult(s, op, vars, data, opts.Update)
		})
	} else {
		err = applyResult(c.cache, op, vars, data, opts.Update)
	}
	if err != nil {
		c.logger.Warn("cache update after mutation failed", "operation", op.Name, "error", err)
	}

	for _, r := range opts.RefetchQueries {
		var discard json.RawMessage
		if err := c.Query(ctx, r.Op, r.Vars, &discard, WithFetchPolicy(NetworkOnly)); err != nil {
			c.logger.Warn("refetch after mutation failed", "operation", op.Name, "refetch", r.Op.Name, "error", err)
		}
	}

	return decodeInto(op, data, out)
}

func applyResult(s cache.Store, op graphql.Operation, vars graphql.Variables, data json.RawMessage, update UpdateFunc) error {
	if err := s.Write(op, vars, data); err != nil {
		return err
	}
	if update != nil {
		return update(s, data)
	}
	return nil
}

func decodeInto(op graphql.Operation, data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op.Name, err)
	}
	return nil
}

// Poll re-runs a query network-only every interval until ctx is done.
// Ticks never overlap for the same operation and variables.
func (c *Client) Poll(ctx context.Context, interval time.Duration, op graphql.Operation, vars graphql.Variables, apply func(json.RawMessage, error)) {
	poller.Run(ctx, poller.Config{
		Key:       op.Name + vars.Key(),
		Name:      op.Name,
		Interval:  interval,
		Group:     c.polls,
		Logger:    c.logger,
		Immediate: true,
	}, func(ctx context.Context) (json.RawMessage, error) {
		var raw json.RawMessage
		err := c.Query(ctx, op, vars, &raw, WithFetchPolicy(NetworkOnly))
		return raw, err
	}, apply)
}

// headers attaches the session's credentials. The gateway does not refuse
// to send when they are missing; callers check that first.
func (c *Client) headers(op graphql.Operation) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	if op.Auth != graphql.AuthNone {
		if token := c.session.Token(); token != "" {
			h.Set("Authorization", "Bearer "+token)
		}
	}
	h.Set("X-Admin", strconv.FormatBool(c.session.IsAdmin()))
	return h
}

func (c *Client) execute(ctx context.Context, op graphql.Operation, vars graphql.Variables) (json.RawMessage, error) {
	start := time.Now()
	data, err := c.roundTrip(ctx, op, vars)
	requestDuration.WithLabelValues(op.Name).Observe(time.Since(start).Seconds())

	var (
		netErr *NetworkError
		gqlErr *GraphQLError
	)
	switch {
	case err == nil:
		requestsTotal.WithLabelValues(op.Name, "ok").Inc()
		return data, nil
	case errors.As(err, &gqlErr):
		requestsTotal.WithLabelValues(op.Name, "graphql_error").Inc()
		if gqlErr.sessionInvalid() {
			if clearErr := c.session.ClearSession(ctx); clearErr != nil {
				c.logger.Error("failed to clear invalid session", "error", clearErr)
			}
			c.cache.Reset()
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, gqlErr)
		}
	case errors.As(err, &netErr):
		requestsTotal.WithLabelValues(op.Name, "network_error").Inc()
	default:
		requestsTotal.WithLabelValues(op.Name, "error").Inc()
	}
	c.logger.Debug("graphql operation failed", "operation", op.Name, "error", err)
	return nil, err
}

func (c *Client) roundTrip(ctx context.Context, op graphql.Operation, vars graphql.Variables) (json.RawMessage, error) {
	body, err := json.Marshal(op.Request(vars))
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Operation: op.Name, Err: err}
	}
	req.Header = c.headers(op)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Operation: op.Name, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Operation: op.Name, Err: err}
	}

	var gqlResp graphql.Response
	if err := json.Unmarshal(payload, &gqlResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &NetworkError{Operation: op.Name, StatusCode: resp.StatusCode}
		}
		return nil, &NetworkError{Operation: op.Name, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(gqlResp.Errors) > 0 {
		messages := make([]string, 0, len(gqlResp.Errors))
		for _, e := range gqlResp.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &GraphQLError{Operation: op.Name, Messages: messages}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{Operation: op.Name, StatusCode: resp.StatusCode}
	}
	if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
		return nil, &GraphQLError{Operation: op.Name, Messages: []string{"empty response data"}}
	}
	return gqlResp.Data, nil
}
