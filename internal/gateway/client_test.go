package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/travelstore/internal/cache"
	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/gateway/gatewaytest"
	"github.com/Domenick1991/travelstore/internal/graphql"
)

type fakeSession struct {
	mu      sync.Mutex
	token   string
	admin   bool
	cleared int
}

func (s *fakeSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) IsAdmin() bool { return s.admin }

func (s *fakeSession) ClearSession(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.cleared++
	return nil
}

func bookingJSON(id, status string) map[string]any {
	return map[string]any{
		"__typename": "Booking",
		"id":         id,
		"userId":     "u1",
		"packageId":  map[string]any{"__typename": "TravelPackage", "id": "p1", "title": "City break"},
		"date":       "2024-06-01",
		"status":     status,
		"createdAt":  "1700000000000",
	}
}

func newClient(b *gatewaytest.Backend, sess *fakeSession) *Client {
	return New(b.URL, sess, cache.New(), WithHTTPClient(b.Client()))
}

type bookingsResult struct {
	GetBookings []domain.Booking `json:"getBookings"`
}

func TestClient_QueryAttachesHeaders(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	b.On("GetBookings", func(graphql.Request) (int, any) {
		return http.StatusOK, gatewaytest.Data(map[string]any{"getBookings": []any{bookingJSON("b1", "CONFIRMED")}})
	})
	b.On("GetPackages", func(graphql.Request) (int, any) {
		return http.StatusOK, gatewaytest.Data(map[string]any{"getPackages": []any{}})
	})

	sess := &fakeSession{token: "tok", admin: true}
	c := newClient(b, sess)

	var got bookingsResult
	require.NoError(t, c.Query(context.Background(), graphql.GetBookings, graphql.Variables{"userId": "u1"}, &got))
	require.Len(t, got.GetBookings, 1)
	assert.Equal(t, "City break", got.GetBookings[0].Package.Title)

	var packages json.RawMessage
	require.NoError(t, c.Query(context.Background(), graphql.GetPackages, graphql.Variables{"search": ""}, &packages))

	call := b.Calls("GetBookings")[0]
	assert.Equal(t, "Bearer tok", call.Header.Get("Authorization"))
	assert.Equal(t, "true", call.Header.Get("X-Admin"))
	assert.Equal(t, "u1", call.Request.Variables["userId"])

	public := b.Calls("GetPackages")[0]
	assert.Empty(t, public.Header.Get("Authorization"))
	assert.Equal(t, "true", public.Header.Get("X-Admin"))
}

func TestClient_QueryWithoutTokenSendsNoAuthorization(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	b.On("GetBookings", func(graphql.Request) (int, any) {
		return http.StatusOK, gatewaytest.Data(map[string]any{"getBookings": []any{}})
	})
	c := newClient(b, &fakeSession{})

	var got bookingsResult
	require.NoError(t, c.Query(context.Background(), graphql.GetBookings, graphql.Variables{"userId": "u1"}, &got))

	call := b.Calls("GetBookings")[0]
	assert.Empty(t, call.Header.Get("Authorization"))
	assert.Equal(t, "false", call.Header.Get("X-Admin"))
}

func TestClient_QueryCacheFirst(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	b.On("GetBookings", func(graphql.Request) (int, any) {
		return http.StatusOK, gatewaytest.Data(map[string]any{"getBookings": []any{bookingJSON("b1", "CONFIRMED")}})
	})
	c := newClient(b, &fakeSession{token: "tok"})
	vars := graphql.Variables{"userId": "u1"}

	var got bookingsResult
	require.NoError(t, c.Query(context.Background(), graphql.GetBookings, vars, &got))
	require.NoError(t, c.Query(context.Background(), graphql.GetBookings, vars, &got))
	assert.Len(t, b.Calls("GetBookings"), 1)

	require.NoError(t, c.Query(context.Background(), graphql.GetBookings, vars, &got, WithFetchPolicy(NetworkOnly)))
	assert.Len(t, b.Calls("GetBookings"), 2)
}

func TestClient_RejectsWrongKind(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	c := newClient(b, &fakeSession{})

	assert.Error(t, c.Query(context.Background(), graphql.CancelBooking, nil, nil))
	assert.Error(t, c.Mutate(context.Background(), graphql.GetBookings, nil, nil, MutateOptions{}))
	assert.Error(t, c.Subscribe(context.Background(), graphql.GetBookings, nil, func(json.RawMessage) {}))
}

func TestClient_GraphQLAndNetworkErrors(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	b.On("GetAllBookings", func(graphql.Request) (int, any) {
		return http.StatusOK, map[string]any{"errors": []any{map[string]any{"message": "Not authorized"}}}
	})
	b.On("GetAllUsers", func(graphql.Request) (int, any) {
		return http.StatusBadGateway, "upstream down"
	})
	sess := &fakeSession{token: "tok", admin: true}
	c := newClient(b, sess)

	err := c.Query(context.Background(), graphql.GetAllBookings, nil, nil)
	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, []string{"Not authorized"}, gqlErr.Messages)
	assert.Equal(t, "tok", sess.Token())

	err = c.Query(context.Background(), graphql.GetAllUsers, nil, nil)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusBadGateway, netErr.StatusCode)
}

func TestClient_ExpiredTokenClearsSession(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	b.On("GetBookings", func(graphql.Request) (int, any) {
		return http.StatusOK, map[string]any{"errors": []any{map[string]any{"message": "jwt expired"}}}
	})
	sess := &fakeSession{token: "tok"}
	c := newClient(b, sess)
	require.NoError(t, c.Cache().Write(graphql.GetAllPackages, nil, map[string]any{"getAllPackages": []any{}}))

	err := c.Query(context.Background(), graphql.GetBookings, graphql.Variables{"userId": "u1"}, nil, WithFetchPolicy(NetworkOnly))
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, sess.Token())
	assert.Equal(t, 1, sess.cleared)

	var out json.RawMessage
	found, err := c.Cache().Read(graphql.GetAllPackages, nil, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_MutateOptimisticThenConfirm(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	release := make(chan struct{})
	b.On("CancelBooking", func(graphql.Request) (int, any) {
		<-release
		return http.StatusOK, gatewaytest.Data(map[string]any{"cancelBooking": bookingJSON("b1", "CANCELLED")})
	})
	c := newClient(b, &fakeSession{token: "tok"})
	vars := graphql.Variables{"userId": "u1"}
	require.NoError(t, c.Cache().Write(graphql.GetBookings, vars, map[string]any{
		"getBookings": []any{bookingJSON("b1", "CONFIRMED")},
	}))

	optimistic := bookingJSON("b1", "CANCELLED")
	done := make(chan error, 1)
	go func() {
		done <- c.Mutate(context.Background(), graphql.CancelBooking,
			graphql.Variables{"bookingId": "b1", "userId": "u1"}, nil,
			MutateOptions{Optimistic: map[string]any{"cancelBooking": optimistic}})
	}()

	require.Eventually(t, func() bool {
		return c.Cache().IsOptimistic(graphql.GetBookings, vars)
	}, time.Second, 5*time.Millisecond)
	var during bookingsResult
	_, err := c.Cache().Read(graphql.GetBookings, vars, &during)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, during.GetBookings[0].Status)

	close(release)
	require.NoError(t, <-done)

	var after bookingsResult
	_, err = c.Cache().Read(graphql.GetBookings, vars, &after)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, after.GetBookings[0].Status)
	assert.False(t, c.Cache().IsOptimistic(graphql.GetBookings, vars))
}

func TestClient_MutateFailureRollsBack(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	b.On("CancelBooking", func(graphql.Request) (int, any) {
		return http.StatusOK, map[string]any{"errors": []any{map[string]any{"message": "Booking already cancelled"}}}
	})
	c := newClient(b, &fakeSession{token: "tok"})
	vars := graphql.Variables{"userId": "u1"}
	before := map[string]any{"getBookings": []any{bookingJSON("b1", "CONFIRMED")}}
	require.NoError(t, c.Cache().Write(graphql.GetBookings, vars, before))

	err := c.Mutate(context.Background(), graphql.CancelBooking,
		graphql.Variables{"bookingId": "b1", "userId": "u1"}, nil,
		MutateOptions{Optimistic: map[string]any{"cancelBooking": bookingJSON("b1", "CANCELLED")}})
	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)

	var got bookingsResult
	_, err = c.Cache().Read(graphql.GetBookings, vars, &got)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, got.GetBookings[0].Status)
	assert.False(t, c.Cache().IsOptimistic(graphql.GetBookings, vars))
}

func TestClient_MutateRunsUpdateAndRefetches(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	b.On("AddToWishlist", func(graphql.Request) (int, any) {
		return http.StatusOK, gatewaytest.Data(map[string]any{"addToWishlist": map[string]any{"__typename": "Wishlist", "id": "w1", "userId": "u1"}})
	})
	var refetches atomic.Int32
	b.On("GetUserWishlist", func(graphql.Request) (int, any) {
		refetches.Add(1)
		return http.StatusOK, gatewaytest.Data(map[string]any{"getUserWishlist": []any{map[string]any{"__typename": "Wishlist", "id": "w1", "userId": "u1"}}})
	})
	c := newClient(b, &fakeSession{token: "tok"})

	var updates int
	wishVars := graphql.Variables{"userId": "u1"}
	err := c.Mutate(context.Background(), graphql.AddToWishlist, graphql.Variables{"userId": "u1", "packageId": "p1"}, nil, MutateOptions{
		Update: func(s cache.Store, data json.RawMessage) error {
			updates++
			assert.Contains(t, string(data), "w1")
			return nil
		},
		RefetchQueries: []Refetch{{Op: graphql.GetUserWishlist, Vars: wishVars}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updates)
	assert.Equal(t, int32(1), refetches.Load())

	var wish struct {
		GetUserWishlist []domain.WishlistEntry `json:"getUserWishlist"`
	}
	found, err := c.Cache().Read(graphql.GetUserWishlist, wishVars, &wish)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, wish.GetUserWishlist, 1)
}

func TestClient_PollAppliesResults(t *testing.T) {
	b := gatewaytest.NewBackend(t)
	var n atomic.Int32
	b.On("GetAllBookings", func(graphql.Request) (int, any) {
		n.Add(1)
		return http.StatusOK, gatewaytest.Data(map[string]any{"getAllBookings": []any{}})
	})
	c := newClient(b, &fakeSession{token: "tok", admin: true})

	ctx, cancel := context.WithCancel(context.Background())
	var applied atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Poll(ctx, 10*time.Millisecond, graphql.GetAllBookings, nil, func(raw json.RawMessage, err error) {
			if err == nil {
				applied.Add(1)
			}
		})
	}()

	require.Eventually(t, func() bool { return applied.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.GreaterOrEqual(t, n.Load(), applied.Load())
}

func TestClient_Subscribe(t *testing.T) {
	upgrader := websocket.Upgrader{Subprotocols: []string{subprotocol}}
	initPayload := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var msg wsMessage
		if conn.ReadJSON(&msg) != nil || msg.Type != msgConnectionInit {
			return
		}
		var payload map[string]any
		_ = json.Unmarshal(msg.Payload, &payload)
		initPayload <- payload
		_ = conn.WriteJSON(wsMessage{Type: msgConnectionAck})

		if conn.ReadJSON(&msg) != nil || msg.Type != msgSubscribe {
			return
		}
		for _, id := range []string{"b1", "b2"} {
			event, _ := json.Marshal(map[string]any{"data": map[string]any{"bookingCreated": map[string]any{"id": id}}})
			_ = conn.WriteJSON(wsMessage{ID: msg.ID, Type: msgNext, Payload: event})
		}
		_ = conn.WriteJSON(wsMessage{ID: msg.ID, Type: msgComplete})
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, &fakeSession{token: "tok"}, cache.New(),
		WithWebsocketURL("ws"+strings.TrimPrefix(srv.URL, "http")))

	var ids []string
	err := c.Subscribe(context.Background(), graphql.BookingCreated, nil, func(raw json.RawMessage) {
		var ev struct {
			BookingCreated domain.BookingEvent `json:"bookingCreated"`
		}
		require.NoError(t, json.Unmarshal(raw, &ev))
		ids = append(ids, ev.BookingCreated.ID)
	})
	assert.True(t, errors.Is(err, ErrSubscriptionClosed))
	assert.Equal(t, []string{"b1", "b2"}, ids)
	assert.Equal(t, "Bearer tok", (<-initPayload)["authorization"])
}

func TestClient_SubscribeStopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{Subprotocols: []string{subprotocol}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var msg wsMessage
		_ = conn.ReadJSON(&msg)
		_ = conn.WriteJSON(wsMessage{Type: msgConnectionAck})
		for conn.ReadJSON(&msg) == nil {
		}
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, &fakeSession{}, cache.New(),
		WithWebsocketURL("ws"+strings.TrimPrefix(srv.URL, "http")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Subscribe(ctx, graphql.BookingCancelled, nil, func(json.RawMessage) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
