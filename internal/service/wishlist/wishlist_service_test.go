package wishlist

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/travelstore/internal/cache"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/gateway/gatewaytest"
	"github.com/Domenick1991/travelstore/internal/graphql"
	"github.com/Domenick1991/travelstore/internal/session"
)

// fakeWishlist keeps server-side wishlist state for the fake backend.
type fakeWishlist struct {
	mu      sync.Mutex
	entries map[string]bool
}

func (w *fakeWishlist) list() []any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := []any{}
	for _, id := range []string{"p1", "p2", "p3"} {
		if w.entries[id] {
			out = append(out, map[string]any{
				"__typename": "Wishlist",
				"id":         "w-" + id,
				"userId":     "u1",
				"packageId":  map[string]any{"__typename": "TravelPackage", "id": id, "title": "Trip " + id},
			})
		}
	}
	return out
}

func (w *fakeWishlist) install(b *gatewaytest.Backend) {
	b.On("GetUserWishlist", func(graphql.Request) (int, any) {
		return http.StatusOK, gatewaytest.Data(map[string]any{"getUserWishlist": w.list()})
	})
	b.On("AddToWishlist", func(req graphql.Request) (int, any) {
		id := req.Variables["packageId"].(string)
		w.mu.Lock()
		w.entries[id] = true
		w.mu.Unlock()
		return http.StatusOK, gatewaytest.Data(map[string]any{"addToWishlist": map[string]any{"__typename": "Wishlist", "id": "w-" + id, "userId": "u1"}})
	})
	b.On("RemoveFromWishlist", func(req graphql.Request) (int, any) {
		id := req.Variables["packageId"].(string)
		w.mu.Lock()
		delete(w.entries, id)
		w.mu.Unlock()
		return http.StatusOK, gatewaytest.Data(map[string]any{"removeFromWishlist": map[string]any{"__typename": "Wishlist", "id": "w-" + id, "userId": "u1"}})
	})
}

func newService(t *testing.T, userID string) (*WishlistService, *gatewaytest.Backend) {
	t.Helper()
	ctx := context.Background()
	b := gatewaytest.NewBackend(t)
	store, err := session.Open(ctx, session.NewMemoryStorage(), "client-1")
	require.NoError(t, err)
	if userID != "" {
		require.NoError(t, store.SetSession(ctx, "tok", userID, false))
	}
	gw := gateway.New(b.URL, store, cache.New(), gateway.WithHTTPClient(b.Client()))
	return NewWishlistService(gw, store), b
}

func TestWishlistService_AddThenRemoveKeepsCount(t *testing.T) {
	ctx := context.Background()
	svc, b := newService(t, "u1")
	(&fakeWishlist{entries: map[string]bool{"p1": true}}).install(b)

	before, err := svc.List(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Add(ctx, "p2"))
	during, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, during, len(before)+1)

	require.NoError(t, svc.Remove(ctx, "p2"))
	after, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	// three page loads plus one refetch per mutation
	assert.Len(t, b.Calls("GetUserWishlist"), 5)
}

func TestWishlistService_ListIsNetworkOnlyContainsIsCacheFirst(t *testing.T) {
	ctx := context.Background()
	svc, b := newService(t, "u1")
	wishlist := &fakeWishlist{entries: map[string]bool{"p1": true}}
	wishlist.install(b)

	_, err := svc.List(ctx)
	require.NoError(t, err)

	// changed behind the client's back
	wishlist.mu.Lock()
	wishlist.entries["p2"] = true
	wishlist.mu.Unlock()

	present, err := svc.Contains(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, present)
	assert.Len(t, b.Calls("GetUserWishlist"), 1)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Len(t, b.Calls("GetUserWishlist"), 2)
}

func TestWishlistService_Toggle(t *testing.T) {
	ctx := context.Background()
	svc, b := newService(t, "u1")
	(&fakeWishlist{entries: map[string]bool{}}).install(b)

	added, err := svc.Toggle(ctx, "p3")
	require.NoError(t, err)
	assert.True(t, added)

	present, err := svc.Contains(ctx, "p3")
	require.NoError(t, err)
	assert.True(t, present)

	added, err = svc.Toggle(ctx, "p3")
	require.NoError(t, err)
	assert.False(t, added)

	present, err = svc.Contains(ctx, "p3")
	require.NoError(t, err)
	assert.False(t, present)
}

func TestWishlistService_RequiresLogin(t *testing.T) {
	svc, b := newService(t, "")

	_, err := svc.List(context.Background())
	var verr *gateway.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userId", verr.Field)

	require.ErrorAs(t, svc.Add(context.Background(), "p1"), &verr)
	assert.Empty(t, b.Calls("AddToWishlist"))
}
