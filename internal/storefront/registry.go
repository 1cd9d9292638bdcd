// Package storefront keeps one bundle of per-browser state for every client
// cookie: the session store, the normalized cache and the gateway bound to
// both, plus the view services built on top of them.
package storefront

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/Domenick1991/travelstore/internal/cache"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/guard"
	"github.com/Domenick1991/travelstore/internal/service/admin"
	"github.com/Domenick1991/travelstore/internal/service/auth"
	"github.com/Domenick1991/travelstore/internal/service/booking"
	"github.com/Domenick1991/travelstore/internal/service/packages"
	"github.com/Domenick1991/travelstore/internal/service/profile"
	"github.com/Domenick1991/travelstore/internal/service/wishlist"
	"github.com/Domenick1991/travelstore/internal/session"
)

const clientKey = "storefront.client"

// cookieMaxAge keeps the client id around as long as a browser would keep
// its local storage.
const cookieMaxAge = 365 * 24 * 60 * 60

const (
	defaultMaxClients = 10000
	defaultIdleTTL    = 30 * time.Minute
)

// Client is everything one browser owns.
type Client struct {
	ID       string
	Session  *session.Store
	Cache    *cache.Cache
	Gateway  *gateway.Client
	Auth     auth.AuthUseCase
	Packages packages.PackageUseCase
	Bookings booking.BookingUseCase
	Wishlist wishlist.WishlistUseCase
	Profile  profile.ProfileUseCase
	Admin    admin.AdminUseCase
}

type Config struct {
	GraphQLURL        string
	WebsocketURL      string
	Timeout           time.Duration
	PollInterval      time.Duration
	ReconcileInterval time.Duration
}

// Registry holds the live client bundles. It keeps at most maxClients of
// them and drops a bundle once it has been idle for idleTTL; a dropped bundle
// is rebuilt from persisted session storage on the next request.
type Registry struct {
	clients    *expirable.LRU[string, *Client]
	opening    singleflight.Group
	storage    session.Storage
	cfg        Config
	images     packages.ImageLookup
	httpClient *http.Client
	logger     *slog.Logger
	maxClients int
	idleTTL    time.Duration
}

type Option func(*Registry)

func WithImages(images packages.ImageLookup) Option {
	return func(r *Registry) {
		r.images = images
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(r *Registry) {
		r.httpClient = client
	}
}

func WithMaxClients(n int) Option {
	return func(r *Registry) {
		r.maxClients = n
	}
}

func WithIdleTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.idleTTL = ttl
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(storage session.Storage, cfg Config, opts ...Option) *Registry {
	r := &Registry{
		storage:    storage,
		cfg:        cfg,
		logger:     slog.Default(),
		maxClients: defaultMaxClients,
		idleTTL:    defaultIdleTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if r.maxClients <= 0 {
		r.maxClients = defaultMaxClients
	}
	if r.idleTTL <= 0 {
		r.idleTTL = defaultIdleTTL
	}
	r.clients = expirable.NewLRU[string, *Client](r.maxClients, r.evicted, r.idleTTL)
	return r
}

func (r *Registry) evicted(id string, _ *Client) {
	r.logger.Debug("client evicted", "client_id", id)
}

// Client returns the bundle of id, opening its persisted session on first
// use. An expired token found at that point is cleared right away. Opens of
// different ids run concurrently; concurrent opens of one id share a result.
func (r *Registry) Client(ctx context.Context, id string) (*Client, error) {
	if c, ok := r.clients.Get(id); ok {
		// re-adding restarts the idle clock
		r.clients.Add(id, c)
		return c, nil
	}

	v, err, _ := r.opening.Do(id, func() (any, error) {
		if c, ok := r.clients.Get(id); ok {
			return c, nil
		}
		c, err := r.open(ctx, id)
		if err != nil {
			return nil, err
		}
		r.clients.Add(id, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

func (r *Registry) open(ctx context.Context, id string) (*Client, error) {
	logger := r.logger.With("client_id", id)
	store, err := session.Open(ctx, r.storage, id, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if _, err := store.Validate(ctx); err != nil {
		logger.Warn("failed to clear expired session", "error", err)
	}
	return r.build(id, store, logger), nil
}

func (r *Registry) build(id string, store *session.Store, logger *slog.Logger) *Client {
	normalized := cache.New()
	gw := gateway.New(r.cfg.GraphQLURL, store, normalized,
		gateway.WithHTTPClient(r.httpClient),
		gateway.WithWebsocketURL(r.cfg.WebsocketURL),
		gateway.WithLogger(logger),
	)

	packageOpts := []packages.PackageServiceOption{packages.WithLogger(logger)}
	if r.images != nil {
		packageOpts = append(packageOpts, packages.WithImages(r.images))
	}
	adminOpts := []admin.AdminServiceOption{admin.WithLogger(logger)}
	if r.cfg.PollInterval > 0 {
		adminOpts = append(adminOpts, admin.WithPollInterval(r.cfg.PollInterval))
	}
	if r.cfg.ReconcileInterval > 0 {
		adminOpts = append(adminOpts, admin.WithReconcileInterval(r.cfg.ReconcileInterval))
	}

	return &Client{
		ID:       id,
		Session:  store,
		Cache:    normalized,
		Gateway:  gw,
		Auth:     auth.NewAuthService(gw, store, normalized, auth.WithLogger(logger)),
		Packages: packages.NewPackageService(gw, packageOpts...),
		Bookings: booking.NewBookingService(gw, store, normalized, booking.WithLogger(logger)),
		Wishlist: wishlist.NewWishlistService(gw, store),
		Profile:  profile.NewProfileService(gw, store, profile.WithLogger(logger)),
		Admin:    admin.NewAdminService(gw, normalized, adminOpts...),
	}
}

// Reload forgets the in-memory state of id, the way a page reload drops the
// browser cache. The persisted session survives and is read again on the
// next request.
func (r *Registry) Reload(id string) {
	if c, ok := r.clients.Peek(id); ok {
		c.Cache.Reset()
		r.clients.Remove(id)
	}
}

// Len reports the live client bundles, including idle ones not yet purged.
func (r *Registry) Len() int {
	return r.clients.Len()
}

// Attach resolves the caller's client from its cookie, issuing a new id when
// the cookie is missing or malformed. A token that expired since the last
// request is cleared along with the client's cache before any handler runs.
func (r *Registry) Attach(cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, id, cookieMaxAge, "/", "", secure, true)
		}

		client, err := r.Client(c.Request.Context(), id)
		if err != nil {
			r.logger.Error("failed to open client session", "client_id", id, "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session storage unavailable"})
			return
		}
		cleared, err := client.Session.Validate(c.Request.Context())
		if err != nil {
			r.logger.Warn("failed to clear expired session", "client_id", id, "error", err)
		}
		if cleared {
			client.Cache.Reset()
		}
		c.Set(clientKey, client)
		c.Next()
	}
}

// FromContext returns the client Attach stored, or nil.
func FromContext(c *gin.Context) *Client {
	v, ok := c.Get(clientKey)
	if !ok {
		return nil
	}
	client, _ := v.(*Client)
	return client
}

// SetContext stores client the way Attach does.
func SetContext(c *gin.Context, client *Client) {
	c.Set(clientKey, client)
}

// Principal feeds route guards. A request without a client yields a nil
// principal, which every guard rejects.
func Principal(c *gin.Context) guard.Principal {
	client := FromContext(c)
	if client == nil || client.Session == nil {
		return nil
	}
	return client.Session
}
