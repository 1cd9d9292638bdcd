package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Domenick1991/travelstore/api"
	"github.com/Domenick1991/travelstore/config"
	"github.com/Domenick1991/travelstore/internal/service/admin"
	"github.com/Domenick1991/travelstore/internal/service/auth"
	"github.com/Domenick1991/travelstore/internal/service/booking"
	"github.com/Domenick1991/travelstore/internal/service/packages"
	"github.com/Domenick1991/travelstore/internal/service/profile"
	"github.com/Domenick1991/travelstore/internal/service/wishlist"
	"github.com/Domenick1991/travelstore/internal/storefront"
)

const shutdownTimeout = 5 * time.Second

// Run serves the storefront until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, registry *storefront.Registry, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("storefront listening", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// NewRouter wires the storefront views behind the client cookie. /metrics
// and /healthz sit outside it and never issue a cookie.
func NewRouter(cfg *config.Config, registry *storefront.Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	views := router.Group("/", registry.Attach(cfg.HTTP.CookieName, cfg.HTTP.CookieSecure))
	views.GET("/session", func(c *gin.Context) {
		client := storefront.FromContext(c)
		s := client.Session.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"authenticated": client.Session.IsAuthenticated(),
			"userId":        s.UserID,
			"isAdmin":       s.IsAdmin,
		})
	})
	views.POST("/reload", func(c *gin.Context) {
		registry.Reload(storefront.FromContext(c).ID)
		c.Status(http.StatusNoContent)
	})

	guards := api.NewGuards(storefront.Principal)
	api.NewAuthHandler(func(c *gin.Context) auth.AuthUseCase {
		return storefront.FromContext(c).Auth
	}).Register(views)
	api.NewPackageHandler(func(c *gin.Context) packages.PackageUseCase {
		return storefront.FromContext(c).Packages
	}).Register(views, guards)
	api.NewBookingHandler(func(c *gin.Context) booking.BookingUseCase {
		return storefront.FromContext(c).Bookings
	}).Register(views, guards)
	api.NewWishlistHandler(func(c *gin.Context) wishlist.WishlistUseCase {
		return storefront.FromContext(c).Wishlist
	}).Register(views, guards)
	api.NewProfileHandler(func(c *gin.Context) profile.ProfileUseCase {
		return storefront.FromContext(c).Profile
	}).Register(views, guards)
	api.NewAdminHandler(func(c *gin.Context) admin.AdminUseCase {
		return storefront.FromContext(c).Admin
	}).Register(views, guards)

	return router
}
