package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/service/admin"
)

const (
	eventBookings = "bookings"
	eventError    = "error"
)

type AdminHandler struct {
	service Resolver[admin.AdminUseCase]
}

func NewAdminHandler(service Resolver[admin.AdminUseCase]) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup, guards Guards) {
	group := router.Group("/admin", guards.Admin)
	group.GET("/users", h.users)
	group.DELETE("/users/:id", h.removeUser)
	group.GET("/bookings", h.bookings)
	group.GET("/bookings/stream", h.streamBookings)
	group.GET("/analytics", h.analytics)
}

func (h *AdminHandler) users(c *gin.Context) {
	users, err := h.service(c).Users(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) removeUser(c *gin.Context) {
	result, err := h.service(c).RemoveUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	msg := result.Message
	if msg == "" {
		msg = "User removed successfully"
	}
	c.JSON(http.StatusOK, success(msg))
}

func (h *AdminHandler) bookings(c *gin.Context) {
	bookings, err := h.service(c).Bookings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *AdminHandler) analytics(c *gin.Context) {
	analytics, err := h.service(c).Analytics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// streamBookings sends the full booking list as a server-sent event every
// time it changes. The watch lives as long as the request does. A consumer
// that falls behind only ever gets the latest list.
func (h *AdminHandler) streamBookings(c *gin.Context) {
	ctx := c.Request.Context()
	svc := h.service(c)
	updates := make(chan []domain.Booking, 1)
	done := make(chan error, 1)

	go func() {
		done <- svc.WatchBookings(ctx, func(list []domain.Booking) {
			select {
			case <-updates:
			default:
			}
			updates <- list
		})
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case list := <-updates:
			c.SSEvent(eventBookings, list)
			return true
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				c.SSEvent(eventError, failure(err.Error()))
			}
			return false
		case <-ctx.Done():
			return false
		}
	})
}
