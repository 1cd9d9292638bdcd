package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/service/booking"
)

type BookingHandler struct {
	service Resolver[booking.BookingUseCase]
}

type createBookingRequest struct {
	PackageID string `json:"packageId"`
	Date      string `json:"date"`
}

type bookingResponse struct {
	Message
	Booking *domain.Booking `json:"booking"`
}

func NewBookingHandler(service Resolver[booking.BookingUseCase]) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup, guards Guards) {
	group := router.Group("/bookings", guards.Auth)
	group.GET("", h.list)
	group.POST("", h.create)
	group.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service(c).ListBookings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	created, err := h.service(c).CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		PackageID: req.PackageID,
		Date:      req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingResponse{Message: success("Booking created successfully"), Booking: created})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service(c).CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse{Message: success("Booking cancelled successfully"), Booking: cancelled})
}
