package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/service/booking"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func bookingResolver(svc booking.BookingUseCase) Resolver[booking.BookingUseCase] {
	return func(*gin.Context) booking.BookingUseCase { return svc }
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(bookingResolver(mockService))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := booking.CreateBookingInput{PackageID: "p1", Date: "2024-07-01"}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Booking{
		ID:     "b1",
		UserID: "u1",
		Date:   "2024-07-01",
		Status: domain.BookingStatusConfirmed,
	}

	mockService.On("CreateBooking", c.Request.Context(), input).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "b1", response.Booking.ID)
	assert.Equal(t, SeveritySuccess, response.Severity)
	assert.Equal(t, DismissAfterMs, response.DismissAfterMs)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_createValidationError(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(bookingResolver(mockService))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := booking.CreateBookingInput{PackageID: "p1"}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateBooking", c.Request.Context(), input).
		Return(nil, gateway.NewValidationError("date", "is required"))

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response Message
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "date: is required", response.Message)
	assert.Equal(t, SeverityError, response.Severity)
	assert.Zero(t, response.DismissAfterMs)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(bookingResolver(mockService))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/bookings", nil)

	bookings := []domain.Booking{
		{ID: "b2", Status: domain.BookingStatusConfirmed},
		{ID: "b1", Status: domain.BookingStatusPending},
	}
	mockService.On("ListBookings", c.Request.Context()).Return(bookings, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []domain.Booking
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, bookings, response)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(bookingResolver(mockService))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/b1", nil)

	cancelled := &domain.Booking{ID: "b1", Status: domain.BookingStatusCancelled}

	mockService.On("CancelBooking", c.Request.Context(), "b1").Return(cancelled, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, response.Booking.Status)
	assert.Equal(t, "Booking cancelled successfully", response.Message.Message)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancelAlreadyCancelled(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(bookingResolver(mockService))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/b1", nil)

	mockService.On("CancelBooking", c.Request.Context(), "b1").Return(nil, booking.ErrNotCancellable)

	handler.cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}
