package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/filter"
	"github.com/Domenick1991/travelstore/internal/service/packages"
)

// MockPackageUseCase is a mock implementation of packages.PackageUseCase
type MockPackageUseCase struct {
	mock.Mock
}

func (m *MockPackageUseCase) List(ctx context.Context, criteria filter.Criteria) ([]domain.TravelPackage, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TravelPackage), args.Error(1)
}

func (m *MockPackageUseCase) Search(ctx context.Context, search string) ([]domain.TravelPackage, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TravelPackage), args.Error(1)
}

func (m *MockPackageUseCase) Get(ctx context.Context, id, currency string) (*domain.TravelPackage, error) {
	args := m.Called(ctx, id, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TravelPackage), args.Error(1)
}

func (m *MockPackageUseCase) Add(ctx context.Context, input domain.PackageInput) (*domain.TravelPackage, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TravelPackage), args.Error(1)
}

func (m *MockPackageUseCase) Edit(ctx context.Context, id string, input domain.PackageInput) (*domain.TravelPackage, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TravelPackage), args.Error(1)
}

func (m *MockPackageUseCase) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func packageResolver(svc packages.PackageUseCase) Resolver[packages.PackageUseCase] {
	return func(*gin.Context) packages.PackageUseCase { return svc }
}

func TestPackageHandler_listBindsFilter(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		criteria filter.Criteria
	}{
		{name: "no query", query: "", criteria: filter.Default()},
		{
			name:     "every field",
			query:    "?search=lis&minPrice=100&maxPrice=900&category=City&availability=2",
			criteria: filter.Criteria{Search: "lis", MinPrice: 100, MaxPrice: 900, Category: "City", MinAvailability: 2},
		},
		{
			name:     "price floor only keeps default ceiling",
			query:    "?minPrice=250",
			criteria: filter.Criteria{MinPrice: 250, MaxPrice: filter.DefaultMaxPrice},
		},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPackageUseCase{}
			handler := NewPackageHandler(packageResolver(mockService))

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/packages"+tt.query, nil)

			mockService.On("List", c.Request.Context(), tt.criteria).
				Return([]domain.TravelPackage{{ID: "p1", Title: "City break"}}, nil)

			handler.list(c)

			assert.Equal(t, http.StatusOK, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestPackageHandler_get(t *testing.T) {
	mockService := &MockPackageUseCase{}
	handler := NewPackageHandler(packageResolver(mockService))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	c.Request = httptest.NewRequest("GET", "/packages/p1?currency=EUR", nil)

	mockService.On("Get", c.Request.Context(), "p1", "EUR").
		Return(&domain.TravelPackage{ID: "p1", Price: 420, ImageURL: "https://images.example/lisbon.jpg"}, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response domain.TravelPackage
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "https://images.example/lisbon.jpg", response.ImageURL)

	mockService.AssertExpectations(t)
}

func TestPackageHandler_getMissing(t *testing.T) {
	mockService := &MockPackageUseCase{}
	handler := NewPackageHandler(packageResolver(mockService))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	c.Request = httptest.NewRequest("GET", "/packages/nope", nil)

	mockService.On("Get", c.Request.Context(), "nope", "").Return(nil, packages.ErrPackageNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestPackageHandler_delete(t *testing.T) {
	mockService := &MockPackageUseCase{}
	handler := NewPackageHandler(packageResolver(mockService))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	c.Request = httptest.NewRequest("DELETE", "/admin/packages/p1", nil)

	mockService.On("Delete", c.Request.Context(), "p1").Return(nil)

	handler.delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response Message
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, success("Package deleted successfully"), response)

	mockService.AssertExpectations(t)
}
