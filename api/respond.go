package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/guard"
	"github.com/Domenick1991/travelstore/internal/service/booking"
	"github.com/Domenick1991/travelstore/internal/service/packages"
	"github.com/Domenick1991/travelstore/internal/service/profile"
)

// DismissAfterMs is how long success and info banners stay up. Errors stay
// until the user dismisses them.
const DismissAfterMs = 3000

const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityError   = "error"
)

// Message is the banner every mutating endpoint answers with.
type Message struct {
	Message        string `json:"message"`
	Severity       string `json:"severity"`
	DismissAfterMs int    `json:"dismissAfterMs"`
}

func success(msg string) Message {
	return Message{Message: msg, Severity: SeveritySuccess, DismissAfterMs: DismissAfterMs}
}

func info(msg string) Message {
	return Message{Message: msg, Severity: SeverityInfo, DismissAfterMs: DismissAfterMs}
}

func failure(msg string) Message {
	return Message{Message: msg, Severity: SeverityError}
}

// Resolver picks the per-client service of a request.
type Resolver[T any] func(c *gin.Context) T

// Guards are the two route guards as gin middleware.
type Guards struct {
	Auth  gin.HandlerFunc
	Admin gin.HandlerFunc
}

func NewGuards(resolve func(*gin.Context) guard.Principal) Guards {
	return Guards{
		Auth:  guard.Require(guard.AuthGuard{}, resolve),
		Admin: guard.Require(guard.AdminGuard{}, resolve),
	}
}

// respondError turns a service error into a banner. An expired session is
// the only error that navigates: the caller is sent to the login page.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *gateway.ValidationError
		gqlErr        *gateway.GraphQLError
		netErr        *gateway.NetworkError
	)
	switch {
	case errors.Is(err, gateway.ErrSessionExpired):
		c.Redirect(http.StatusFound, guard.LoginPath)
		c.Abort()
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, failure(validationErr.Error()))
	case errors.Is(err, packages.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, failure("Package not found"))
	case errors.Is(err, booking.ErrNotCancellable):
		c.JSON(http.StatusConflict, failure("Booking is already cancelled"))
	case errors.Is(err, profile.ErrNoChanges):
		c.JSON(http.StatusBadRequest, failure("No changes were made"))
	case errors.As(err, &gqlErr):
		c.JSON(http.StatusBadRequest, failure(gqlErr.Error()))
	case errors.As(err, &netErr):
		c.JSON(http.StatusBadGateway, failure("Could not reach the travel service, please try again"))
	default:
		c.JSON(http.StatusInternalServerError, failure(err.Error()))
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, failure("invalid request: "+err.Error()))
}
