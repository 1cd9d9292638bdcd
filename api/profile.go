package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/service/profile"
)

type ProfileHandler struct {
	service Resolver[profile.ProfileUseCase]
}

type profileResponse struct {
	Message
	Profile *domain.UserProfile `json:"profile"`
}

func NewProfileHandler(service Resolver[profile.ProfileUseCase]) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Register(router *gin.RouterGroup, guards Guards) {
	group := router.Group("/profile", guards.Auth)
	group.GET("", h.get)
	group.PUT("", h.update)
}

func (h *ProfileHandler) get(c *gin.Context) {
	p, err := h.service(c).GetProfile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) update(c *gin.Context) {
	var input domain.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.service(c).UpdateProfile(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse{Message: success("Profile updated successfully"), Profile: p})
}
