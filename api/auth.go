package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/guard"
	"github.com/Domenick1991/travelstore/internal/service/auth"
)

type AuthHandler struct {
	service Resolver[auth.AuthUseCase]
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Message
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	Redirect string `json:"redirect"`
}

func NewAuthHandler(service Resolver[auth.AuthUseCase]) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)
	router.POST("/register", h.register)
	router.POST("/logout", h.logout)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	payload, err := h.service(c).Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(payload, payload.Username == auth.AdminUsername, "Login successful"))
}

func (h *AuthHandler) register(c *gin.Context) {
	var req domain.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	payload, err := h.service(c).Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAuthResponse(payload, false, "Registration successful"))
}

func (h *AuthHandler) logout(c *gin.Context) {
	if err := h.service(c).Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info("You have been logged out"))
}

// newAuthResponse leaves the token out: it stays in the server-side session.
func newAuthResponse(p *domain.AuthPayload, isAdmin bool, msg string) authResponse {
	return authResponse{
		Message:  success(msg),
		ID:       p.ID,
		Username: p.Username,
		Email:    p.Email,
		IsAdmin:  isAdmin,
		Redirect: guard.HomePath,
	}
}
