package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/travelstore/internal/service/wishlist"
)

type WishlistHandler struct {
	service Resolver[wishlist.WishlistUseCase]
}

func NewWishlistHandler(service Resolver[wishlist.WishlistUseCase]) *WishlistHandler {
	return &WishlistHandler{service: service}
}

func (h *WishlistHandler) Register(router *gin.RouterGroup, guards Guards) {
	group := router.Group("/wishlist", guards.Auth)
	group.GET("", h.list)
	group.GET("/:packageId", h.contains)
	group.POST("/:packageId", h.add)
	group.DELETE("/:packageId", h.remove)
	group.POST("/:packageId/toggle", h.toggle)
}

type wishlistState struct {
	Message
	PackageID  string `json:"packageId"`
	InWishlist bool   `json:"inWishlist"`
}

func (h *WishlistHandler) list(c *gin.Context) {
	entries, err := h.service(c).List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *WishlistHandler) contains(c *gin.Context) {
	id := c.Param("packageId")
	present, err := h.service(c).Contains(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlistState{PackageID: id, InWishlist: present})
}

func (h *WishlistHandler) add(c *gin.Context) {
	id := c.Param("packageId")
	if err := h.service(c).Add(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlistState{Message: success("Added to wishlist"), PackageID: id, InWishlist: true})
}

func (h *WishlistHandler) remove(c *gin.Context) {
	id := c.Param("packageId")
	if err := h.service(c).Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlistState{Message: success("Removed from wishlist"), PackageID: id})
}

func (h *WishlistHandler) toggle(c *gin.Context) {
	id := c.Param("packageId")
	present, err := h.service(c).Toggle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Removed from wishlist"
	if present {
		msg = "Added to wishlist"
	}
	c.JSON(http.StatusOK, wishlistState{Message: success(msg), PackageID: id, InWishlist: present})
}
