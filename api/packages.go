package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/filter"
	"github.com/Domenick1991/travelstore/internal/service/packages"
)

type PackageHandler struct {
	service Resolver[packages.PackageUseCase]
}

func NewPackageHandler(service Resolver[packages.PackageUseCase]) *PackageHandler {
	return &PackageHandler{service: service}
}

// Register mounts the public catalogue on router and the package admin
// endpoints behind the admin guard.
func (h *PackageHandler) Register(router *gin.RouterGroup, guards Guards) {
	router.GET("/packages", h.list)
	router.GET("/packages/search", h.search)
	router.GET("/packages/:id", h.get)

	admin := router.Group("/admin/packages", guards.Admin)
	admin.POST("", h.add)
	admin.PUT("/:id", h.edit)
	admin.DELETE("/:id", h.delete)
}

// list answers with the whole catalogue narrowed by the query string. An
// absent maxPrice means no upper bound.
func (h *PackageHandler) list(c *gin.Context) {
	criteria := filter.Default()
	if err := c.ShouldBindQuery(&criteria); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.service(c).List(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PackageHandler) search(c *gin.Context) {
	list, err := h.service(c).Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PackageHandler) get(c *gin.Context) {
	pkg, err := h.service(c).Get(c.Request.Context(), c.Param("id"), c.Query("currency"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

type packageResponse struct {
	Message
	Package *domain.TravelPackage `json:"package"`
}

func (h *PackageHandler) add(c *gin.Context) {
	var input domain.PackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	pkg, err := h.service(c).Add(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, packageResponse{Message: success("Package added successfully"), Package: pkg})
}

func (h *PackageHandler) edit(c *gin.Context) {
	var input domain.PackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	pkg, err := h.service(c).Edit(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, packageResponse{Message: success("Package updated successfully"), Package: pkg})
}

func (h *PackageHandler) delete(c *gin.Context) {
	if err := h.service(c).Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success("Package deleted successfully"))
}
