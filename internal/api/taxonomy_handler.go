package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/service"
)

// TaxonomyHandler handles category and tag endpoints.
// POST answers 201 when a row was created and 200 when an existing one matched.
type TaxonomyHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewTaxonomyHandler creates a new TaxonomyHandler
func NewTaxonomyHandler(services *service.Services, log zerolog.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		services: services,
		log:      log.With().Str("handler", "taxonomy").Logger(),
	}
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// CreateCategory handles POST /api/categories
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req models.CreateTaxonomyRequest
	if !bindJSON(c, &req) {
		return
	}

	category, created, err := h.services.Taxonomy.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(createdStatus(created), category)
}

// ListCategories handles GET /api/categories
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, err := h.services.Taxonomy.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateTag handles POST /api/tags
func (h *TaxonomyHandler) CreateTag(c *gin.Context) {
	var req models.CreateTaxonomyRequest
	if !bindJSON(c, &req) {
		return
	}

	tag, created, err := h.services.Taxonomy.CreateTag(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(createdStatus(created), tag)
}

// ListTags handles GET /api/tags
func (h *TaxonomyHandler) ListTags(c *gin.Context) {
	tags, err := h.services.Taxonomy.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}
