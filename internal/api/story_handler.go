package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/authz"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/service"
	"github.com/storytelling-api/internal/validation"
)

// StoryHandler handles story endpoints
type StoryHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(services *service.Services, log zerolog.Logger) *StoryHandler {
	return &StoryHandler{
		services: services,
		log:      log.With().Str("handler", "story").Logger(),
	}
}

// Create handles POST /api/stories
func (h *StoryHandler) Create(c *gin.Context) {
	var req models.CreateStoryRequest
	if !bindJSON(c, &req) {
		return
	}

	story, err := h.services.Story.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, story)
}

// List handles GET /api/stories
// Supports author_id, category_id and tag filters
func (h *StoryHandler) List(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	authorID, ok := queryID(c, "author_id")
	if !ok {
		return
	}
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}

	filter := models.StoryFilter{
		AuthorID:   authorID,
		CategoryID: categoryID,
		TagSlug:    validation.Slugify(c.Query("tag")),
		Page:       page,
	}

	stories, err := h.services.Story.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

// Get handles GET /api/stories/:story_id
func (h *StoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "story_id")
	if !ok {
		return
	}

	story, err := h.services.Story.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// Update handles PATCH /api/stories/:story_id
func (h *StoryHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "story_id")
	if !ok {
		return
	}
	if err := h.services.Story.Authorize(c.Request.Context(), actorFrom(c), id, authz.Update); err != nil {
		respondError(c, err)
		return
	}
	var req models.UpdateStoryRequest
	if !bindJSON(c, &req) {
		return
	}

	story, err := h.services.Story.Update(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// Delete handles DELETE /api/stories/:story_id?hard=
func (h *StoryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "story_id")
	if !ok {
		return
	}
	hard, ok := queryBool(c, "hard")
	if !ok {
		return
	}

	if err := h.services.Story.Delete(c.Request.Context(), actorFrom(c), id, hard); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordView handles POST /api/stories/:story_id/view
func (h *StoryHandler) RecordView(c *gin.Context) {
	id, ok := pathID(c, "story_id")
	if !ok {
		return
	}

	view, err := h.services.View.RecordView(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
