package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/authz"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/service"
)

// ChapterHandler handles the chapters nested under a story
type ChapterHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewChapterHandler creates a new ChapterHandler
func NewChapterHandler(services *service.Services, log zerolog.Logger) *ChapterHandler {
	return &ChapterHandler{
		services: services,
		log:      log.With().Str("handler", "chapter").Logger(),
	}
}

func chapterIDs(c *gin.Context) (int64, int64, bool) {
	storyID, ok := pathID(c, "story_id")
	if !ok {
		return 0, 0, false
	}
	chapterID, ok := pathID(c, "chapter_id")
	if !ok {
		return 0, 0, false
	}
	return storyID, chapterID, true
}

// Create handles POST /api/stories/:story_id/chapters
func (h *ChapterHandler) Create(c *gin.Context) {
	storyID, ok := pathID(c, "story_id")
	if !ok {
		return
	}
	var req models.CreateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	chapter, err := h.services.Chapter.Create(c.Request.Context(), actorFrom(c), storyID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chapter)
}

// List handles GET /api/stories/:story_id/chapters
func (h *ChapterHandler) List(c *gin.Context) {
	storyID, ok := pathID(c, "story_id")
	if !ok {
		return
	}

	chapters, err := h.services.Chapter.List(c.Request.Context(), actorFrom(c), storyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

// Get handles GET /api/stories/:story_id/chapters/:chapter_id
func (h *ChapterHandler) Get(c *gin.Context) {
	storyID, chapterID, ok := chapterIDs(c)
	if !ok {
		return
	}

	chapter, err := h.services.Chapter.Get(c.Request.Context(), actorFrom(c), storyID, chapterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

// Update handles PATCH /api/stories/:story_id/chapters/:chapter_id
func (h *ChapterHandler) Update(c *gin.Context) {
	storyID, chapterID, ok := chapterIDs(c)
	if !ok {
		return
	}
	// non-owners get 403 whatever the body looks like
	if err := h.services.Chapter.Authorize(c.Request.Context(), actorFrom(c), storyID, chapterID, authz.Update); err != nil {
		respondError(c, err)
		return
	}
	var req models.UpdateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	chapter, err := h.services.Chapter.Update(c.Request.Context(), actorFrom(c), storyID, chapterID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

// Delete handles DELETE /api/stories/:story_id/chapters/:chapter_id?hard=
func (h *ChapterHandler) Delete(c *gin.Context) {
	storyID, chapterID, ok := chapterIDs(c)
	if !ok {
		return
	}
	hard, ok := queryBool(c, "hard")
	if !ok {
		return
	}

	if err := h.services.Chapter.Delete(c.Request.Context(), actorFrom(c), storyID, chapterID, hard); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
