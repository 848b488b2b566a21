package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/service"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// Create handles POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req models.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	h.create(c, &req)
}

// CreateForChapter handles POST /api/stories/:story_id/chapters/:chapter_id/comments
func (h *CommentHandler) CreateForChapter(c *gin.Context) {
	storyID, chapterID, ok := chapterIDs(c)
	if !ok {
		return
	}
	var req models.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	req.StoryID = storyID
	req.ChapterID = &chapterID
	h.create(c, &req)
}

func (h *CommentHandler) create(c *gin.Context, req *models.CreateCommentRequest) {
	comment, err := h.services.Comment.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// List handles GET /api/comments?story_id=&chapter_id=
func (h *CommentHandler) List(c *gin.Context) {
	storyID, ok := queryID(c, "story_id")
	if !ok {
		return
	}
	chapterID, ok := queryID(c, "chapter_id")
	if !ok {
		return
	}
	h.list(c, models.CommentFilter{StoryID: storyID, ChapterID: chapterID})
}

// ListForChapter handles GET /api/stories/:story_id/chapters/:chapter_id/comments
func (h *CommentHandler) ListForChapter(c *gin.Context) {
	storyID, chapterID, ok := chapterIDs(c)
	if !ok {
		return
	}
	h.list(c, models.CommentFilter{StoryID: &storyID, ChapterID: &chapterID})
}

func (h *CommentHandler) list(c *gin.Context, filter models.CommentFilter) {
	comments, err := h.services.Comment.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}
