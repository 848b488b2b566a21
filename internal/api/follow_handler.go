package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/service"
	"github.com/storytelling-api/pkg/errorx"
)

// FollowHandler handles the social graph endpoints
type FollowHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(services *service.Services, log zerolog.Logger) *FollowHandler {
	return &FollowHandler{
		services: services,
		log:      log.With().Str("handler", "follow").Logger(),
	}
}

// Follow handles POST /api/follows
func (h *FollowHandler) Follow(c *gin.Context) {
	var req models.FollowRequest
	if !bindJSON(c, &req) {
		return
	}

	edge, err := h.services.Follow.Follow(c.Request.Context(), actorFrom(c).ID, req.FollowingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, edge)
}

// Unfollow handles DELETE /api/follows?following_id=
func (h *FollowHandler) Unfollow(c *gin.Context) {
	followingID, ok := queryID(c, "following_id")
	if !ok {
		return
	}
	if followingID == nil {
		respondError(c, errorx.New(errorx.MissingFields, "Missing fields: following_id"))
		return
	}

	if err := h.services.Follow.Unfollow(c.Request.Context(), actorFrom(c).ID, *followingID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List handles GET /api/follows?follower_id=&following_id=
func (h *FollowHandler) List(c *gin.Context) {
	followerID, ok := queryID(c, "follower_id")
	if !ok {
		return
	}
	followingID, ok := queryID(c, "following_id")
	if !ok {
		return
	}

	edges, err := h.services.Follow.List(c.Request.Context(), models.FollowFilter{
		FollowerID:  followerID,
		FollowingID: followingID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, edges)
}
