package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/authz"
	"github.com/storytelling-api/internal/config"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/service"
	"github.com/storytelling-api/pkg/errorx"
)

const (
	requestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	userKey      = "user"
	actorKey     = "actor"
	tokenKey     = "access_token"
)

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", c.GetString(requestIDKey)).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   errorx.CodeUnknown.String(),
					"message": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware reuses the caller's X-Request-ID or generates one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("Request completed")
	}
}

// corsMiddleware answers preflight requests and allows the configured origins
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	anyOrigin := cfg.AllowsAnyOrigin()

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case anyOrigin:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authenticate resolves a Bearer token into the request's actor. Requests
// without an Authorization header continue anonymously; a bad token is rejected.
func authenticate(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			respondError(c, errorx.New(errorx.Unauthorized, "Authorization header must carry a Bearer token"))
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Set(actorKey, &authz.Actor{ID: user.ID, Role: user.Role})
		c.Set(tokenKey, raw)
		c.Next()
	}
}

// requireAuth rejects anonymous requests
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c) == nil {
			respondError(c, errorx.New(errorx.Unauthorized, "Authentication required"))
			return
		}
		c.Next()
	}
}

// actorFrom returns the authenticated actor, or nil for anonymous requests
func actorFrom(c *gin.Context) *authz.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(*authz.Actor); ok {
			return actor
		}
	}
	return nil
}

func userFrom(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
