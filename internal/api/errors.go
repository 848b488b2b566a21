package api

import (
	"github.com/gin-gonic/gin"
	"github.com/storytelling-api/pkg/errorx"
)

// respondError writes err as {"error": code, "message": text} and stops the chain.
// Errors that are not errorx values are reported as internal errors.
func respondError(c *gin.Context, err error) {
	e := errorx.From(err)
	c.AbortWithStatusJSON(e.Code.HTTPStatus(), gin.H{
		"error":   e.Code.String(),
		"message": e.Message,
	})
}

func badRequest(c *gin.Context, format string, a ...any) {
	respondError(c, errorx.New(errorx.BadRequest, format, a...))
}
