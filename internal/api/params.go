package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/storytelling-api/internal/models"
)

// bindJSON decodes the request body into dst, answering 400 on malformed input
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid JSON body")
		return false
	}
	return true
}

// pathID parses a positive integer path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "%s must be a positive integer", name)
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter
func queryID(c *gin.Context, name string) (*int64, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "%s must be a positive integer", name)
		return nil, false
	}
	return &id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "%s must be an integer", name)
		return 0, false
	}
	return v, true
}

// pageQuery reads page and per_page. Out of range values are clamped.
func pageQuery(c *gin.Context) (models.Page, bool) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return models.Page{}, false
	}
	perPage, ok := queryInt(c, "per_page", models.DefaultPerPage)
	if !ok {
		return models.Page{}, false
	}
	return models.NewPage(page, perPage), true
}

func queryBool(c *gin.Context, name string) (bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "%s must be true or false", name)
		return false, false
	}
	return v, true
}
