package models

// Category groups stories; a story has at most one
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag labels stories; many-to-many
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CreateTaxonomyRequest is the body of POST /api/categories and POST /api/tags
type CreateTaxonomyRequest struct {
	Name string `json:"name"`
}
