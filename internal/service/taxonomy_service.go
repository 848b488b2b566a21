package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
	"github.com/storytelling-api/internal/validation"
)

// taxonomyService is the concrete implementation of TaxonomyService
type taxonomyService struct {
	categories repository.CategoryRepository
	tags       repository.TagRepository
	log        zerolog.Logger
}

func newTaxonomyService(repos *repository.Repositories, log zerolog.Logger) *taxonomyService {
	return &taxonomyService{
		categories: repos.Category,
		tags:       repos.Tag,
		log:        log.With().Str("service", "taxonomy").Logger(),
	}
}

func (s *taxonomyService) CreateCategory(ctx context.Context, name string) (*models.Category, bool, error) {
	name, slug, err := validation.TaxonomyName(name)
	if err != nil {
		return nil, false, err
	}
	category, created, err := s.categories.GetOrCreate(ctx, name, slug)
	if err != nil {
		return nil, false, unexpected(s.log, err, "Failed to get or create category")
	}
	return category, created, nil
}

func (s *taxonomyService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to list categories")
	}
	return categories, nil
}

func (s *taxonomyService) CreateTag(ctx context.Context, name string) (*models.Tag, bool, error) {
	name, slug, err := validation.TaxonomyName(name)
	if err != nil {
		return nil, false, err
	}
	tag, created, err := s.tags.GetOrCreate(ctx, name, slug)
	if err != nil {
		return nil, false, unexpected(s.log, err, "Failed to get or create tag")
	}
	return tag, created, nil
}

func (s *taxonomyService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to list tags")
	}
	return tags, nil
}
