package services

import (
	"context"
	"errors"
	"strings"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type TagStore interface {
	FindTagByTitle(ctx context.Context, title string) (*models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	ListTags(ctx context.Context, q models.ListQuery) ([]models.Tag, int64, error)
}

type TagService struct {
	tags TagStore
}

func NewTagService(tags TagStore) *TagService {
	return &TagService{tags: tags}
}

// GetOrCreateTag matches titles case-insensitively; created reports whether
// a new tag was stored.
func (s *TagService) GetOrCreateTag(ctx context.Context, req models.TagRequest) (*models.Tag, bool, error) {
	title := strings.TrimSpace(req.Title)

	tag, err := s.tags.FindTagByTitle(ctx, title)
	if err == nil {
		return tag, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	tag, err = s.tags.CreateTag(ctx, &models.Tag{Title: title, Namespace: strings.TrimSpace(req.Namespace)})
	if mongo.IsDuplicateKeyError(err) {
		tag, err = s.tags.FindTagByTitle(ctx, title)
		return tag, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return tag, true, nil
}

func (s *TagService) ListTags(ctx context.Context, q models.ListQuery) (models.Page[models.Tag], error) {
	items, total, err := s.tags.ListTags(ctx, q)
	if err != nil {
		return models.Page[models.Tag]{}, err
	}
	return models.NewPage(items, total, q), nil
}
