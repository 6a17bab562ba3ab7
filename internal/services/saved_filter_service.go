package services

import (
	"context"
	"fmt"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SavedFilterStore interface {
	CreateFilter(ctx context.Context, filter *models.SavedFilter) (*models.SavedFilter, error)
	FindFilterByID(ctx context.Context, id primitive.ObjectID) (*models.SavedFilter, error)
	UpdateFilter(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.SavedFilter, error)
	DeleteFilter(ctx context.Context, id primitive.ObjectID) error
	ListVisible(ctx context.Context, userID primitive.ObjectID, q models.ListQuery) ([]models.SavedFilter, int64, error)
}

// SavedFilterService hides private filters from everyone but their creator.
// Only the creator may change or delete a filter, public or not.
type SavedFilterService struct {
	filters SavedFilterStore
}

func NewSavedFilterService(filters SavedFilterStore) *SavedFilterService {
	return &SavedFilterService{filters: filters}
}

func (s *SavedFilterService) CreateFilter(ctx context.Context, actor *models.User, req models.SavedFilterRequest) (*models.SavedFilter, error) {
	return s.filters.CreateFilter(ctx, &models.SavedFilter{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Type:        req.Type,
		Data:        req.Data,
		IsPrivate:   req.IsPrivate,
		CreatedBy:   actor.ID,
	})
}

func (s *SavedFilterService) GetFilter(ctx context.Context, actor *models.User, id primitive.ObjectID) (*models.SavedFilter, error) {
	filter, err := s.filters.FindFilterByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "saved filter")
	}
	if !filter.VisibleTo(actor.ID) {
		return nil, apperrors.NotFound("saved filter")
	}
	return filter, nil
}

func (s *SavedFilterService) owned(ctx context.Context, actor *models.User, id primitive.ObjectID) (*models.SavedFilter, error) {
	filter, err := s.GetFilter(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if filter.CreatedBy != actor.ID {
		return nil, fmt.Errorf("saved filter belongs to another user: %w", apperrors.ErrForbidden)
	}
	return filter, nil
}

func (s *SavedFilterService) UpdateFilter(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.SavedFilterRequest) (*models.SavedFilter, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	filter, err := s.filters.UpdateFilter(ctx, id, bson.M{
		"name":        strings.TrimSpace(req.Name),
		"description": req.Description,
		"type":        req.Type,
		"data":        req.Data,
		"is_private":  req.IsPrivate,
	})
	return filter, notFound(err, "saved filter")
}

func (s *SavedFilterService) DeleteFilter(ctx context.Context, actor *models.User, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return notFound(s.filters.DeleteFilter(ctx, id), "saved filter")
}

func (s *SavedFilterService) ListFilters(ctx context.Context, actor *models.User, q models.ListQuery) (models.Page[models.SavedFilter], error) {
	items, total, err := s.filters.ListVisible(ctx, actor.ID, q)
	if err != nil {
		return models.Page[models.SavedFilter]{}, err
	}
	return models.NewPage(items, total, q), nil
}
