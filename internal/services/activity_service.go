package services

import (
	"context"

	"iris-server/internal/models"
)

type ActivityStore interface {
	ListActivities(ctx context.Context, caseID int64, q models.ListQuery) ([]models.Activity, int64, error)
}

type ActivityService struct {
	activities ActivityStore
}

func NewActivityService(activities ActivityStore) *ActivityService {
	return &ActivityService{activities: activities}
}

// ListActivities pages the audit trail; caseID == 0 lists every case.
func (s *ActivityService) ListActivities(ctx context.Context, caseID int64, q models.ListQuery) (models.Page[models.Activity], error) {
	items, total, err := s.activities.ListActivities(ctx, caseID, q)
	if err != nil {
		return models.Page[models.Activity]{}, err
	}
	return models.NewPage(items, total, q), nil
}
