package services

import (
	"context"
	"strings"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const objectTypeEvidence = "evidence"

type EvidenceStore interface {
	CreateEvidence(ctx context.Context, evidence *models.Evidence) (*models.Evidence, error)
	FindEvidence(ctx context.Context, caseID int64, id primitive.ObjectID) (*models.Evidence, error)
	UpdateEvidence(ctx context.Context, caseID int64, id primitive.ObjectID, update bson.M) (*models.Evidence, error)
	DeleteEvidence(ctx context.Context, caseID int64, id primitive.ObjectID) error
	ListEvidences(ctx context.Context, caseID int64, q models.ListQuery) ([]models.Evidence, int64, error)
}

// EvidenceService works inside one case at a time; an evidence filed under
// another case is reported as missing.
type EvidenceService struct {
	evidences EvidenceStore
	notifier  CaseNotifier
	tracker   ActivityTracker
}

func NewEvidenceService(evidences EvidenceStore, notifier CaseNotifier, tracker ActivityTracker) *EvidenceService {
	return &EvidenceService{evidences: evidences, notifier: notifier, tracker: tracker}
}

func (s *EvidenceService) CreateEvidence(ctx context.Context, actor *models.User, caseID int64, req models.EvidenceRequest, sid string) (*models.Evidence, error) {
	evidence, err := s.evidences.CreateEvidence(ctx, &models.Evidence{
		CaseID:      caseID,
		Filename:    strings.TrimSpace(req.Filename),
		Size:        req.Size,
		Hash:        strings.ToUpper(strings.TrimSpace(req.Hash)),
		Description: req.Description,
		AddedBy:     actor.ID,
	})
	if err != nil {
		return nil, err
	}

	notify(s.notifier, caseID, models.ActionCreated, objectTypeEvidence, evidence.ID.Hex(), evidence, sid)
	track(ctx, s.tracker, actor, caseID, "Added evidence %s", evidence.Filename)
	return evidence, nil
}

func (s *EvidenceService) GetEvidence(ctx context.Context, caseID int64, id primitive.ObjectID) (*models.Evidence, error) {
	evidence, err := s.evidences.FindEvidence(ctx, caseID, id)
	return evidence, notFound(err, "evidence")
}

func (s *EvidenceService) UpdateEvidence(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, req models.EvidenceRequest, sid string) (*models.Evidence, error) {
	evidence, err := s.evidences.UpdateEvidence(ctx, caseID, id, bson.M{
		"filename":    strings.TrimSpace(req.Filename),
		"size":        req.Size,
		"hash":        strings.ToUpper(strings.TrimSpace(req.Hash)),
		"description": req.Description,
	})
	if err != nil {
		return nil, notFound(err, "evidence")
	}

	notify(s.notifier, caseID, models.ActionUpdated, objectTypeEvidence, evidence.ID.Hex(), evidence, sid)
	track(ctx, s.tracker, actor, caseID, "Updated evidence %s", evidence.Filename)
	return evidence, nil
}

func (s *EvidenceService) DeleteEvidence(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, sid string) error {
	evidence, err := s.GetEvidence(ctx, caseID, id)
	if err != nil {
		return err
	}
	if err := s.evidences.DeleteEvidence(ctx, caseID, id); err != nil {
		return notFound(err, "evidence")
	}

	notify(s.notifier, caseID, models.ActionDeleted, objectTypeEvidence, id.Hex(), nil, sid)
	track(ctx, s.tracker, actor, caseID, "Deleted evidence %s", evidence.Filename)
	return nil
}

func (s *EvidenceService) ListEvidences(ctx context.Context, caseID int64, q models.ListQuery) (models.Page[models.Evidence], error) {
	items, total, err := s.evidences.ListEvidences(ctx, caseID, q)
	if err != nil {
		return models.Page[models.Evidence]{}, err
	}
	return models.NewPage(items, total, q), nil
}
