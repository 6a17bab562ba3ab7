package services

import (
	"context"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const searchLimit = 200

type NoteSearcher interface {
	SearchNoteIDs(ctx context.Context, term string, caseIDs []int64, limit int64) ([]primitive.ObjectID, error)
}

type NoteFinder interface {
	SearchNotes(ctx context.Context, term string, caseIDs []int64, limit int64) ([]models.Note, error)
	FindNotesByIDs(ctx context.Context, ids []primitive.ObjectID, caseIDs []int64) ([]models.Note, error)
}

type EvidenceFinder interface {
	SearchByFilename(ctx context.Context, term string, caseIDs []int64, limit int64) ([]models.Evidence, error)
}

type CaseScope interface {
	ReadableCaseIDs(ctx context.Context, user *models.User) ([]int64, error)
}

// SearchService searches across every case the principal can read. Notes go
// through the full-text index when one is configured and fall back to a
// Mongo scan when it is missing or failing.
type SearchService struct {
	scope     CaseScope
	notes     NoteFinder
	evidences EvidenceFinder
	index     NoteSearcher
}

func NewSearchService(scope CaseScope, notes NoteFinder, evidences EvidenceFinder, index NoteSearcher) *SearchService {
	return &SearchService{scope: scope, notes: notes, evidences: evidences, index: index}
}

func (s *SearchService) Search(ctx context.Context, user *models.User, req models.SearchRequest) ([]models.SearchHit, error) {
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return nil, apperrors.Invalid("search_value", "missing data for required field")
	}
	caseIDs, err := s.scope.ReadableCaseIDs(ctx, user)
	if err != nil {
		return nil, err
	}
	if caseIDs != nil && len(caseIDs) == 0 {
		return []models.SearchHit{}, nil
	}

	switch req.Type {
	case "notes":
		return s.searchNotes(ctx, term, caseIDs)
	case "evidences":
		return s.searchEvidences(ctx, term, caseIDs)
	default:
		return nil, apperrors.Invalid("search_type", "must be one of: notes evidences")
	}
}

func (s *SearchService) searchNotes(ctx context.Context, term string, caseIDs []int64) ([]models.SearchHit, error) {
	var notes []models.Note
	var err error

	if s.index != nil {
		var ids []primitive.ObjectID
		ids, err = s.index.SearchNoteIDs(ctx, term, caseIDs, searchLimit)
		if err == nil {
			notes, err = s.notes.FindNotesByIDs(ctx, ids, caseIDs)
		} else {
			log.Warn().Err(err).Msg("note index unavailable, falling back to mongo")
		}
	}
	if s.index == nil || err != nil {
		notes, err = s.notes.SearchNotes(ctx, term, caseIDs, searchLimit)
	}
	if err != nil {
		return nil, err
	}

	hits := make([]models.SearchHit, 0, len(notes))
	for _, n := range notes {
		hits = append(hits, models.SearchHit{
			CaseID:     n.CaseID,
			ObjectID:   n.ID.Hex(),
			ObjectType: objectTypeNote,
			Title:      n.Title,
			Snippet:    snippet(n.Content, term),
		})
	}
	return hits, nil
}

func (s *SearchService) searchEvidences(ctx context.Context, term string, caseIDs []int64) ([]models.SearchHit, error) {
	evidences, err := s.evidences.SearchByFilename(ctx, term, caseIDs, searchLimit)
	if err != nil {
		return nil, err
	}
	hits := make([]models.SearchHit, 0, len(evidences))
	for _, e := range evidences {
		hits = append(hits, models.SearchHit{
			CaseID:     e.CaseID,
			ObjectID:   e.ID.Hex(),
			ObjectType: objectTypeEvidence,
			Title:      e.Filename,
			Snippet:    e.Description,
		})
	}
	return hits, nil
}

// snippet cuts about 60 bytes of context on each side of the first match.
func snippet(content, term string) string {
	const radius = 60
	idx := strings.Index(strings.ToLower(content), strings.ToLower(term))
	if idx < 0 {
		if len(content) > 2*radius {
			return content[:2*radius] + "..."
		}
		return content
	}
	start, end := idx-radius, idx+len(term)+radius
	prefix, suffix := "...", "..."
	if start <= 0 {
		start, prefix = 0, ""
	}
	if end >= len(content) {
		end, suffix = len(content), ""
	}
	return prefix + content[start:end] + suffix
}
