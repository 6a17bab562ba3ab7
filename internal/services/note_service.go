package services

import (
	"context"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	objectTypeNote          = "note"
	objectTypeNoteDirectory = "note_directory"

	// deepest directory chain walked when checking for cycles
	maxDirectoryDepth = 64
	noteSearchLimit   = 100
)

type NoteStore interface {
	CreateDirectory(ctx context.Context, dir *models.NoteDirectory) (*models.NoteDirectory, error)
	FindDirectory(ctx context.Context, id primitive.ObjectID) (*models.NoteDirectory, error)
	UpdateDirectory(ctx context.Context, caseID int64, id primitive.ObjectID, update bson.M) (*models.NoteDirectory, error)
	DeleteDirectory(ctx context.Context, caseID int64, id primitive.ObjectID) error
	CountSubdirectories(ctx context.Context, caseID int64, id primitive.ObjectID) (int64, error)
	ListDirectories(ctx context.Context, caseID int64) ([]models.NoteDirectory, error)
	CreateNote(ctx context.Context, note *models.Note) (*models.Note, error)
	FindNote(ctx context.Context, caseID int64, id primitive.ObjectID) (*models.Note, error)
	UpdateNote(ctx context.Context, caseID int64, id primitive.ObjectID, update bson.M) (*models.Note, error)
	DeleteNote(ctx context.Context, caseID int64, id primitive.ObjectID) error
	ListNotes(ctx context.Context, caseID int64, dirID primitive.ObjectID) ([]models.Note, error)
	SearchNotes(ctx context.Context, term string, caseIDs []int64, limit int64) ([]models.Note, error)
}

// NoteIndex is the optional full-text index kept next to Mongo.
type NoteIndex interface {
	IndexNote(ctx context.Context, note *models.Note) error
	RemoveNote(ctx context.Context, id primitive.ObjectID) error
}

type NoteService struct {
	notes    NoteStore
	index    NoteIndex
	notifier CaseNotifier
	tracker  ActivityTracker
}

// NewNoteService accepts a nil index.
func NewNoteService(notes NoteStore, index NoteIndex, notifier CaseNotifier, tracker ActivityTracker) *NoteService {
	return &NoteService{notes: notes, index: index, notifier: notifier, tracker: tracker}
}

// directoryInCase loads a directory and requires it to belong to caseID.
func (s *NoteService) directoryInCase(ctx context.Context, caseID int64, rawID, what string) (*models.NoteDirectory, error) {
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return nil, apperrors.NotFound(what)
	}
	dir, err := s.notes.FindDirectory(ctx, id)
	if err != nil {
		return nil, notFound(err, what)
	}
	if dir.CaseID != caseID {
		return nil, apperrors.Processing("The "+what+" belongs to another case", map[string]int64{"case_id": caseID})
	}
	return dir, nil
}

func (s *NoteService) CreateDirectory(ctx context.Context, actor *models.User, caseID int64, req models.NoteDirectoryRequest, sid string) (*models.NoteDirectory, error) {
	dir := &models.NoteDirectory{CaseID: caseID, Name: strings.TrimSpace(req.Name)}
	if req.ParentID != "" {
		parent, err := s.directoryInCase(ctx, caseID, req.ParentID, "parent directory")
		if err != nil {
			return nil, err
		}
		dir.ParentID = &parent.ID
	}

	dir, err := s.notes.CreateDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	notify(s.notifier, caseID, models.ActionCreated, objectTypeNoteDirectory, dir.ID.Hex(), dir, sid)
	track(ctx, s.tracker, actor, caseID, "Created note directory %s", dir.Name)
	return dir, nil
}

func (s *NoteService) UpdateDirectory(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, req models.NoteDirectoryRequest, sid string) (*models.NoteDirectory, error) {
	if _, err := s.directoryInCase(ctx, caseID, id.Hex(), "directory"); err != nil {
		return nil, err
	}

	update := bson.M{"name": strings.TrimSpace(req.Name), "parent_id": nil}
	if req.ParentID != "" {
		parent, err := s.directoryInCase(ctx, caseID, req.ParentID, "parent directory")
		if err != nil {
			return nil, err
		}
		if err := s.checkNoCycle(ctx, id, parent); err != nil {
			return nil, err
		}
		update["parent_id"] = parent.ID
	}

	dir, err := s.notes.UpdateDirectory(ctx, caseID, id, update)
	if err != nil {
		return nil, notFound(err, "directory")
	}
	notify(s.notifier, caseID, models.ActionUpdated, objectTypeNoteDirectory, dir.ID.Hex(), dir, sid)
	track(ctx, s.tracker, actor, caseID, "Updated note directory %s", dir.Name)
	return dir, nil
}

// checkNoCycle walks up from parent and fails if it meets id.
func (s *NoteService) checkNoCycle(ctx context.Context, id primitive.ObjectID, parent *models.NoteDirectory) error {
	current := parent
	for depth := 0; depth < maxDirectoryDepth; depth++ {
		if current.ID == id {
			return apperrors.Processing("A directory cannot be moved under itself", nil)
		}
		if current.ParentID == nil {
			return nil
		}
		next, err := s.notes.FindDirectory(ctx, *current.ParentID)
		if err != nil {
			return notFound(err, "parent directory")
		}
		current = next
	}
	return apperrors.Processing("Directory tree is too deep", nil)
}

// DeleteDirectory removes a directory and its notes; it refuses while the
// directory still has subdirectories.
func (s *NoteService) DeleteDirectory(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, sid string) error {
	dir, err := s.directoryInCase(ctx, caseID, id.Hex(), "directory")
	if err != nil {
		return err
	}
	children, err := s.notes.CountSubdirectories(ctx, caseID, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperrors.Processing("Directory has subdirectories", map[string]int64{"subdirectories": children})
	}

	notes, err := s.notes.ListNotes(ctx, caseID, id)
	if err != nil {
		return err
	}
	if err := s.notes.DeleteDirectory(ctx, caseID, id); err != nil {
		return notFound(err, "directory")
	}
	for _, n := range notes {
		s.unindex(ctx, n.ID)
	}

	notify(s.notifier, caseID, models.ActionDeleted, objectTypeNoteDirectory, id.Hex(), nil, sid)
	track(ctx, s.tracker, actor, caseID, "Deleted note directory %s", dir.Name)
	return nil
}

// ListDirectories returns every directory of the case with its notes.
func (s *NoteService) ListDirectories(ctx context.Context, caseID int64) ([]models.DirectoryListing, error) {
	dirs, err := s.notes.ListDirectories(ctx, caseID)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.ListNotes(ctx, caseID, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}

	byDir := make(map[primitive.ObjectID][]models.NoteSummary, len(dirs))
	for _, n := range notes {
		byDir[n.DirectoryID] = append(byDir[n.DirectoryID], models.NoteSummary{ID: n.ID, Title: n.Title})
	}
	out := make([]models.DirectoryListing, 0, len(dirs))
	for _, d := range dirs {
		summaries := byDir[d.ID]
		if summaries == nil {
			summaries = []models.NoteSummary{}
		}
		out = append(out, models.DirectoryListing{NoteDirectory: d, Notes: summaries})
	}
	return out, nil
}

func (s *NoteService) CreateNote(ctx context.Context, actor *models.User, caseID int64, req models.NoteRequest, sid string) (*models.Note, error) {
	dir, err := s.directoryInCase(ctx, caseID, req.DirectoryID, "directory")
	if err != nil {
		return nil, err
	}

	note, err := s.notes.CreateNote(ctx, &models.Note{
		CaseID:      caseID,
		DirectoryID: dir.ID,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, note)
	notify(s.notifier, caseID, models.ActionCreated, objectTypeNote, note.ID.Hex(), note, sid)
	track(ctx, s.tracker, actor, caseID, "Added note %s", note.Title)
	return note, nil
}

func (s *NoteService) GetNote(ctx context.Context, caseID int64, id primitive.ObjectID) (*models.Note, error) {
	note, err := s.notes.FindNote(ctx, caseID, id)
	return note, notFound(err, "note")
}

func (s *NoteService) UpdateNote(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, req models.NoteRequest, sid string) (*models.Note, error) {
	if _, err := s.GetNote(ctx, caseID, id); err != nil {
		return nil, err
	}
	dir, err := s.directoryInCase(ctx, caseID, req.DirectoryID, "directory")
	if err != nil {
		return nil, err
	}

	note, err := s.notes.UpdateNote(ctx, caseID, id, bson.M{
		"title":        strings.TrimSpace(req.Title),
		"content":      req.Content,
		"directory_id": dir.ID,
	})
	if err != nil {
		return nil, notFound(err, "note")
	}

	s.reindex(ctx, note)
	notify(s.notifier, caseID, models.ActionUpdated, objectTypeNote, note.ID.Hex(), note, sid)
	track(ctx, s.tracker, actor, caseID, "Updated note %s", note.Title)
	return note, nil
}

func (s *NoteService) DeleteNote(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, sid string) error {
	note, err := s.GetNote(ctx, caseID, id)
	if err != nil {
		return err
	}
	if err := s.notes.DeleteNote(ctx, caseID, id); err != nil {
		return notFound(err, "note")
	}

	s.unindex(ctx, id)
	notify(s.notifier, caseID, models.ActionDeleted, objectTypeNote, id.Hex(), nil, sid)
	track(ctx, s.tracker, actor, caseID, "Deleted note %s", note.Title)
	return nil
}

// SearchInCase matches title or content inside one case.
func (s *NoteService) SearchInCase(ctx context.Context, caseID int64, term string) ([]models.Note, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Note{}, nil
	}
	return s.notes.SearchNotes(ctx, term, []int64{caseID}, noteSearchLimit)
}

// Index failures never fail the write; search falls back to Mongo.
func (s *NoteService) reindex(ctx context.Context, note *models.Note) {
	if s.index != nil {
		logIgnored(s.index.IndexNote(ctx, note), "note not indexed")
	}
}

func (s *NoteService) unindex(ctx context.Context, id primitive.ObjectID) {
	if s.index != nil {
		logIgnored(s.index.RemoveNote(ctx, id), "note not removed from index")
	}
}
