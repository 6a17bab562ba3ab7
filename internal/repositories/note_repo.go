package repositories

import (
	"context"
	"time"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NoteRepository stores notes and the directories that hold them. Every
// lookup is scoped to a case.
type NoteRepository struct {
	db *mongo.Database
}

func NewNoteRepository(db *mongo.Database) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) dirs() *mongo.Collection  { return r.db.Collection("note_directories") }
func (r *NoteRepository) notes() *mongo.Collection { return r.db.Collection("notes") }

func (r *NoteRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.dirs().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "case_id", Value: 1}, {Key: "parent_id", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := r.notes().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "case_id", Value: 1}, {Key: "directory_id", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: 1}}},
	})
	return err
}

func (r *NoteRepository) CreateDirectory(ctx context.Context, dir *models.NoteDirectory) (*models.NoteDirectory, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	dir.CreatedAt = time.Now()
	dir.UpdatedAt = dir.CreatedAt

	result, err := r.dirs().InsertOne(ctx, dir)
	if err != nil {
		return nil, err
	}
	dir.ID = result.InsertedID.(primitive.ObjectID)
	return dir, nil
}

// FindDirectory looks the directory up regardless of case so callers can tell
// a missing directory from one that belongs elsewhere.
func (r *NoteRepository) FindDirectory(ctx context.Context, id primitive.ObjectID) (*models.NoteDirectory, error) {
	return findOne[models.NoteDirectory](ctx, r.dirs(), bson.M{"_id": id})
}

func (r *NoteRepository) UpdateDirectory(ctx context.Context, caseID int64, id primitive.ObjectID, update bson.M) (*models.NoteDirectory, error) {
	return updateOne[models.NoteDirectory](ctx, r.dirs(), bson.M{"_id": id, "case_id": caseID}, update)
}

// DeleteDirectory removes the directory and every note filed in it.
func (r *NoteRepository) DeleteDirectory(ctx context.Context, caseID int64, id primitive.ObjectID) error {
	if err := deleteOne(ctx, r.dirs(), bson.M{"_id": id, "case_id": caseID}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.notes().DeleteMany(ctx, bson.M{"case_id": caseID, "directory_id": id})
	return err
}

func (r *NoteRepository) CountSubdirectories(ctx context.Context, caseID int64, id primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.dirs().CountDocuments(ctx, bson.M{"case_id": caseID, "parent_id": id})
}

func (r *NoteRepository) ListDirectories(ctx context.Context, caseID int64) ([]models.NoteDirectory, error) {
	return findAll[models.NoteDirectory](ctx, r.dirs(), bson.M{"case_id": caseID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *NoteRepository) CreateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt

	result, err := r.notes().InsertOne(ctx, note)
	if err != nil {
		return nil, err
	}
	note.ID = result.InsertedID.(primitive.ObjectID)
	return note, nil
}

func (r *NoteRepository) FindNote(ctx context.Context, caseID int64, id primitive.ObjectID) (*models.Note, error) {
	return findOne[models.Note](ctx, r.notes(), bson.M{"_id": id, "case_id": caseID})
}

func (r *NoteRepository) UpdateNote(ctx context.Context, caseID int64, id primitive.ObjectID, update bson.M) (*models.Note, error) {
	return updateOne[models.Note](ctx, r.notes(), bson.M{"_id": id, "case_id": caseID}, update)
}

func (r *NoteRepository) DeleteNote(ctx context.Context, caseID int64, id primitive.ObjectID) error {
	return deleteOne(ctx, r.notes(), bson.M{"_id": id, "case_id": caseID})
}

func (r *NoteRepository) ListNotes(ctx context.Context, caseID int64, dirID primitive.ObjectID) ([]models.Note, error) {
	filter := bson.M{"case_id": caseID}
	if !dirID.IsZero() {
		filter["directory_id"] = dirID
	}
	return findAll[models.Note](ctx, r.notes(), filter,
		options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
}

// SearchNotes matches title or content; caseIDs == nil means every case.
func (r *NoteRepository) SearchNotes(ctx context.Context, term string, caseIDs []int64, limit int64) ([]models.Note, error) {
	var scope bson.M
	if caseIDs != nil {
		scope = bson.M{"case_id": bson.M{"$in": caseIDs}}
	}
	match := bson.M{"$or": bson.A{
		bson.M{"title": containsFold(term)},
		bson.M{"content": containsFold(term)},
	}}
	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "updated_at", Value: -1}})
	return findAll[models.Note](ctx, r.notes(), and(scope, match), opts)
}

// FindNotesByIDs keeps the search index honest: ids it returns are re-read
// from Mongo and filtered by case.
func (r *NoteRepository) FindNotesByIDs(ctx context.Context, ids []primitive.ObjectID, caseIDs []int64) ([]models.Note, error) {
	filter := bson.M{"_id": bson.M{"$in": ids}}
	if caseIDs != nil {
		filter["case_id"] = bson.M{"$in": caseIDs}
	}
	return findAll[models.Note](ctx, r.notes(), filter)
}
