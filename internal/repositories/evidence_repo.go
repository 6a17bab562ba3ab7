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

var evidenceSort = sortSpec{
	allowed: map[string]string{
		"id":         "_id",
		"filename":   "filename",
		"file_size":  "size",
		"date_added": "created_at",
	},
	def: "date_added",
}

var evidenceFilters = map[string]string{
	"filename":         "filename",
	"file_hash":        "hash",
	"file_description": "description",
}

type EvidenceRepository struct {
	db *mongo.Database
}

func NewEvidenceRepository(db *mongo.Database) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

func (r *EvidenceRepository) coll() *mongo.Collection {
	return r.db.Collection("evidences")
}

func (r *EvidenceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "case_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "filename", Value: 1}}},
	})
	return err
}

func (r *EvidenceRepository) CreateEvidence(ctx context.Context, evidence *models.Evidence) (*models.Evidence, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	evidence.CreatedAt = time.Now()
	evidence.UpdatedAt = evidence.CreatedAt

	result, err := r.coll().InsertOne(ctx, evidence)
	if err != nil {
		return nil, err
	}
	evidence.ID = result.InsertedID.(primitive.ObjectID)
	return evidence, nil
}

// FindEvidence only matches inside caseID, so an evidence of another case
// reads as missing.
func (r *EvidenceRepository) FindEvidence(ctx context.Context, caseID int64, id primitive.ObjectID) (*models.Evidence, error) {
	return findOne[models.Evidence](ctx, r.coll(), bson.M{"_id": id, "case_id": caseID})
}

func (r *EvidenceRepository) UpdateEvidence(ctx context.Context, caseID int64, id primitive.ObjectID, update bson.M) (*models.Evidence, error) {
	return updateOne[models.Evidence](ctx, r.coll(), bson.M{"_id": id, "case_id": caseID}, update)
}

func (r *EvidenceRepository) DeleteEvidence(ctx context.Context, caseID int64, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll(), bson.M{"_id": id, "case_id": caseID})
}

func (r *EvidenceRepository) ListEvidences(ctx context.Context, caseID int64, q models.ListQuery) ([]models.Evidence, int64, error) {
	filter := and(bson.M{"case_id": caseID}, textFilters(q.Filters, evidenceFilters))
	return findPage[models.Evidence](ctx, r.coll(), filter, q, evidenceSort)
}

// SearchByFilename looks across cases; caseIDs == nil means every case.
func (r *EvidenceRepository) SearchByFilename(ctx context.Context, term string, caseIDs []int64, limit int64) ([]models.Evidence, error) {
	filter := bson.M{"filename": containsFold(term)}
	if caseIDs != nil {
		filter["case_id"] = bson.M{"$in": caseIDs}
	}
	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "case_id", Value: 1}, {Key: "filename", Value: 1}})
	return findAll[models.Evidence](ctx, r.coll(), filter, opts)
}
