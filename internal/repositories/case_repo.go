package repositories

import (
	"context"
	"errors"
	"time"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var caseSort = sortSpec{
	allowed: map[string]string{
		"case_id":    "_id",
		"case_name":  "name",
		"created_at": "created_at",
	},
	def: "case_id",
}

var caseFilters = map[string]string{
	"case_name":        "name",
	"case_description": "description",
}

type CaseRepository struct {
	db *mongo.Database
}

func NewCaseRepository(db *mongo.Database) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) cases() *mongo.Collection  { return r.db.Collection("cases") }
func (r *CaseRepository) access() *mongo.Collection { return r.db.Collection("case_access") }

func (r *CaseRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.cases().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "customer_id", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := r.access().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "case_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "level", Value: 1}},
		},
	})
	return err
}

// nextCaseID hands out sequential numeric case ids; rooms are named after them.
func (r *CaseRepository) nextCaseID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.db.Collection("counters").FindOneAndUpdate(
		ctx,
		bson.M{"_id": "cases"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

func (r *CaseRepository) CreateCase(ctx context.Context, c *models.Case) (*models.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id, err := r.nextCaseID(ctx)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.CreatedAt = time.Now()

	if _, err := r.cases().InsertOne(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CaseRepository) FindCaseByID(ctx context.Context, id int64) (*models.Case, error) {
	return findOne[models.Case](ctx, r.cases(), bson.M{"_id": id})
}

func (r *CaseRepository) CaseExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.cases(), bson.M{"_id": id})
}

// ListCases pages through cases; ids == nil means no restriction.
func (r *CaseRepository) ListCases(ctx context.Context, ids []int64, q models.ListQuery) ([]models.Case, int64, error) {
	var scope bson.M
	if ids != nil {
		scope = bson.M{"_id": bson.M{"$in": ids}}
	}
	return findPage[models.Case](ctx, r.cases(), and(scope, textFilters(q.Filters, caseFilters)), q, caseSort)
}

func (r *CaseRepository) CountCasesForCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.cases().CountDocuments(ctx, bson.M{"customer_id": customerID})
}

func (r *CaseRepository) SetAccess(ctx context.Context, access models.CaseAccess) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.access().UpdateOne(
		ctx,
		bson.M{"case_id": access.CaseID, "user_id": access.UserID},
		bson.M{"$set": bson.M{"level": access.Level}},
		options.Update().SetUpsert(true),
	)
	return err
}

// AccessLevel returns AccessNone when no record exists.
func (r *CaseRepository) AccessLevel(ctx context.Context, caseID int64, userID primitive.ObjectID) (models.AccessLevel, error) {
	access, err := findOne[models.CaseAccess](ctx, r.access(), bson.M{"case_id": caseID, "user_id": userID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AccessNone, nil
	}
	if err != nil {
		return models.AccessNone, err
	}
	return access.Level, nil
}

// CaseIDsWithAccess lists the cases on which the user holds at least level.
func (r *CaseRepository) CaseIDsWithAccess(ctx context.Context, userID primitive.ObjectID, level models.AccessLevel) ([]int64, error) {
	records, err := findAll[models.CaseAccess](ctx, r.access(), bson.M{
		"user_id": userID,
		"level":   bson.M{"$gte": level},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.CaseID)
	}
	return ids, nil
}
