package repositories

import (
	"context"
	"time"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var savedFilterSort = sortSpec{
	allowed: map[string]string{
		"filter_id":   "_id",
		"filter_name": "name",
		"filter_type": "type",
		"created_at":  "created_at",
	},
	def: "filter_name",
}

var savedFilterFilters = map[string]string{
	"filter_name": "name",
	"filter_type": "type",
}

type SavedFilterRepository struct {
	db *mongo.Database
}

func NewSavedFilterRepository(db *mongo.Database) *SavedFilterRepository {
	return &SavedFilterRepository{db: db}
}

func (r *SavedFilterRepository) coll() *mongo.Collection {
	return r.db.Collection("saved_filters")
}

func (r *SavedFilterRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "is_private", Value: 1}},
	})
	return err
}

func (r *SavedFilterRepository) CreateFilter(ctx context.Context, filter *models.SavedFilter) (*models.SavedFilter, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter.CreatedAt = time.Now()
	filter.UpdatedAt = filter.CreatedAt

	result, err := r.coll().InsertOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	filter.ID = result.InsertedID.(primitive.ObjectID)
	return filter, nil
}

func (r *SavedFilterRepository) FindFilterByID(ctx context.Context, id primitive.ObjectID) (*models.SavedFilter, error) {
	return findOne[models.SavedFilter](ctx, r.coll(), bson.M{"_id": id})
}

func (r *SavedFilterRepository) UpdateFilter(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.SavedFilter, error) {
	return updateOne[models.SavedFilter](ctx, r.coll(), bson.M{"_id": id}, update)
}

func (r *SavedFilterRepository) DeleteFilter(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll(), bson.M{"_id": id})
}

// ListVisible returns public filters plus the private ones owned by userID.
func (r *SavedFilterRepository) ListVisible(ctx context.Context, userID primitive.ObjectID, q models.ListQuery) ([]models.SavedFilter, int64, error) {
	visible := bson.M{"$or": bson.A{
		bson.M{"is_private": false},
		bson.M{"created_by": userID},
	}}
	return findPage[models.SavedFilter](ctx, r.coll(), and(visible, textFilters(q.Filters, savedFilterFilters)), q, savedFilterSort)
}
