package repositories

import (
	"context"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var activitySort = sortSpec{
	allowed: map[string]string{
		"activity_date": "created_at",
		"user_name":     "username",
		"case_id":       "case_id",
	},
	def: "activity_date",
}

var activityFilters = map[string]string{
	"user_name":     "username",
	"activity_desc": "message",
}

type ActivityRepository struct {
	db *mongo.Database
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) coll() *mongo.Collection {
	return r.db.Collection("activities")
}

func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "case_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *ActivityRepository) InsertActivities(ctx context.Context, activities []models.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	docs := make([]interface{}, len(activities))
	for i := range activities {
		docs[i] = activities[i]
	}
	_, err := r.coll().InsertMany(ctx, docs)
	return err
}

// ListActivities pages the audit trail; caseID == 0 means every case.
func (r *ActivityRepository) ListActivities(ctx context.Context, caseID int64, q models.ListQuery) ([]models.Activity, int64, error) {
	var scope bson.M
	if caseID != 0 {
		scope = bson.M{"case_id": caseID}
	}
	return findPage[models.Activity](ctx, r.coll(), and(scope, textFilters(q.Filters, activityFilters)), q, activitySort)
}
