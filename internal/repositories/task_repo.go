package repositories

import (
	"context"
	"time"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var globalTaskSort = sortSpec{
	allowed: map[string]string{
		"task_id":          "_id",
		"task_title":       "title",
		"task_status":      "status",
		"task_open_date":   "created_at",
		"task_last_update": "updated_at",
	},
	def: "task_id",
}

var globalTaskFilters = map[string]string{
	"task_title":       "title",
	"task_description": "description",
	"task_status":      "status",
}

type GlobalTaskRepository struct {
	db *mongo.Database
}

func NewGlobalTaskRepository(db *mongo.Database) *GlobalTaskRepository {
	return &GlobalTaskRepository{db: db}
}

func (r *GlobalTaskRepository) coll() *mongo.Collection {
	return r.db.Collection("global_tasks")
}

func (r *GlobalTaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignee_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (r *GlobalTaskRepository) CreateTask(ctx context.Context, task *models.GlobalTask) (*models.GlobalTask, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt

	result, err := r.coll().InsertOne(ctx, task)
	if err != nil {
		return nil, err
	}
	task.ID = result.InsertedID.(primitive.ObjectID)
	return task, nil
}

func (r *GlobalTaskRepository) FindTaskByID(ctx context.Context, id primitive.ObjectID) (*models.GlobalTask, error) {
	return findOne[models.GlobalTask](ctx, r.coll(), bson.M{"_id": id})
}

func (r *GlobalTaskRepository) UpdateTask(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.GlobalTask, error) {
	return updateOne[models.GlobalTask](ctx, r.coll(), bson.M{"_id": id}, update)
}

func (r *GlobalTaskRepository) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll(), bson.M{"_id": id})
}

func (r *GlobalTaskRepository) ListTasks(ctx context.Context, q models.ListQuery) ([]models.GlobalTask, int64, error) {
	return findPage[models.GlobalTask](ctx, r.coll(), textFilters(q.Filters, globalTaskFilters), q, globalTaskSort)
}
