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

var userSort = sortSpec{
	allowed: map[string]string{
		"user_id":    "_id",
		"user_login": "username",
		"user_name":  "name",
		"created_at": "created_at",
	},
	def: "user_login",
}

var userFilters = map[string]string{
	"user_login": "username",
	"user_name":  "name",
	"user_email": "email",
}

type UserRepository struct {
	db *mongo.Database
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) coll() *mongo.Collection {
	return r.db.Collection("users")
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "api_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	result, err := r.coll().InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	user.ID = result.InsertedID.(primitive.ObjectID)
	return user, nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, r.coll(), bson.M{"_id": id})
}

// FindActiveUserByID is what identity resolution uses: deactivated accounts
// look exactly like missing ones.
func (r *UserRepository) FindActiveUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, r.coll(), bson.M{"_id": id, "active": true})
}

func (r *UserRepository) FindUserByUserName(ctx context.Context, username string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll(), bson.M{"username": username})
}

func (r *UserRepository) FindActiveUserByAPIKey(ctx context.Context, key string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll(), bson.M{"api_key": key, "active": true})
}

// CountExisting returns how many of ids belong to an existing user.
func (r *UserRepository) CountExisting(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.coll().CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *UserRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	return updateOne[models.User](ctx, r.coll(), bson.M{"_id": id}, update)
}

func (r *UserRepository) ListUsers(ctx context.Context, q models.ListQuery) ([]models.User, int64, error) {
	return findPage[models.User](ctx, r.coll(), textFilters(q.Filters, userFilters), q, userSort)
}
