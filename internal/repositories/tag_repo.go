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

var tagSort = sortSpec{
	allowed: map[string]string{
		"id":            "_id",
		"tag_title":     "title",
		"tag_namespace": "namespace",
	},
	def: "tag_title",
}

var tagFilters = map[string]string{
	"tag_title":     "title",
	"tag_namespace": "namespace",
}

type TagRepository struct {
	db *mongo.Database
}

func NewTagRepository(db *mongo.Database) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) coll() *mongo.Collection {
	return r.db.Collection("tags")
}

func (r *TagRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "title", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	})
	return err
}

func (r *TagRepository) FindTagByTitle(ctx context.Context, title string) (*models.Tag, error) {
	return findOne[models.Tag](ctx, r.coll(), bson.M{"title": equalFold(title)})
}

func (r *TagRepository) CreateTag(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tag.CreatedAt = time.Now()
	result, err := r.coll().InsertOne(ctx, tag)
	if err != nil {
		return nil, err
	}
	tag.ID = result.InsertedID.(primitive.ObjectID)
	return tag, nil
}

func (r *TagRepository) ListTags(ctx context.Context, q models.ListQuery) ([]models.Tag, int64, error) {
	return findPage[models.Tag](ctx, r.coll(), textFilters(q.Filters, tagFilters), q, tagSort)
}
