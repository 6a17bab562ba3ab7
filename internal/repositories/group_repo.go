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

var groupSort = sortSpec{
	allowed: map[string]string{
		"group_id":   "_id",
		"group_name": "name",
		"created_at": "created_at",
	},
	def: "group_name",
}

var groupFilters = map[string]string{
	"group_name":        "name",
	"group_description": "description",
}

type GroupRepository struct {
	db *mongo.Database
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) coll() *mongo.Collection {
	return r.db.Collection("groups")
}

func (r *GroupRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		},
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	return err
}

func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	if group.Members == nil {
		group.Members = []primitive.ObjectID{}
	}

	result, err := r.coll().InsertOne(ctx, group)
	if err != nil {
		return nil, err
	}
	group.ID = result.InsertedID.(primitive.ObjectID)
	return group, nil
}

func (r *GroupRepository) FindGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	return findOne[models.Group](ctx, r.coll(), bson.M{"_id": id})
}

func (r *GroupRepository) NameTaken(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"name": equalFold(name)}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	return exists(ctx, r.coll(), filter)
}

func (r *GroupRepository) UpdateGroup(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Group, error) {
	return updateOne[models.Group](ctx, r.coll(), bson.M{"_id": id}, update)
}

func (r *GroupRepository) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll(), bson.M{"_id": id})
}

func (r *GroupRepository) ListGroups(ctx context.Context, q models.ListQuery) ([]models.Group, int64, error) {
	return findPage[models.Group](ctx, r.coll(), textFilters(q.Filters, groupFilters), q, groupSort)
}

func (r *GroupRepository) AddMembers(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var group models.Group
	err := r.coll().FindOneAndUpdate(
		ctx,
		bson.M{"_id": groupID},
		bson.M{
			"$addToSet": bson.M{"members": bson.M{"$each": userIDs}},
			"$set":      bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&group)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var group models.Group
	err := r.coll().FindOneAndUpdate(
		ctx,
		bson.M{"_id": groupID},
		bson.M{
			"$pull": bson.M{"members": userID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&group)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) GroupsForMember(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	return findAll[models.Group](ctx, r.coll(), bson.M{"members": userID})
}
