package repositories

import (
	"context"
	"regexp"
	"time"

	"iris-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// sortSpec maps the order_by names a list endpoint accepts onto document
// fields. Anything outside allowed falls back to def.
type sortSpec struct {
	allowed map[string]string
	def     string
}

func (s sortSpec) field(orderBy string) string {
	if f, ok := s.allowed[orderBy]; ok {
		return f
	}
	if f, ok := s.allowed[s.def]; ok {
		return f
	}
	return "_id"
}

func findOptions(q models.ListQuery, spec sortSpec) *options.FindOptions {
	dir := 1
	if q.SortDir == models.SortDesc {
		dir = -1
	}

	limit := q.PerPage
	if limit < 1 {
		limit = models.DefaultPerPage
	}
	if limit > models.MaxPerPage {
		limit = models.MaxPerPage
	}

	sort := bson.D{{Key: spec.field(q.OrderBy), Value: dir}}
	if sort[0].Key != "_id" {
		// tie-breaker so pages stay stable
		sort = append(sort, bson.E{Key: "_id", Value: dir})
	}

	return options.Find().
		SetSkip(q.Offset()).
		SetLimit(limit).
		SetSort(sort)
}

// containsFold matches s anywhere in the field, ignoring case.
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// equalFold matches the whole field against s, ignoring case.
func equalFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

// textFilters turns the request filters named in allowed into substring
// predicates. Unknown filter names are ignored.
func textFilters(filters map[string]string, allowed map[string]string) bson.M {
	out := bson.M{}
	for name, value := range filters {
		field, ok := allowed[name]
		if !ok || value == "" {
			continue
		}
		out[field] = containsFold(value)
	}
	return out
}

// and combines filters with a logical AND, skipping empty ones.
func and(filters ...bson.M) bson.M {
	parts := make([]bson.M, 0, len(filters))
	for _, f := range filters {
		if len(f) > 0 {
			parts = append(parts, f)
		}
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0]
	}
	list := make(bson.A, len(parts))
	for i, p := range parts {
		list[i] = p
	}
	return bson.M{"$and": list}
}

func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, q models.ListQuery, spec sortSpec) ([]T, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := coll.Find(ctx, filter, findOptions(q, spec))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var item T
	if err := coll.FindOne(ctx, filter).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// updateOne applies a $set and returns the document as stored afterwards.
func updateOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, update bson.M) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Ensure updated_at is always set
	update["updated_at"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var item T
	if err := coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": update}, opts).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// deleteOne reports mongo.ErrNoDocuments when nothing matched.
func deleteOne(ctx context.Context, coll *mongo.Collection, filter bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func exists(ctx context.Context, coll *mongo.Collection, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
