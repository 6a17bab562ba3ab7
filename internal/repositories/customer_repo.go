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

var customerSort = sortSpec{
	allowed: map[string]string{
		"customer_id":   "_id",
		"customer_name": "name",
		"created_at":    "created_at",
		"updated_at":    "updated_at",
	},
	def: "customer_name",
}

var customerFilters = map[string]string{
	"customer_name":        "name",
	"customer_description": "description",
}

type CustomerRepository struct {
	db *mongo.Database
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) coll() *mongo.Collection {
	return r.db.Collection("customers")
}

func (r *CustomerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	})
	return err
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt

	result, err := r.coll().InsertOne(ctx, customer)
	if err != nil {
		return nil, err
	}
	customer.ID = result.InsertedID.(primitive.ObjectID)
	return customer, nil
}

func (r *CustomerRepository) FindCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	return findOne[models.Customer](ctx, r.coll(), bson.M{"_id": id})
}

// NameTaken compares names case-insensitively. exclude is the customer being
// updated, or primitive.NilObjectID on create.
func (r *CustomerRepository) NameTaken(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"name": equalFold(name)}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	return exists(ctx, r.coll(), filter)
}

func (r *CustomerRepository) UpdateCustomer(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Customer, error) {
	return updateOne[models.Customer](ctx, r.coll(), bson.M{"_id": id}, update)
}

func (r *CustomerRepository) DeleteCustomer(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll(), bson.M{"_id": id})
}

func (r *CustomerRepository) ListCustomers(ctx context.Context, q models.ListQuery) ([]models.Customer, int64, error) {
	return findPage[models.Customer](ctx, r.coll(), textFilters(q.Filters, customerFilters), q, customerSort)
}
