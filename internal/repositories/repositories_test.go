package repositories

import (
	"context"
	"testing"

	"iris-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func countResponse(ns string, n int32) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func TestCustomerRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("name taken is case insensitive", func(mt *mtest.T) {
		repo := NewCustomerRepository(mt.DB)
		ns := mt.DB.Name() + ".customers"
		mt.AddMockResponses(countResponse(ns, 1))

		taken, err := repo.NameTaken(context.Background(), "Acme", primitive.NilObjectID)
		require.NoError(mt, err)
		assert.True(mt, taken)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "aggregate", evt.CommandName)
		assert.Contains(mt, evt.Command.String(), "^Acme$")
	})

	mt.Run("name free", func(mt *mtest.T) {
		repo := NewCustomerRepository(mt.DB)
		ns := mt.DB.Name() + ".customers"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		taken, err := repo.NameTaken(context.Background(), "Acme", primitive.NewObjectID())
		require.NoError(mt, err)
		assert.False(mt, taken)
	})

	mt.Run("list pages", func(mt *mtest.T) {
		repo := NewCustomerRepository(mt.DB)
		ns := mt.DB.Name() + ".customers"
		mt.AddMockResponses(
			countResponse(ns, 12),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "Acme"}},
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "Globex"}},
			),
		)

		items, total, err := repo.ListCustomers(context.Background(), models.ListQuery{Page: 2, PerPage: 10})
		require.NoError(mt, err)
		assert.Equal(mt, int64(12), total)
		require.Len(mt, items, 2)
		assert.Equal(mt, "Globex", items[1].Name)

		mt.GetStartedEvent() // count
		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "find", find.CommandName)
		assert.Equal(mt, int64(10), find.Command.Lookup("skip").Int64())
		assert.Equal(mt, int64(10), find.Command.Lookup("limit").Int64())
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewCustomerRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.DeleteCustomer(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, mongo.ErrNoDocuments)
	})
}

func TestCaseRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns sequential id", func(mt *mtest.T) {
		repo := NewCaseRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: "cases"},
				{Key: "seq", Value: int64(42)},
			}}),
			mtest.CreateSuccessResponse(),
		)

		c, err := repo.CreateCase(context.Background(), &models.Case{Name: "phishing"})
		require.NoError(mt, err)
		assert.Equal(mt, int64(42), c.ID)
		assert.False(mt, c.CreatedAt.IsZero())
	})

	mt.Run("access level defaults to none", func(mt *mtest.T) {
		repo := NewCaseRepository(mt.DB)
		ns := mt.DB.Name() + ".case_access"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		level, err := repo.AccessLevel(context.Background(), 42, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Equal(mt, models.AccessNone, level)
	})

	mt.Run("access level read", func(mt *mtest.T) {
		repo := NewCaseRepository(mt.DB)
		ns := mt.DB.Name() + ".case_access"
		userID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "case_id", Value: int64(42)},
			{Key: "user_id", Value: userID},
			{Key: "level", Value: int32(models.AccessRead)},
		}))

		level, err := repo.AccessLevel(context.Background(), 42, userID)
		require.NoError(mt, err)
		assert.Equal(mt, models.AccessRead, level)
	})

	mt.Run("accessible case ids", func(mt *mtest.T) {
		repo := NewCaseRepository(mt.DB)
		ns := mt.DB.Name() + ".case_access"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "case_id", Value: int64(1)}, {Key: "level", Value: int32(2)}},
			bson.D{{Key: "case_id", Value: int64(7)}, {Key: "level", Value: int32(1)}},
		))

		ids, err := repo.CaseIDsWithAccess(context.Background(), primitive.NewObjectID(), models.AccessRead)
		require.NoError(mt, err)
		assert.Equal(mt, []int64{1, 7}, ids)
	})
}

func TestEvidenceRepositoryScopesByCase(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("other case reads as missing", func(mt *mtest.T) {
		repo := NewEvidenceRepository(mt.DB)
		ns := mt.DB.Name() + ".evidences"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindEvidence(context.Background(), 3, primitive.NewObjectID())
		assert.ErrorIs(mt, err, mongo.ErrNoDocuments)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		filter := evt.Command.Lookup("filter").Document()
		assert.Equal(mt, int64(3), filter.Lookup("case_id").Int64())
	})
}
