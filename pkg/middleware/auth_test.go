package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"iris-server/internal/identity"
	"iris-server/internal/models"
	"iris-server/pkg/apperrors"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type resolverFunc func(c *gin.Context) (*models.User, error)

func (f resolverFunc) Resolve(c *gin.Context) (*models.User, error) { return f(c) }

type staticChecker struct {
	allowed bool
	err     error
}

func (s staticChecker) HasPermission(context.Context, *models.User, models.Permission) (bool, error) {
	return s.allowed, s.err
}

type caseChecker map[int64]models.AccessLevel

func (cc caseChecker) CheckCaseAccess(_ context.Context, _ *models.User, caseID int64, level models.AccessLevel) error {
	have, ok := cc[caseID]
	if !ok {
		return apperrors.NotFound("case")
	}
	if have < level {
		return apperrors.ErrForbidden
	}
	return nil
}

type keyLookup map[string]*models.User

func (k keyLookup) FindActiveUserByAPIKey(_ context.Context, key string) (*models.User, error) {
	if u, ok := k[key]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func setupRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		caseID, _ := utils.GetCaseID(c)
		c.JSON(http.StatusOK, gin.H{"case_id": caseID})
	})
	r.GET("/case/:case_id", handlers...)
	return r
}

func do(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

var principal = &models.User{ID: primitive.NewObjectID(), Username: "analyst", Active: true}

func authed() gin.HandlerFunc {
	return RequireAuth(resolverFunc(func(*gin.Context) (*models.User, error) { return principal, nil }))
}

func TestRequireAuthRejectsWith401(t *testing.T) {
	r := setupRouter(RequireAuth(resolverFunc(func(*gin.Context) (*models.User, error) {
		return nil, identity.ErrInvalidToken
	})))

	w := do(r, "/case/1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
}

func TestRequireMFA(t *testing.T) {
	noMFA := &models.User{ID: primitive.NewObjectID(), Active: true}
	resolver := RequireAuth(resolverFunc(func(*gin.Context) (*models.User, error) { return noMFA, nil }))

	w := do(setupRouter(resolver, RequireMFA(true)), "/case/1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(setupRouter(resolver, RequireMFA(false)), "/case/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	noMFA.MFASetupComplete = true
	w = do(setupRouter(resolver, RequireMFA(true)), "/case/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermission(t *testing.T) {
	w := do(setupRouter(authed(), RequirePermission(staticChecker{allowed: false}, models.PermCustomersWrite)), "/case/1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(setupRouter(authed(), RequirePermission(staticChecker{allowed: true}, models.PermCustomersWrite)), "/case/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireCaseAccess(t *testing.T) {
	checker := caseChecker{1: models.AccessRead, 2: models.AccessNone}
	r := setupRouter(authed(), RequireCaseAccess(checker, models.AccessRead))

	w := do(r, "/case/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"case_id":1}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, do(r, "/case/2", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, "/case/3", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, "/case/abc", nil).Code)

	full := setupRouter(authed(), RequireCaseAccess(checker, models.AccessFull))
	assert.Equal(t, http.StatusForbidden, do(full, "/case/1", nil).Code)
}

func TestLegacyAPIKeySetsContext(t *testing.T) {
	owner := &models.User{ID: primitive.NewObjectID(), Active: true}
	lookup := keyLookup{"k-123": owner}

	var seen interface{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", LegacyAPIKey(lookup), func(c *gin.Context) {
		seen, _ = c.Get(identity.LegacyUserKey)
		c.Status(http.StatusNoContent)
	})

	do(r, "/", map[string]string{LegacyKeyHeader: "k-123"})
	assert.Equal(t, owner.ID.Hex(), seen)

	seen = nil
	w := do(r, "/", map[string]string{LegacyKeyHeader: "unknown"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, seen)
}
