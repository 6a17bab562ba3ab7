package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"iris-server/internal/models"
	"iris-server/internal/session"
	"iris-server/pkg/apperrors"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const testSecret = "test-secret"

type fakeUsers map[primitive.ObjectID]*models.User

func (f fakeUsers) FindActiveUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f[id]; ok && u.Active {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

type fixture struct {
	redis    *miniredis.Miniredis
	store    *session.RedisStore
	tokens   *TokenManager
	users    fakeUsers
	chain    *Chain
	alice    *models.User
	bob      *models.User
	inactive *models.User
}

func newFixture(t *testing.T) *fixture {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := session.NewRedisStore(client)
	tokens := NewTokenManager(testSecret, 15*time.Minute, time.Hour, store)

	f := &fixture{
		redis:    s,
		store:    store,
		tokens:   tokens,
		users:    fakeUsers{},
		alice:    &models.User{ID: primitive.NewObjectID(), Username: "alice", Active: true},
		bob:      &models.User{ID: primitive.NewObjectID(), Username: "bob", Active: true},
		inactive: &models.User{ID: primitive.NewObjectID(), Username: "gone", Active: false},
	}
	for _, u := range []*models.User{f.alice, f.bob, f.inactive} {
		f.users[u.ID] = u
	}
	f.chain = NewChain(
		NewTokenResolver(tokens, f.users),
		NewLegacyResolver(f.users),
		NewSessionResolver(store, f.users, "iris_session"),
	)
	return f
}

func newContext(req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func signRaw(t *testing.T, secret string, claims jwt.MapClaims) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestTokenResolvesAccessToken(t *testing.T) {
	f := newFixture(t)
	access, _, err := f.tokens.Issue(context.Background(), f.alice.ID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)

	user, err := f.chain.Resolve(newContext(req))
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestNonAccessTokenTypesAreRejected(t *testing.T) {
	f := newFixture(t)
	for _, typ := range []string{"refresh", "", "ACCESS", "api"} {
		tok := signRaw(t, testSecret, jwt.MapClaims{
			"user_id": f.alice.ID.Hex(),
			"type":    typ,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)

		_, err := f.chain.Resolve(newContext(req))
		assert.ErrorIs(t, err, ErrWrongTokenType, typ)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated, typ)
	}
}

func TestIssuedRefreshTokenIsNotAnAccessToken(t *testing.T) {
	f := newFixture(t)
	_, refresh, err := f.tokens.Issue(context.Background(), f.alice.ID)
	require.NoError(t, err)

	_, err = f.tokens.Verify(context.Background(), refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestExpiredOrForgedTokenWithoutSessionIsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	expired := signRaw(t, testSecret, jwt.MapClaims{
		"user_id": f.alice.ID.Hex(),
		"type":    "access",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	forged := signRaw(t, "another-secret", jwt.MapClaims{
		"user_id": f.alice.ID.Hex(),
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	for _, tok := range []string{expired, forged, "garbage"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)

		_, err := f.chain.Resolve(newContext(req))
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	}
}

func TestBadTokenFallsThroughToSession(t *testing.T) {
	f := newFixture(t)
	sid, err := f.store.Create(context.Background(), f.bob.ID.Hex(), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	req.AddCookie(&http.Cookie{Name: "iris_session", Value: sid})

	user, err := f.chain.Resolve(newContext(req))
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestTokenWinsOverLegacyAndSession(t *testing.T) {
	f := newFixture(t)
	access, _, err := f.tokens.Issue(context.Background(), f.alice.ID)
	require.NoError(t, err)
	sid, err := f.store.Create(context.Background(), f.bob.ID.Hex(), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	req.AddCookie(&http.Cookie{Name: "iris_session", Value: sid})
	c := newContext(req)
	c.Set(LegacyUserKey, f.bob.ID.Hex())

	user, err := f.chain.Resolve(c)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestLegacyWinsOverSession(t *testing.T) {
	f := newFixture(t)
	sid, err := f.store.Create(context.Background(), f.alice.ID.Hex(), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "iris_session", Value: sid})
	c := newContext(req)
	c.Set(LegacyUserKey, f.bob.ID)

	user, err := f.chain.Resolve(c)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestUnauthenticatedSessionIsRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.redis.Set("session:half", `{"user_id":"`+f.alice.ID.Hex()+`","authenticated":false}`))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "iris_session", Value: "half"})

	_, err := f.chain.Resolve(newContext(req))
	assert.ErrorIs(t, err, ErrSessionDenied)
}

func TestInactiveUserIsRejected(t *testing.T) {
	f := newFixture(t)
	access, _, err := f.tokens.Issue(context.Background(), f.inactive.ID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)

	_, err = f.chain.Resolve(newContext(req))
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestNoCredentialsIsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	_, err := f.chain.Resolve(newContext(httptest.NewRequest("GET", "/", nil)))
	assert.Equal(t, apperrors.ErrUnauthenticated, err)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	access, refresh, err := f.tokens.Issue(ctx, f.alice.ID)
	require.NoError(t, err)

	require.NoError(t, f.tokens.Revoke(ctx, access, f.alice.ID))

	_, err = f.tokens.Verify(ctx, access, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, _, _, err = f.tokens.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshRotates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, refresh, err := f.tokens.Issue(ctx, f.alice.ID)
	require.NoError(t, err)

	userID, access, next, err := f.tokens.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, userID)
	assert.NotEqual(t, refresh, next)

	_, err = f.tokens.Verify(ctx, access, TokenTypeAccess)
	require.NoError(t, err)

	// the old refresh token is spent
	_, _, _, err = f.tokens.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRemainingTTL(t *testing.T) {
	tok := signRaw(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(10 * time.Minute).Unix()})
	ttl := RemainingTTL("Bearer " + tok)
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)

	assert.Zero(t, RemainingTTL("not-a-jwt"))
}
