// Package identity turns the credentials of a request into a principal.
//
// Three resolvers are tried in a fixed order: bearer token, legacy API key,
// session cookie. A resolver that finds no credentials of its kind returns
// ErrNoCredentials and the chain moves on; the first resolver to produce a
// user wins.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"iris-server/internal/models"
	"iris-server/internal/session"
	"iris-server/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LegacyUserKey is the gin context key under which middleware.LegacyAPIKey
// leaves the id of the user owning the request's API key.
const LegacyUserKey = "legacy_user_id"

var (
	ErrNoCredentials = errors.New("no credentials")
	ErrInactiveUser  = fmt.Errorf("user not found or inactive: %w", apperrors.ErrUnauthenticated)
	ErrSessionDenied = fmt.Errorf("session not authenticated: %w", apperrors.ErrUnauthenticated)
)

type Resolver interface {
	Resolve(c *gin.Context) (*models.User, error)
}

// UserLookup only ever returns active users.
type UserLookup interface {
	FindActiveUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type SessionLookup interface {
	Lookup(ctx context.Context, sid string) (session.Data, error)
}

type Chain struct {
	resolvers []Resolver
}

func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Resolve returns the first principal found. When none is found it returns
// the first rejection, or ErrUnauthenticated if nobody had an opinion.
func (ch *Chain) Resolve(c *gin.Context) (*models.User, error) {
	var rejection error
	for _, r := range ch.resolvers {
		user, err := r.Resolve(c)
		if err == nil && user != nil {
			return user, nil
		}
		if err != nil && !errors.Is(err, ErrNoCredentials) && rejection == nil {
			rejection = err
		}
	}
	if rejection != nil {
		return nil, rejection
	}
	return nil, apperrors.ErrUnauthenticated
}

func activeUser(ctx context.Context, users UserLookup, id primitive.ObjectID) (*models.User, error) {
	user, err := users.FindActiveUserByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrInactiveUser
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

type TokenResolver struct {
	tokens *TokenManager
	users  UserLookup
}

func NewTokenResolver(tokens *TokenManager, users UserLookup) *TokenResolver {
	return &TokenResolver{tokens: tokens, users: users}
}

func (r *TokenResolver) Resolve(c *gin.Context) (*models.User, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, ErrNoCredentials
	}
	userID, err := r.tokens.Verify(c.Request.Context(), header, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return activeUser(c.Request.Context(), r.users, userID)
}

type LegacyResolver struct {
	users UserLookup
}

func NewLegacyResolver(users UserLookup) *LegacyResolver {
	return &LegacyResolver{users: users}
}

func (r *LegacyResolver) Resolve(c *gin.Context) (*models.User, error) {
	raw, ok := c.Get(LegacyUserKey)
	if !ok {
		return nil, ErrNoCredentials
	}

	var id primitive.ObjectID
	switch v := raw.(type) {
	case primitive.ObjectID:
		id = v
	case string:
		parsed, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, ErrInactiveUser
		}
		id = parsed
	default:
		return nil, ErrNoCredentials
	}
	return activeUser(c.Request.Context(), r.users, id)
}

type SessionResolver struct {
	sessions   SessionLookup
	users      UserLookup
	cookieName string
}

func NewSessionResolver(sessions SessionLookup, users UserLookup, cookieName string) *SessionResolver {
	return &SessionResolver{sessions: sessions, users: users, cookieName: cookieName}
}

func (r *SessionResolver) Resolve(c *gin.Context) (*models.User, error) {
	sid, err := c.Cookie(r.cookieName)
	if err != nil || sid == "" {
		return nil, ErrNoCredentials
	}

	data, err := r.sessions.Lookup(c.Request.Context(), sid)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, ErrSessionDenied
	}
	if err != nil {
		return nil, err
	}
	if !data.Authenticated {
		return nil, ErrSessionDenied
	}

	id, err := primitive.ObjectIDFromHex(data.UserID)
	if err != nil {
		return nil, ErrSessionDenied
	}
	return activeUser(c.Request.Context(), r.users, id)
}
