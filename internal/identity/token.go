package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"iris-server/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken   = fmt.Errorf("invalid token: %w", apperrors.ErrUnauthenticated)
	ErrWrongTokenType = fmt.Errorf("invalid token type: %w", apperrors.ErrUnauthenticated)
	ErrTokenRevoked   = fmt.Errorf("token revoked: %w", apperrors.ErrUnauthenticated)
)

// TokenStore is the Redis side of token handling.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	MatchRefreshToken(ctx context.Context, userID, token string) (bool, error)
	RevokeRefreshToken(ctx context.Context, userID string) error
	BlacklistToken(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// TokenManager issues and verifies HS256 access/refresh pairs.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      TokenStore
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, store TokenStore) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
	}
}

func (m *TokenManager) sign(userID primitive.ObjectID, tokenType string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.Hex(),
		"sub":     userID.Hex(),
		"type":    tokenType,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
		"jti":     uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Issue signs a new pair and records the refresh token as the only valid one
// for the user.
func (m *TokenManager) Issue(ctx context.Context, userID primitive.ObjectID) (string, string, error) {
	access, err := m.sign(userID, TokenTypeAccess, m.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := m.sign(userID, TokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return "", "", err
	}
	if err := m.store.SaveRefreshToken(ctx, userID.Hex(), refresh, m.refreshTTL); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify checks signature, expiry and type. The type check is applied to
// every well-signed token, so a refresh token never works as an access one.
func (m *TokenManager) Verify(ctx context.Context, tokenString, wantType string) (primitive.ObjectID, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return primitive.NilObjectID, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return primitive.NilObjectID, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, ErrInvalidToken
	}
	if claims["type"] != wantType {
		return primitive.NilObjectID, ErrWrongTokenType
	}

	if wantType == TokenTypeAccess {
		revoked, err := m.store.IsBlacklisted(ctx, tokenString)
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("check token status: %w", err)
		}
		if revoked {
			return primitive.NilObjectID, ErrTokenRevoked
		}
	}

	return subject(claims)
}

func subject(claims jwt.MapClaims) (primitive.ObjectID, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		raw, ok = claims["sub"].(string)
	}
	if !ok {
		return primitive.NilObjectID, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}
	return id, nil
}

// Refresh rotates a refresh token: the old one stops working.
func (m *TokenManager) Refresh(ctx context.Context, refreshToken string) (primitive.ObjectID, string, string, error) {
	userID, err := m.Verify(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return primitive.NilObjectID, "", "", err
	}
	current, err := m.store.MatchRefreshToken(ctx, userID.Hex(), refreshToken)
	if err != nil {
		return primitive.NilObjectID, "", "", err
	}
	if !current {
		return primitive.NilObjectID, "", "", ErrTokenRevoked
	}
	access, refresh, err := m.Issue(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, "", "", err
	}
	return userID, access, refresh, nil
}

// Revoke blacklists the access token for what is left of its lifetime and
// drops the user's refresh token.
func (m *TokenManager) Revoke(ctx context.Context, accessToken string, userID primitive.ObjectID) error {
	if accessToken != "" {
		if err := m.store.BlacklistToken(ctx, accessToken, RemainingTTL(accessToken)); err != nil {
			return err
		}
	}
	return m.store.RevokeRefreshToken(ctx, userID.Hex())
}

// RemainingTTL reads exp without verifying the signature.
func RemainingTTL(tokenString string) time.Duration {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return 0
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	if d := time.Until(exp.Time); d > 0 {
		return d
	}
	return 0
}

// IsTokenError reports whether err came from token validation rather than
// from the token store.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrWrongTokenType) || errors.Is(err, ErrTokenRevoked)
}
