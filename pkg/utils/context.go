package utils

import (
	"fmt"
	"strconv"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	principalKey = "principal"
	userIDKey    = "userID"
	caseIDKey    = "caseID"

	// SocketIDHeader names the relay connection a REST caller owns, so that
	// notifications about its own changes skip that connection.
	SocketIDHeader = "X-IRIS-Socket-ID"
)

// SetPrincipal attaches the resolved user to the request.
func SetPrincipal(c *gin.Context, user *models.User) {
	c.Set(principalKey, user)
	c.Set(userIDKey, user.ID.Hex())
}

func GetPrincipal(c *gin.Context) (*models.User, error) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, apperrors.ErrUnauthenticated
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}

// GetUserIDFromContext extracts user ID from Gin context (set by auth middleware)
func GetUserIDFromContext(c *gin.Context) (primitive.ObjectID, error) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return primitive.NilObjectID, apperrors.ErrUnauthenticated
	}

	switch v := userID.(type) {
	case string:
		return primitive.ObjectIDFromHex(v)
	case primitive.ObjectID:
		return v, nil
	default:
		return primitive.NilObjectID, fmt.Errorf("invalid user ID type %T", v)
	}
}

func SetCaseID(c *gin.Context, caseID int64) {
	c.Set(caseIDKey, caseID)
}

// GetCaseID prefers the id stored by the case access guard and falls back to
// the :case_id route parameter.
func GetCaseID(c *gin.Context) (int64, error) {
	if v, ok := c.Get(caseIDKey); ok {
		if id, ok := v.(int64); ok {
			return id, nil
		}
	}
	return ParseCaseID(c.Param("case_id"))
}

func ParseCaseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NotFound("case")
	}
	return id, nil
}

// GetSocketID returns the caller's relay connection id, if it sent one.
func GetSocketID(c *gin.Context) string {
	return c.GetHeader(SocketIDHeader)
}
