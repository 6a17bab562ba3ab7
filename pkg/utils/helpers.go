package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"iris-server/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Crypto helpers
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// UUID helpers
func NewUUID() string {
	return uuid.New().String()
}

// ParseObjectID turns a malformed id into a not-found error named after what.
func ParseObjectID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperrors.NotFound(what)
	}
	return id, nil
}

// JSON helpers
// RespondWithSuccess writes the {status, message, data} envelope.
func RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// RespondWithError sends a JSON error response with the given status code and message
func RespondWithError(c *gin.Context, statusCode int, message string) {
	RespondWithErrorData(c, statusCode, message, nil)
}

func RespondWithErrorData(c *gin.Context, statusCode int, message string, data interface{}) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"status":  "error",
		"message": message,
		"data":    data,
	})
}

// GetStatusCode determines the appropriate HTTP status code for different error types
func GetStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return http.StatusNotFound
	default:
		// validation, processing and storage errors
		return http.StatusBadRequest
	}
}

// RespondWithAppError maps err onto the error envelope. Errors outside the
// apperrors taxonomy are logged and reported as a bare "data error" so that
// storage details never reach the client.
func RespondWithAppError(c *gin.Context, err error) {
	var validation *apperrors.ValidationError
	var processing *apperrors.ProcessingError

	switch {
	case errors.As(err, &validation):
		RespondWithErrorData(c, http.StatusBadRequest, "data error", validation.Fields)
	case errors.As(err, &processing):
		RespondWithErrorData(c, http.StatusBadRequest, processing.Message, processing.Data)
	case errors.Is(err, mongo.ErrNoDocuments):
		RespondWithError(c, http.StatusNotFound, "not found")
	case errors.Is(err, apperrors.ErrUnauthenticated),
		errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrAccessDenied),
		errors.Is(err, apperrors.ErrNotFound):
		RespondWithError(c, GetStatusCode(err), err.Error())
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		RespondWithError(c, http.StatusBadRequest, "data error")
	}
}

// BindJSON decodes and validates the body, reporting failures as a data error.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondWithAppError(c, apperrors.FromBinding(err))
		return false
	}
	return true
}
