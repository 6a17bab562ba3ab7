package middleware

import (
	"context"
	"errors"
	"net/http"

	"iris-server/internal/identity"
	"iris-server/internal/models"
	"iris-server/pkg/apperrors"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// LegacyKeyHeader carries the per-user API key of older integrations.
const LegacyKeyHeader = "X-IRIS-API-Key"

type APIKeyLookup interface {
	FindActiveUserByAPIKey(ctx context.Context, key string) (*models.User, error)
}

type PermissionChecker interface {
	HasPermission(ctx context.Context, user *models.User, perm models.Permission) (bool, error)
}

type CaseAccessChecker interface {
	CheckCaseAccess(ctx context.Context, user *models.User, caseID int64, level models.AccessLevel) error
}

// RequireAuth resolves the principal and attaches it to the request.
func RequireAuth(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolver.Resolve(c)
		if err != nil {
			if !errors.Is(err, apperrors.ErrUnauthenticated) {
				log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("identity resolution failed")
			}
			utils.RespondWithError(c, http.StatusUnauthorized, "authentication required")
			return
		}

		utils.SetPrincipal(c, user)
		c.Next()
	}
}

// RequireMFA refuses principals that have not finished MFA setup when MFA is
// turned on for the deployment. It must run after RequireAuth.
func RequireMFA(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		user, err := utils.GetPrincipal(c)
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.MFASetupComplete {
			utils.RespondWithAppError(c, apperrors.ErrMFARequired)
			return
		}
		c.Next()
	}
}

// LegacyAPIKey maps the API key header onto its owner for the legacy
// resolver. It never rejects: an unknown key simply resolves nothing.
func LegacyAPIKey(users APIKeyLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(LegacyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		user, err := users.FindActiveUserByAPIKey(c.Request.Context(), key)
		switch {
		case err == nil:
			c.Set(identity.LegacyUserKey, user.ID.Hex())
		case !errors.Is(err, mongo.ErrNoDocuments):
			log.Error().Err(err).Msg("api key lookup failed")
		}
		c.Next()
	}
}

func RequirePermission(checker PermissionChecker, perm models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := utils.GetPrincipal(c)
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized, "authentication required")
			return
		}
		ok, err := checker.HasPermission(c.Request.Context(), user, perm)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		if !ok {
			utils.RespondWithError(c, http.StatusForbidden, "permission denied")
			return
		}
		c.Next()
	}
}

// RequireCaseAccess checks the :case_id route parameter: a missing case is
// 404, insufficient access 403. On success the case id is stored for the
// handler.
func RequireCaseAccess(checker CaseAccessChecker, level models.AccessLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := utils.GetPrincipal(c)
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized, "authentication required")
			return
		}
		caseID, err := utils.ParseCaseID(c.Param("case_id"))
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		if err := checker.CheckCaseAccess(c.Request.Context(), user, caseID, level); err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		utils.SetCaseID(c, caseID)
		c.Next()
	}
}
