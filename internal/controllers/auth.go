package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, string, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, user *models.User, accessToken, sid string) error
	Me(ctx context.Context, user *models.User) (models.SafeUserResponse, error)
}

type AuthController struct {
	auth       Authenticator
	cookieName string
	sessionTTL time.Duration
}

func NewAuthController(auth Authenticator, cookieName string, sessionTTL time.Duration) *AuthController {
	return &AuthController{auth: auth, cookieName: cookieName, sessionTTL: sessionTTL}
}

// Login godoc
// @Summary Log in with username and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} gin.H{"message":string}
// @Failure 401 {object} gin.H{"message":string}
// @Router /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	resp, sid, err := ac.auth.Login(c.Request.Context(), req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ac.cookieName, sid, int(ac.sessionTTL.Seconds()), "/", "", false, true)
	utils.RespondWithSuccess(c, http.StatusOK, "Login successful", resp)
}

func (ac *AuthController) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	resp, err := ac.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Token refreshed", resp)
}

// Logout revokes the bearer token and the session cookie, whichever the
// request carried.
func (ac *AuthController) Logout(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	sid, _ := c.Cookie(ac.cookieName)

	if err := ac.auth.Logout(c.Request.Context(), user, token, sid); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.SetCookie(ac.cookieName, "", -1, "/", "", false, true)
	utils.RespondWithSuccess(c, http.StatusOK, "Logged out", nil)
}

func (ac *AuthController) Me(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	me, err := ac.auth.Me(c.Request.Context(), user)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", me)
}
