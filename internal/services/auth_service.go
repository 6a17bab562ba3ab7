package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iris-server/internal/identity"
	"iris-server/internal/models"
	"iris-server/pkg/apperrors"
	"iris-server/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthenticated)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByUserName(ctx context.Context, username string) (*models.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)
	Revoke(ctx context.Context, sid string) error
}

type PermissionLister interface {
	EffectivePermissions(ctx context.Context, user *models.User) ([]models.Permission, error)
}

type AuthService struct {
	users      UserStore
	tokens     *identity.TokenManager
	sessions   SessionStore
	perms      PermissionLister
	sessionTTL time.Duration
	tracker    ActivityTracker
}

func NewAuthService(
	users UserStore,
	tokens *identity.TokenManager,
	sessions SessionStore,
	perms PermissionLister,
	sessionTTL time.Duration,
	tracker ActivityTracker,
) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		sessions:   sessions,
		perms:      perms,
		sessionTTL: sessionTTL,
		tracker:    tracker,
	}
}

// Login checks the password and opens both a token pair and a browser
// session. It returns the session id for the cookie.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, string, error) {
	user, err := s.users.FindUserByUserName(ctx, req.Username)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !user.Active || !utils.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, "", err
	}
	sid, err := s.sessions.Create(ctx, user.ID.Hex(), s.sessionTTL)
	if err != nil {
		return nil, "", err
	}

	track(ctx, s.tracker, user, 0, "User %s logged in", user.Username)
	return resp, sid, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	userID, access, refresh, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil || !user.Active {
		return nil, identity.ErrInactiveUser
	}
	safe, err := s.safeUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{AccessToken: access, RefreshToken: refresh, User: safe}, nil
}

// Logout revokes whatever credentials the request carried.
func (s *AuthService) Logout(ctx context.Context, user *models.User, accessToken, sid string) error {
	if err := s.tokens.Revoke(ctx, accessToken, user.ID); err != nil {
		return err
	}
	if sid != "" {
		if err := s.sessions.Revoke(ctx, sid); err != nil {
			return err
		}
	}
	track(ctx, s.tracker, user, 0, "User %s logged out", user.Username)
	return nil
}

func (s *AuthService) Me(ctx context.Context, user *models.User) (models.SafeUserResponse, error) {
	return s.safeUser(ctx, user)
}

// EnsureAdministrator creates the first administrator account if it does
// not exist yet. An empty password is replaced by a random one, returned so
// it can be shown once.
func (s *AuthService) EnsureAdministrator(ctx context.Context, username, password, apiKey string) (bool, string, error) {
	_, err := s.users.FindUserByUserName(ctx, username)
	if err == nil {
		return false, "", nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, "", err
	}

	if password == "" {
		if password, err = utils.GenerateRandomString(16); err != nil {
			return false, "", err
		}
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return false, "", err
	}

	_, err = s.users.CreateUser(ctx, &models.User{
		Username:         username,
		Name:             "Administrator",
		Password:         hashed,
		APIKey:           apiKey,
		Active:           true,
		MFASetupComplete: true,
		Permissions:      []models.Permission{models.PermServerAdministrator},
	})
	if err != nil {
		return false, "", err
	}
	return true, password, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	access, refresh, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	safe, err := s.safeUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{AccessToken: access, RefreshToken: refresh, User: safe}, nil
}

func (s *AuthService) safeUser(ctx context.Context, user *models.User) (models.SafeUserResponse, error) {
	safe := user.ToSafeResponse()
	perms, err := s.perms.EffectivePermissions(ctx, user)
	if err != nil {
		return models.SafeUserResponse{}, err
	}
	safe.Permissions = perms
	return safe, nil
}
