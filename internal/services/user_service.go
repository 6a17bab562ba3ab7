package services

import (
	"context"
	"errors"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/apperrors"
	"iris-server/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserAdminStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByUserName(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error)
	ListUsers(ctx context.Context, q models.ListQuery) ([]models.User, int64, error)
}

// UserService is the administrator's view of accounts. Users are never
// deleted, only deactivated, so activities keep pointing at someone.
type UserService struct {
	users   UserAdminStore
	tracker ActivityTracker
}

func NewUserService(users UserAdminStore, tracker ActivityTracker) *UserService {
	return &UserService{users: users, tracker: tracker}
}

func (s *UserService) CreateUser(ctx context.Context, actor *models.User, req models.CreateUserRequest) (models.SafeUserResponse, error) {
	username := strings.TrimSpace(req.Username)
	if err := validatePermissions(req.Permissions); err != nil {
		return models.SafeUserResponse{}, err
	}
	if _, err := s.users.FindUserByUserName(ctx, username); err == nil {
		return models.SafeUserResponse{}, userExists(username)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.SafeUserResponse{}, err
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return models.SafeUserResponse{}, err
	}
	perms := req.Permissions
	if perms == nil {
		perms = []models.Permission{}
	}

	user, err := s.users.CreateUser(ctx, &models.User{
		Username:    username,
		Name:        strings.TrimSpace(req.Name),
		Email:       req.Email,
		Password:    hashed,
		Active:      true,
		Permissions: perms,
	})
	if mongo.IsDuplicateKeyError(err) {
		return models.SafeUserResponse{}, userExists(username)
	}
	if err != nil {
		return models.SafeUserResponse{}, err
	}

	track(ctx, s.tracker, actor, 0, "Created user %s", user.Username)
	return user.ToSafeResponse(), nil
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (models.SafeUserResponse, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return models.SafeUserResponse{}, notFound(err, "user")
	}
	return user.ToSafeResponse(), nil
}

func (s *UserService) UpdateUser(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.UpdateUserRequest) (models.SafeUserResponse, error) {
	if _, err := s.users.FindUserByID(ctx, id); err != nil {
		return models.SafeUserResponse{}, notFound(err, "user")
	}
	if req.Active != nil && !*req.Active && id == actor.ID {
		return models.SafeUserResponse{}, apperrors.Processing("You cannot deactivate yourself", nil)
	}

	update := bson.M{}
	if req.Name != nil {
		update["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && *req.Email != "" {
		update["email"] = *req.Email
	}
	if req.Active != nil {
		update["active"] = *req.Active
	}
	if req.Permissions != nil {
		if err := validatePermissions(*req.Permissions); err != nil {
			return models.SafeUserResponse{}, err
		}
		update["permissions"] = *req.Permissions
	}
	if req.Password != "" {
		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return models.SafeUserResponse{}, err
		}
		update["password"] = hashed
	}

	user, err := s.users.UpdateUser(ctx, id, update)
	if mongo.IsDuplicateKeyError(err) {
		return models.SafeUserResponse{}, apperrors.Processing("Data error", map[string]string{"user_email": "Email already in use"})
	}
	if err != nil {
		return models.SafeUserResponse{}, notFound(err, "user")
	}

	track(ctx, s.tracker, actor, 0, "Updated user %s", user.Username)
	return user.ToSafeResponse(), nil
}

func (s *UserService) ListUsers(ctx context.Context, q models.ListQuery) (models.Page[models.SafeUserResponse], error) {
	users, total, err := s.users.ListUsers(ctx, q)
	if err != nil {
		return models.Page[models.SafeUserResponse]{}, err
	}
	safe := make([]models.SafeUserResponse, len(users))
	for i := range users {
		safe[i] = users[i].ToSafeResponse()
	}
	return models.NewPage(safe, total, q), nil
}

func userExists(username string) error {
	return apperrors.Processing("Data error", map[string]string{"user_login": "User " + username + " already exists"})
}
