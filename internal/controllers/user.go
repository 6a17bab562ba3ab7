package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserManager interface {
	CreateUser(ctx context.Context, actor *models.User, req models.CreateUserRequest) (models.SafeUserResponse, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (models.SafeUserResponse, error)
	UpdateUser(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.UpdateUserRequest) (models.SafeUserResponse, error)
	ListUsers(ctx context.Context, q models.ListQuery) (models.Page[models.SafeUserResponse], error)
}

type UserController struct {
	users UserManager
}

func NewUserController(users UserManager) *UserController {
	return &UserController{users: users}
}

func (uc *UserController) CreateUser(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req models.CreateUserRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	user, err := uc.users.CreateUser(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "User added", user)
}

func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	user, err := uc.users.GetUser(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", user)
}

// UpdateUser applies only the fields present in the body.
func (uc *UserController) UpdateUser(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	user, err := uc.users.UpdateUser(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "User updated", user)
}

func (uc *UserController) ListUsers(c *gin.Context) {
	q := utils.ParseListQuery(c)
	page, err := uc.users.ListUsers(c.Request.Context(), q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}
