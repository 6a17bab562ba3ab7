package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GroupManager interface {
	CreateGroup(ctx context.Context, actor *models.User, req models.GroupRequest) (*models.Group, error)
	GetGroup(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	UpdateGroup(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.GroupRequest) (*models.Group, error)
	DeleteGroup(ctx context.Context, actor *models.User, id primitive.ObjectID) error
	ListGroups(ctx context.Context, q models.ListQuery) (models.Page[models.Group], error)
	AddMembers(ctx context.Context, actor *models.User, groupID primitive.ObjectID, userIDs []string) (*models.Group, error)
	RemoveMember(ctx context.Context, actor *models.User, groupID, userID primitive.ObjectID) (*models.Group, error)
}

type GroupController struct {
	groups GroupManager
}

func NewGroupController(groups GroupManager) *GroupController {
	return &GroupController{groups: groups}
}

func (gc *GroupController) CreateGroup(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req models.GroupRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	group, err := gc.groups.CreateGroup(c.Request.Context(), user, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "Group added", group)
}

func (gc *GroupController) GetGroup(c *gin.Context) {
	id, ok := idParam(c, "id", "group")
	if !ok {
		return
	}
	group, err := gc.groups.GetGroup(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", group)
}

func (gc *GroupController) UpdateGroup(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "group")
	if !ok {
		return
	}
	var req models.GroupRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	group, err := gc.groups.UpdateGroup(c.Request.Context(), user, id, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Group updated", group)
}

func (gc *GroupController) DeleteGroup(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "group")
	if !ok {
		return
	}
	if err := gc.groups.DeleteGroup(c.Request.Context(), user, id); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Group deleted", nil)
}

func (gc *GroupController) ListGroups(c *gin.Context) {
	q := utils.ParseListQuery(c)
	page, err := gc.groups.ListGroups(c.Request.Context(), q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}

// AddMembers godoc
// @Summary Add users to a group
// @Tags Groups
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param body body models.GroupMembersRequest true "Members"
// @Success 200 {object} models.Group
// @Failure 404 {object} gin.H{"message":string}
// @Router /manage/groups/{id}/members [post]
func (gc *GroupController) AddMembers(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "group")
	if !ok {
		return
	}
	var req models.GroupMembersRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	group, err := gc.groups.AddMembers(c.Request.Context(), user, id, req.UserIDs)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Members added", group)
}

func (gc *GroupController) RemoveMember(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "group")
	if !ok {
		return
	}
	member, ok := idParam(c, "user_id", "group member")
	if !ok {
		return
	}

	group, err := gc.groups.RemoveMember(c.Request.Context(), user, id, member)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Member removed", group)
}
