package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FilterManager interface {
	CreateFilter(ctx context.Context, actor *models.User, req models.SavedFilterRequest) (*models.SavedFilter, error)
	GetFilter(ctx context.Context, actor *models.User, id primitive.ObjectID) (*models.SavedFilter, error)
	UpdateFilter(ctx context.Context, actor *models.User, id primitive.ObjectID, req models.SavedFilterRequest) (*models.SavedFilter, error)
	DeleteFilter(ctx context.Context, actor *models.User, id primitive.ObjectID) error
	ListFilters(ctx context.Context, actor *models.User, q models.ListQuery) (models.Page[models.SavedFilter], error)
}

// SavedFilterController serves the per-user saved search filters. Private
// filters are only visible to their creator.
type SavedFilterController struct {
	filters FilterManager
}

func NewSavedFilterController(filters FilterManager) *SavedFilterController {
	return &SavedFilterController{filters: filters}
}

func (fc *SavedFilterController) CreateFilter(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req models.SavedFilterRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	filter, err := fc.filters.CreateFilter(c.Request.Context(), user, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "Filter saved", filter)
}

func (fc *SavedFilterController) GetFilter(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "filter")
	if !ok {
		return
	}
	filter, err := fc.filters.GetFilter(c.Request.Context(), user, id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", filter)
}

func (fc *SavedFilterController) UpdateFilter(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "filter")
	if !ok {
		return
	}
	var req models.SavedFilterRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	filter, err := fc.filters.UpdateFilter(c.Request.Context(), user, id, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Filter updated", filter)
}

func (fc *SavedFilterController) DeleteFilter(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "filter")
	if !ok {
		return
	}
	if err := fc.filters.DeleteFilter(c.Request.Context(), user, id); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Filter deleted", nil)
}

func (fc *SavedFilterController) ListFilters(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	q := utils.ParseListQuery(c)
	page, err := fc.filters.ListFilters(c.Request.Context(), user, q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}
