package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
)

type TagManager interface {
	GetOrCreateTag(ctx context.Context, req models.TagRequest) (*models.Tag, bool, error)
	ListTags(ctx context.Context, q models.ListQuery) (models.Page[models.Tag], error)
}

type TagController struct {
	tags TagManager
}

func NewTagController(tags TagManager) *TagController {
	return &TagController{tags: tags}
}

// AddTag returns 201 for a new tag and 200 when the title already existed.
func (tc *TagController) AddTag(c *gin.Context) {
	var req models.TagRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	tag, created, err := tc.tags.GetOrCreateTag(c.Request.Context(), req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	if created {
		utils.RespondWithSuccess(c, http.StatusCreated, "Tag added", tag)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Tag already exists", tag)
}

func (tc *TagController) ListTags(c *gin.Context) {
	q := utils.ParseListQuery(c)
	page, err := tc.tags.ListTags(c.Request.Context(), q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}
