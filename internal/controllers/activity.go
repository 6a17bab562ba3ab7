package controllers

import (
	"context"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ActivityLister interface {
	ListActivities(ctx context.Context, caseID int64, q models.ListQuery) (models.Page[models.Activity], error)
}

type ActivityController struct {
	activities ActivityLister
}

func NewActivityController(activities ActivityLister) *ActivityController {
	return &ActivityController{activities: activities}
}

func (ac *ActivityController) ListAll(c *gin.Context) {
	ac.list(c, 0)
}

func (ac *ActivityController) ListForCase(c *gin.Context) {
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	ac.list(c, caseID)
}

func (ac *ActivityController) list(c *gin.Context, caseID int64) {
	q := utils.ParseListQuery(c)
	page, err := ac.activities.ListActivities(c.Request.Context(), caseID, q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}
