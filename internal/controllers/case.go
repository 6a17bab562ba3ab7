package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CaseManager interface {
	CreateCase(ctx context.Context, actor *models.User, req models.CreateCaseRequest) (*models.Case, error)
	GetCase(ctx context.Context, caseID int64) (*models.Case, error)
	ListCases(ctx context.Context, user *models.User, q models.ListQuery) (models.Page[models.Case], error)
	SetCaseAccess(ctx context.Context, actor *models.User, caseID int64, req models.SetCaseAccessRequest) (*models.CaseAccess, error)
}

type CaseController struct {
	cases CaseManager
}

func NewCaseController(cases CaseManager) *CaseController {
	return &CaseController{cases: cases}
}

// CreateCase godoc
// @Summary Open a new case for a customer
// @Tags Cases
// @Security BearerAuth
// @Param body body models.CreateCaseRequest true "Case"
// @Success 201 {object} models.Case
// @Failure 400 {object} gin.H{"message":string}
// @Failure 404 {object} gin.H{"message":string}
// @Router /cases [post]
func (cc *CaseController) CreateCase(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req models.CreateCaseRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	created, err := cc.cases.CreateCase(c.Request.Context(), user, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "Case created", created)
}

func (cc *CaseController) GetCase(c *gin.Context) {
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	found, err := cc.cases.GetCase(c.Request.Context(), caseID)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", found)
}

// ListCases godoc
// @Summary List the cases readable by the caller
// @Tags Cases
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(10)
// @Param order_by query string false "Sort field"
// @Param sort_dir query string false "asc or desc"
// @Success 200 {object} models.Page[models.Case]
// @Router /cases [get]
func (cc *CaseController) ListCases(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	q := utils.ParseListQuery(c)
	page, err := cc.cases.ListCases(c.Request.Context(), user, q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}

func (cc *CaseController) SetCaseAccess(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	var req models.SetCaseAccessRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	access, err := cc.cases.SetCaseAccess(c.Request.Context(), user, caseID, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Case access updated", access)
}
