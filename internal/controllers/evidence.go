package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EvidenceManager interface {
	CreateEvidence(ctx context.Context, actor *models.User, caseID int64, req models.EvidenceRequest, sid string) (*models.Evidence, error)
	GetEvidence(ctx context.Context, caseID int64, id primitive.ObjectID) (*models.Evidence, error)
	UpdateEvidence(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, req models.EvidenceRequest, sid string) (*models.Evidence, error)
	DeleteEvidence(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, sid string) error
	ListEvidences(ctx context.Context, caseID int64, q models.ListQuery) (models.Page[models.Evidence], error)
}

type EvidenceController struct {
	evidences EvidenceManager
}

func NewEvidenceController(evidences EvidenceManager) *EvidenceController {
	return &EvidenceController{evidences: evidences}
}

// CreateEvidence godoc
// @Summary Register an evidence file on a case
// @Tags Evidences
// @Security BearerAuth
// @Param case_id path int true "Case ID"
// @Param X-IRIS-Socket-ID header string false "Relay connection to skip when notifying"
// @Param body body models.EvidenceRequest true "Evidence"
// @Success 201 {object} models.Evidence
// @Failure 403 {object} gin.H{"message":string}
// @Router /cases/{case_id}/evidences [post]
func (ec *EvidenceController) CreateEvidence(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	var req models.EvidenceRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	ev, err := ec.evidences.CreateEvidence(c.Request.Context(), user, caseID, req, utils.GetSocketID(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "Evidence added", ev)
}

func (ec *EvidenceController) GetEvidence(c *gin.Context) {
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "evidence")
	if !ok {
		return
	}
	ev, err := ec.evidences.GetEvidence(c.Request.Context(), caseID, id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", ev)
}

func (ec *EvidenceController) UpdateEvidence(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "evidence")
	if !ok {
		return
	}
	var req models.EvidenceRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	ev, err := ec.evidences.UpdateEvidence(c.Request.Context(), user, caseID, id, req, utils.GetSocketID(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Evidence updated", ev)
}

func (ec *EvidenceController) DeleteEvidence(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "evidence")
	if !ok {
		return
	}
	if err := ec.evidences.DeleteEvidence(c.Request.Context(), user, caseID, id, utils.GetSocketID(c)); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Evidence deleted", nil)
}

func (ec *EvidenceController) ListEvidences(c *gin.Context) {
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	q := utils.ParseListQuery(c)
	page, err := ec.evidences.ListEvidences(c.Request.Context(), caseID, q)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithPage(c, "", page, q.Fields)
}
