package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NoteManager interface {
	CreateDirectory(ctx context.Context, actor *models.User, caseID int64, req models.NoteDirectoryRequest, sid string) (*models.NoteDirectory, error)
	UpdateDirectory(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, req models.NoteDirectoryRequest, sid string) (*models.NoteDirectory, error)
	DeleteDirectory(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, sid string) error
	ListDirectories(ctx context.Context, caseID int64) ([]models.DirectoryListing, error)
	CreateNote(ctx context.Context, actor *models.User, caseID int64, req models.NoteRequest, sid string) (*models.Note, error)
	GetNote(ctx context.Context, caseID int64, id primitive.ObjectID) (*models.Note, error)
	UpdateNote(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, req models.NoteRequest, sid string) (*models.Note, error)
	DeleteNote(ctx context.Context, actor *models.User, caseID int64, id primitive.ObjectID, sid string) error
	SearchInCase(ctx context.Context, caseID int64, term string) ([]models.Note, error)
}

type NoteController struct {
	notes NoteManager
}

func NewNoteController(notes NoteManager) *NoteController {
	return &NoteController{notes: notes}
}

func (nc *NoteController) CreateDirectory(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	var req models.NoteDirectoryRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	dir, err := nc.notes.CreateDirectory(c.Request.Context(), user, caseID, req, utils.GetSocketID(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "Directory created", dir)
}

func (nc *NoteController) UpdateDirectory(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "directory")
	if !ok {
		return
	}
	var req models.NoteDirectoryRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	dir, err := nc.notes.UpdateDirectory(c.Request.Context(), user, caseID, id, req, utils.GetSocketID(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Directory updated", dir)
}

func (nc *NoteController) DeleteDirectory(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "directory")
	if !ok {
		return
	}
	if err := nc.notes.DeleteDirectory(c.Request.Context(), user, caseID, id, utils.GetSocketID(c)); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Directory deleted", nil)
}

// ListDirectories godoc
// @Summary List note directories of a case with their notes
// @Tags Notes
// @Security BearerAuth
// @Param case_id path int true "Case ID"
// @Success 200 {array} models.DirectoryListing
// @Failure 403 {object} gin.H{"message":string}
// @Router /cases/{case_id}/notes/directories [get]
func (nc *NoteController) ListDirectories(c *gin.Context) {
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	dirs, err := nc.notes.ListDirectories(c.Request.Context(), caseID)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", dirs)
}

func (nc *NoteController) CreateNote(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	var req models.NoteRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	note, err := nc.notes.CreateNote(c.Request.Context(), user, caseID, req, utils.GetSocketID(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, "Note created", note)
}

func (nc *NoteController) GetNote(c *gin.Context) {
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "note")
	if !ok {
		return
	}
	note, err := nc.notes.GetNote(c.Request.Context(), caseID, id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", note)
}

func (nc *NoteController) UpdateNote(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "note")
	if !ok {
		return
	}
	var req models.NoteRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	note, err := nc.notes.UpdateNote(c.Request.Context(), user, caseID, id, req, utils.GetSocketID(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Note updated", note)
}

func (nc *NoteController) DeleteNote(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "note")
	if !ok {
		return
	}
	if err := nc.notes.DeleteNote(c.Request.Context(), user, caseID, id, utils.GetSocketID(c)); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Note deleted", nil)
}

func (nc *NoteController) SearchNotes(c *gin.Context) {
	caseID, ok := caseParam(c)
	if !ok {
		return
	}
	notes, err := nc.notes.SearchInCase(c.Request.Context(), caseID, c.Query("search_input"))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "", notes)
}
