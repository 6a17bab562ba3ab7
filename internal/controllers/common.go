package controllers

import (
	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// principal writes the 401 itself when the request carries no principal.
func principal(c *gin.Context) (*models.User, bool) {
	user, err := utils.GetPrincipal(c)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return nil, false
	}
	return user, true
}

func caseParam(c *gin.Context) (int64, bool) {
	caseID, err := utils.GetCaseID(c)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return 0, false
	}
	return caseID, true
}

func idParam(c *gin.Context, name, what string) (primitive.ObjectID, bool) {
	id, err := utils.ParseObjectID(c.Param(name), what)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}
