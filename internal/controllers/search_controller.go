package controllers

import (
	"context"
	"net/http"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
)

type Searcher interface {
	Search(ctx context.Context, user *models.User, req models.SearchRequest) ([]models.SearchHit, error)
}

type SearchController struct {
	searcher Searcher
}

func NewSearchController(searcher Searcher) *SearchController {
	return &SearchController{searcher: searcher}
}

// Search handles the search request
// @Summary Search notes or evidences across readable cases
// @Description Results are limited to the cases the caller can read.
// @Tags Search
// @Accept json
// @Produce json
// @Param body body models.SearchRequest true "Search term and type"
// @Security BearerAuth
// @Success 200 {array} models.SearchHit
// @Failure 400 {object} gin.H{"message":string,"data":object}
// @Failure 403 {object} gin.H{"message":string}
// @Router /search [post]
func (sc *SearchController) Search(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req models.SearchRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	hits, err := sc.searcher.Search(c.Request.Context(), user, req)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, "Results fetched", hits)
}
