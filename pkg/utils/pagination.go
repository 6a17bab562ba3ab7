package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"iris-server/internal/models"

	"github.com/gin-gonic/gin"
)

var listParams = map[string]bool{
	"page":     true,
	"per_page": true,
	"order_by": true,
	"sort_dir": true,
	"fields":   true,
}

// ParseListQuery reads page, per_page, order_by, sort_dir and fields.
// Missing, non-numeric, zero or negative page values fall back to their
// defaults; per_page is capped at models.MaxPerPage. Every other query
// parameter is kept as a filter for the repository to match against its
// allow-list.
func ParseListQuery(c *gin.Context) models.ListQuery {
	q := models.ListQuery{
		Page:    positiveInt(c.Query("page"), models.DefaultPage),
		PerPage: positiveInt(c.Query("per_page"), models.DefaultPerPage),
		OrderBy: strings.TrimSpace(c.Query("order_by")),
		SortDir: models.SortAsc,
		Filters: map[string]string{},
	}
	if q.PerPage > models.MaxPerPage {
		q.PerPage = models.MaxPerPage
	}
	if strings.EqualFold(strings.TrimSpace(c.Query("sort_dir")), string(models.SortDesc)) {
		q.SortDir = models.SortDesc
	}
	for _, f := range strings.Split(c.Query("fields"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			q.Fields = append(q.Fields, f)
		}
	}
	for key, values := range c.Request.URL.Query() {
		if listParams[key] || len(values) == 0 {
			continue
		}
		q.Filters[key] = values[0]
	}
	return q
}

func positiveInt(raw string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// ProjectFields reduces every item to the requested JSON fields. With no
// fields it returns nil.
func ProjectFields[T any](items []T, fields []string) ([]map[string]interface{}, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	var full []map[string]interface{}
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, len(full))
	for i, item := range full {
		projected := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			if v, ok := item[f]; ok {
				projected[f] = v
			}
		}
		out[i] = projected
	}
	return out, nil
}

// RespondWithPage writes a page, honouring the fields projection.
func RespondWithPage[T any](c *gin.Context, message string, page models.Page[T], fields []string) {
	if len(fields) == 0 {
		RespondWithSuccess(c, http.StatusOK, message, page)
		return
	}
	projected, err := ProjectFields(page.Items, fields)
	if err != nil {
		RespondWithAppError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, message, models.Page[map[string]interface{}]{
		Items:       projected,
		Total:       page.Total,
		CurrentPage: page.CurrentPage,
		LastPage:    page.LastPage,
		NextPage:    page.NextPage,
	})
}
