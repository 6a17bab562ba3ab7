package utils

import (
	"net/http/httptest"
	"testing"

	"iris-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithQuery(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/customers?"+rawQuery, nil)
	return c
}

func TestParseListQueryDefaults(t *testing.T) {
	q := ParseListQuery(contextWithQuery(""))

	assert.Equal(t, int64(1), q.Page)
	assert.Equal(t, int64(10), q.PerPage)
	assert.Equal(t, models.SortAsc, q.SortDir)
	assert.Empty(t, q.OrderBy)
	assert.Empty(t, q.Fields)
	assert.Empty(t, q.Filters)
}

func TestParseListQueryClampsBadPages(t *testing.T) {
	cases := map[string][2]int64{
		"page=0&per_page=0":     {1, 10},
		"page=-3&per_page=-1":   {1, 10},
		"page=abc&per_page=x":   {1, 10},
		"page=4&per_page=25":    {4, 25},
		"page=2&per_page=99999": {2, models.MaxPerPage},
	}
	for raw, want := range cases {
		q := ParseListQuery(contextWithQuery(raw))
		assert.Equal(t, want[0], q.Page, raw)
		assert.Equal(t, want[1], q.PerPage, raw)
		assert.GreaterOrEqual(t, q.Offset(), int64(0), raw)
	}
}

func TestParseListQuerySortFieldsAndFilters(t *testing.T) {
	q := ParseListQuery(contextWithQuery("order_by=customer_name&sort_dir=DESC&fields=customer_id,%20customer_name,&customer_name=acm"))

	assert.Equal(t, "customer_name", q.OrderBy)
	assert.Equal(t, models.SortDesc, q.SortDir)
	assert.Equal(t, []string{"customer_id", "customer_name"}, q.Fields)
	assert.Equal(t, map[string]string{"customer_name": "acm"}, q.Filters)
}

func TestParseListQueryUnknownSortDirIsAsc(t *testing.T) {
	q := ParseListQuery(contextWithQuery("sort_dir=sideways"))
	assert.Equal(t, models.SortAsc, q.SortDir)
}

func TestProjectFields(t *testing.T) {
	items := []models.Customer{{Name: "Acme", SLA: "gold", Description: "x"}}

	out, err := ProjectFields(items, []string{"customer_name", "customer_sla", "missing"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, map[string]interface{}{"customer_name": "Acme", "customer_sla": "gold"}, out[0])

	out, err = ProjectFields(items, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
