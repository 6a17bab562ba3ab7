package models

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 1000
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListQuery is the parsed form of the list endpoint query parameters.
// Page and PerPage are always >= 1 once produced by utils.ParseListQuery.
type ListQuery struct {
	Page    int64
	PerPage int64
	OrderBy string
	SortDir SortDirection
	Fields  []string
	Filters map[string]string
}

func (q ListQuery) Offset() int64 {
	if q.Page < 1 || q.PerPage < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Page is the envelope returned by paginated list endpoints.
type Page[T any] struct {
	Items       []T    `json:"items"`
	Total       int64  `json:"total"`
	CurrentPage int64  `json:"current_page"`
	LastPage    int64  `json:"last_page"`
	NextPage    *int64 `json:"next_page"`
}

func NewPage[T any](items []T, total int64, q ListQuery) Page[T] {
	if items == nil {
		items = []T{}
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	p := Page[T]{Items: items, Total: total, CurrentPage: q.Page, LastPage: last}
	if q.Page < last {
		next := q.Page + 1
		p.NextPage = &next
	}
	return p
}
