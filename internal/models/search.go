package models

type SearchRequest struct {
	Term string `json:"search_value" binding:"required,min=1,max=512"`
	Type string `json:"search_type" binding:"required,oneof=notes evidences"`
}

type SearchHit struct {
	CaseID     int64  `json:"case_id"`
	ObjectID   string `json:"object_id"`
	ObjectType string `json:"object_type"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet,omitempty"`
}
