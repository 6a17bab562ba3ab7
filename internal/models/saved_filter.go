package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SavedFilter struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"filter_id"`
	Name        string                 `bson:"name" json:"filter_name"`
	Description string                 `bson:"description" json:"filter_description"`
	Type        string                 `bson:"type" json:"filter_type"`
	Data        map[string]interface{} `bson:"data" json:"filter_data"`
	IsPrivate   bool                   `bson:"is_private" json:"filter_is_private"`
	CreatedBy   primitive.ObjectID     `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `bson:"updated_at" json:"updated_at"`
}

type SavedFilterRequest struct {
	Name        string                 `json:"filter_name" binding:"required,min=1,max=255"`
	Description string                 `json:"filter_description"`
	Type        string                 `json:"filter_type" binding:"required,oneof=alerts cases"`
	Data        map[string]interface{} `json:"filter_data" binding:"required"`
	IsPrivate   bool                   `json:"filter_is_private"`
}

// VisibleTo reports whether the filter can be read by the given user.
func (f *SavedFilter) VisibleTo(userID primitive.ObjectID) bool {
	return !f.IsPrivate || f.CreatedBy == userID
}
