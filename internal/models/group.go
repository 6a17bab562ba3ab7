package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Group struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"group_id"`
	Name        string               `bson:"name" json:"group_name"`
	Description string               `bson:"description" json:"group_description"`
	Permissions []Permission         `bson:"permissions" json:"group_permissions"`
	Members     []primitive.ObjectID `bson:"members" json:"group_members"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

type GroupRequest struct {
	Name        string       `json:"group_name" binding:"required,min=2,max=255"`
	Description string       `json:"group_description"`
	Permissions []Permission `json:"group_permissions"`
}

type GroupMembersRequest struct {
	UserIDs []string `json:"group_members" binding:"required,min=1"`
}
