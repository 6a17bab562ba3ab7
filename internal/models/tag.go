package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tag struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"tag_title"`
	Namespace string             `bson:"namespace,omitempty" json:"tag_namespace,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type TagRequest struct {
	Title     string `json:"tag_title" binding:"required,min=1,max=128"`
	Namespace string `json:"tag_namespace"`
}
