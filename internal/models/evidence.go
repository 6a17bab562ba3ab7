package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Evidence struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CaseID      int64              `bson:"case_id" json:"case_id"`
	Filename    string             `bson:"filename" json:"filename"`
	Size        int64              `bson:"size" json:"file_size"`
	Hash        string             `bson:"hash" json:"file_hash"`
	Description string             `bson:"description" json:"file_description"`
	AddedBy     primitive.ObjectID `bson:"added_by" json:"added_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"date_added"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

type EvidenceRequest struct {
	Filename    string `json:"filename" binding:"required,min=1,max=512"`
	Size        int64  `json:"file_size" binding:"min=0"`
	Hash        string `json:"file_hash"`
	Description string `json:"file_description"`
}
