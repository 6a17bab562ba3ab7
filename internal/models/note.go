package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NoteDirectory struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CaseID    int64               `bson:"case_id" json:"case_id"`
	Name      string              `bson:"name" json:"name"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

type NoteDirectoryRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255"`
	ParentID string `json:"parent_id"`
}

type Note struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"note_id"`
	CaseID      int64              `bson:"case_id" json:"case_id"`
	DirectoryID primitive.ObjectID `bson:"directory_id" json:"directory_id"`
	Title       string             `bson:"title" json:"note_title"`
	Content     string             `bson:"content" json:"note_content"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"note_user"`
	CreatedAt   time.Time          `bson:"created_at" json:"note_creationdate"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"note_lastupdate"`
}

type NoteRequest struct {
	Title       string `json:"note_title" binding:"required,min=1,max=255"`
	Content     string `json:"note_content"`
	DirectoryID string `json:"directory_id" binding:"required"`
}

type NoteSummary struct {
	ID    primitive.ObjectID `json:"note_id"`
	Title string             `json:"note_title"`
}

// DirectoryListing is a directory together with the notes filed in it.
type DirectoryListing struct {
	NoteDirectory
	Notes []NoteSummary `json:"notes"`
}
