package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "To do"
	TaskStatusInProgress TaskStatus = "In progress"
	TaskStatusOnHold     TaskStatus = "On hold"
	TaskStatusDone       TaskStatus = "Done"
	TaskStatusCanceled   TaskStatus = "Canceled"
)

var KnownTaskStatuses = map[TaskStatus]bool{
	TaskStatusToDo:       true,
	TaskStatusInProgress: true,
	TaskStatusOnHold:     true,
	TaskStatusDone:       true,
	TaskStatusCanceled:   true,
}

// GlobalTask is not tied to a case.
type GlobalTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"task_id"`
	Title       string             `bson:"title" json:"task_title"`
	Description string             `bson:"description" json:"task_description"`
	Status      TaskStatus         `bson:"status" json:"task_status"`
	AssigneeID  primitive.ObjectID `bson:"assignee_id" json:"task_assignee_id"`
	Tags        []string           `bson:"tags" json:"task_tags"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"task_userid_open"`
	CreatedAt   time.Time          `bson:"created_at" json:"task_open_date"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"task_last_update"`
}

type GlobalTaskRequest struct {
	Title       string   `json:"task_title" binding:"required,min=1,max=256"`
	Description string   `json:"task_description"`
	Status      string   `json:"task_status"`
	AssigneeID  string   `json:"task_assignee_id" binding:"required"`
	Tags        []string `json:"task_tags"`
}
