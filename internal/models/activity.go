package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is an audit trail entry. Recording one never blocks or fails the
// mutation that produced it.
type Activity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Username  string             `bson:"username" json:"user_name"`
	CaseID    int64              `bson:"case_id,omitempty" json:"case_id,omitempty"`
	Message   string             `bson:"message" json:"activity_desc"`
	CreatedAt time.Time          `bson:"created_at" json:"activity_date"`
}
