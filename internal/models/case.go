package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessLevel is graded: a higher level implies every lower one.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessRead
	AccessFull
)

func (l AccessLevel) String() string {
	switch l {
	case AccessRead:
		return "read_only"
	case AccessFull:
		return "full_access"
	default:
		return "deny_all"
	}
}

func ParseAccessLevel(s string) (AccessLevel, bool) {
	switch s {
	case "deny_all":
		return AccessNone, true
	case "read_only":
		return AccessRead, true
	case "full_access":
		return AccessFull, true
	}
	return AccessNone, false
}

// Case only carries what access control and room naming need.
type Case struct {
	ID          int64              `bson:"_id" json:"case_id"`
	Name        string             `bson:"name" json:"case_name"`
	Description string             `bson:"description" json:"case_description"`
	CustomerID  primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

type CaseAccess struct {
	CaseID int64              `bson:"case_id" json:"case_id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Level  AccessLevel        `bson:"level" json:"level"`
}

type CreateCaseRequest struct {
	Name        string `json:"case_name" binding:"required,min=2,max=200"`
	Description string `json:"case_description"`
	CustomerID  string `json:"customer_id" binding:"required"`
}

type SetCaseAccessRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	AccessLevel string `json:"access_level" binding:"required,oneof=deny_all read_only full_access"`
}
