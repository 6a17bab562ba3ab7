package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Customer struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"customer_id"`
	Name        string             `bson:"name" json:"customer_name"`
	Description string             `bson:"description" json:"customer_description"`
	SLA         string             `bson:"sla" json:"customer_sla"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

type CustomerRequest struct {
	Name        string `json:"customer_name" binding:"required,min=2,max=256"`
	Description string `json:"customer_description"`
	SLA         string `json:"customer_sla"`
}
