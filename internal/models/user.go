package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Permission string

const (
	PermServerAdministrator Permission = "server_administrator"
	PermCustomersRead       Permission = "customers_read"
	PermCustomersWrite      Permission = "customers_write"
	PermSearchAcrossCases   Permission = "search_across_cases"
	PermActivitiesRead      Permission = "activities_read"
)

var KnownPermissions = map[Permission]bool{
	PermServerAdministrator: true,
	PermCustomersRead:       true,
	PermCustomersWrite:      true,
	PermSearchAcrossCases:   true,
	PermActivitiesRead:      true,
}

type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username         string             `bson:"username" json:"username"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email,omitempty" json:"email"`
	Password         string             `bson:"password" json:"-"`
	APIKey           string             `bson:"api_key,omitempty" json:"-"`
	Active           bool               `bson:"active" json:"active"`
	MFASetupComplete bool               `bson:"mfa_setup_complete" json:"mfa_setup_complete"`
	Permissions      []Permission       `bson:"permissions" json:"permissions"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// HasPermission only looks at the user's own permissions; group permissions
// are merged by the group service.
func (u *User) HasPermission(p Permission) bool {
	for _, perm := range u.Permissions {
		if perm == p || perm == PermServerAdministrator {
			return true
		}
	}
	return false
}

type SafeUserResponse struct {
	ID               primitive.ObjectID `json:"id"`
	Username         string             `json:"username"`
	Name             string             `json:"name"`
	Email            string             `json:"email"`
	Active           bool               `json:"active"`
	MFASetupComplete bool               `json:"mfa_setup_complete"`
	Permissions      []Permission       `json:"permissions"`
}

func (u *User) ToSafeResponse() SafeUserResponse {
	return SafeUserResponse{
		ID:               u.ID,
		Username:         u.Username,
		Name:             u.Name,
		Email:            u.Email,
		Active:           u.Active,
		MFASetupComplete: u.MFASetupComplete,
		Permissions:      u.Permissions,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         SafeUserResponse `json:"user"`
}

type CreateUserRequest struct {
	Username    string       `json:"user_login" binding:"required,min=2,max=64"`
	Name        string       `json:"user_name" binding:"required,min=2,max=128"`
	Email       string       `json:"user_email" binding:"omitempty,email"`
	Password    string       `json:"user_password" binding:"required,min=12,max=128"`
	Permissions []Permission `json:"user_permissions"`
}

// UpdateUserRequest leaves a field untouched when it is omitted.
type UpdateUserRequest struct {
	Name        *string       `json:"user_name" binding:"omitempty,min=2,max=128"`
	Email       *string       `json:"user_email" binding:"omitempty,email"`
	Password    string        `json:"user_password" binding:"omitempty,min=12,max=128"`
	Active      *bool         `json:"user_active"`
	Permissions *[]Permission `json:"user_permissions"`
}
