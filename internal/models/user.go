package models

import (
	"gorm.io/gorm"
)

// User represents an application user. Account creation and login live in the
// hosting application; the engine only scopes content and credentials by user.
type User struct {
	gorm.Model
	Email string `gorm:"uniqueIndex:idx_users_email_not_deleted,where:deleted_at IS NULL;not null"`
	Name  string `gorm:"not null;default:''"`

	// Associations
	Credential *LinkedInCredential `gorm:"constraint:OnDelete:CASCADE;"`
	Posts      []Post              `gorm:"constraint:OnDelete:CASCADE;"`
}
