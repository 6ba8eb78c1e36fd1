package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OptimalTimeTable stores a user's ranked publishing slots as a JSON column.
// Exactly one row per user, replaced wholesale by the engagement analyzer.
// The typed view of Slots lives in the engagement package; the model keeps
// the column opaque so the storage boundary owns serialization.
type OptimalTimeTable struct {
	gorm.Model
	UserID uint           `gorm:"not null;uniqueIndex"`
	Slots  datatypes.JSON `gorm:"type:jsonb;not null"`
}
