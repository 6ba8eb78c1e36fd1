// Package store is the persistence port for the engine. Components depend on
// narrow interfaces declared where they are consumed; this package provides
// the GORM-backed implementation of all of them.
package store

import (
	"context"
	"errors"

	"github.com/postcycle/postcycle/internal/models"
	"gorm.io/gorm"
)

// Store implements every storage operation the engine needs on top of a GORM
// connection. It carries no state beyond the handle and is safe for
// concurrent use.
type Store struct {
	db *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListUserIDs returns the ids of all users.
func (s *Store) ListUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Credential returns the user's LinkedIn credential, or nil when the user has
// never connected an account.
func (s *Store) Credential(ctx context.Context, userID uint) (*models.LinkedInCredential, error) {
	var cred models.LinkedInCredential
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// SaveCredential inserts or overwrites the user's credential record.
func (s *Store) SaveCredential(ctx context.Context, cred *models.LinkedInCredential) error {
	return s.db.WithContext(ctx).Save(cred).Error
}
