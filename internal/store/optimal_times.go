package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/postcycle/postcycle/internal/engagement"
	"github.com/postcycle/postcycle/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OptimalTimes returns the user's ranked slot table, decoded from its JSON
// column. A user with no table gets an empty slice.
func (s *Store) OptimalTimes(ctx context.Context, userID uint) ([]engagement.Slot, error) {
	var table models.OptimalTimeTable
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var slots []engagement.Slot
	if err := json.Unmarshal(table.Slots, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode optimal times for user %d: %w", userID, err)
	}
	return slots, nil
}

// SaveOptimalTimes replaces the user's slot table wholesale, creating the row
// on first write.
func (s *Store) SaveOptimalTimes(ctx context.Context, userID uint, slots []engagement.Slot) error {
	encoded, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to encode optimal times: %w", err)
	}

	table := models.OptimalTimeTable{
		UserID: userID,
		Slots:  datatypes.JSON(encoded),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"slots", "updated_at"}),
		}).
		Create(&table).Error
}
