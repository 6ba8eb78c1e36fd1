package store

import (
	"context"
	"errors"
	"time"

	"github.com/postcycle/postcycle/internal/models"
	"gorm.io/gorm"
)

// ListDuePosts returns all scheduled posts whose scheduled time has passed,
// earliest first so batch catch-up preserves the intended publish order.
func (s *Store) ListDuePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.PostStatusScheduled, now).
		Order("scheduled_at ASC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListRecyclablePosts returns published evergreen posts due for recycling:
// never recycled yet, or last recycled at least one frequency interval ago.
// Posts with the none frequency are never returned.
func (s *Store) ListRecyclablePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("status = ? AND is_evergreen = ?", models.PostStatusPublished, true).
		Where("recycle_frequency IN ?", []string{
			models.RecycleWeekly, models.RecycleBiweekly, models.RecycleMonthly,
		}).
		Where(`(last_recycled IS NULL
			OR (recycle_frequency = ? AND last_recycled <= ?)
			OR (recycle_frequency = ? AND last_recycled <= ?)
			OR (recycle_frequency = ? AND last_recycled <= ?))`,
			models.RecycleWeekly, now.Add(-7*24*time.Hour),
			models.RecycleBiweekly, now.Add(-14*24*time.Hour),
			models.RecycleMonthly, now.Add(-30*24*time.Hour),
		).
		Order("id").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListScoredPosts returns a user's published posts that have an engagement
// score recorded.
func (s *Store) ListScoredPosts(ctx context.Context, userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND engagement IS NOT NULL", userID, models.PostStatusPublished).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Post returns a single post by id, or nil when it does not exist.
func (s *Store) Post(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost inserts a new post record.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

// MarkPublished flips a post from scheduled to published. The update is
// conditional on the current status, so a post another sweep (or another
// scheduler instance) already published is left alone; the return value
// reports whether this call won the transition.
func (s *Store) MarkPublished(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", id, models.PostStatusScheduled).
		Update("status", models.PostStatusPublished)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SchedulePost moves a draft or scheduled post to scheduled at the given
// time. Published posts are never touched.
func (s *Store) SchedulePost(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status IN ?", id, []string{models.PostStatusDraft, models.PostStatusScheduled}).
		Updates(map[string]interface{}{
			"status":       models.PostStatusScheduled,
			"scheduled_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// StampRecycled records when a post was last recycled.
func (s *Store) StampRecycled(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Update("last_recycled", at).Error
}
