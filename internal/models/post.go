package models

import (
	"time"

	"gorm.io/gorm"
)

// Post status constants
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

// Recycle frequency constants. A frequency only has meaning on evergreen
// posts; RecycleNone never recycles.
const (
	RecycleNone     = "none"
	RecycleWeekly   = "weekly"
	RecycleBiweekly = "biweekly"
	RecycleMonthly  = "monthly"
)

// RecycleInterval returns the minimum age since last_recycled before a post
// with the given frequency becomes eligible again, and false for frequencies
// that never recycle.
func RecycleInterval(frequency string) (time.Duration, bool) {
	switch frequency {
	case RecycleWeekly:
		return 7 * 24 * time.Hour, true
	case RecycleBiweekly:
		return 14 * 24 * time.Hour, true
	case RecycleMonthly:
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Post is a content record moving through draft -> scheduled -> published.
type Post struct {
	gorm.Model
	UserID      uint       `gorm:"not null;index"`
	Title       string     `gorm:"not null"`
	Content     string     `gorm:"type:text;not null"`
	ScheduledAt *time.Time `gorm:"index"`
	Status      string     `gorm:"not null;default:'draft';index"`
	AIOptimized bool       `gorm:"not null;default:false"`
	// Engagement is a numeric score stored as text, set after publication by
	// an external collector. NULL until then.
	Engagement       *string `gorm:"type:text"`
	IsEvergreen      bool    `gorm:"not null;default:false"`
	RecycleFrequency string  `gorm:"not null;default:'none'"`
	LastRecycled     *time.Time
}

// RecycleEligible reports whether an evergreen published post is due for
// recycling at now. Non-evergreen posts and the none frequency are never
// eligible; a post that has never been recycled is immediately eligible.
func (p *Post) RecycleEligible(now time.Time) bool {
	if !p.IsEvergreen || p.Status != PostStatusPublished {
		return false
	}
	interval, ok := RecycleInterval(p.RecycleFrequency)
	if !ok {
		return false
	}
	if p.LastRecycled == nil {
		return true
	}
	return now.Sub(*p.LastRecycled) >= interval
}
