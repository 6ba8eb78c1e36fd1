package database

import (
	"log"
	"time"

	"github.com/postcycle/postcycle/internal/models"
	"gorm.io/gorm"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	var existingUser models.User
	result := db.Where("email = ?", "dev@postcycle.local").First(&existingUser)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	user := models.User{
		Email: "dev@postcycle.local",
		Name:  "Dev User",
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	// Credential that is already expired but refreshable, so the refresh
	// path is exercised on the first sweep.
	cred := models.LinkedInCredential{
		UserID:       user.ID,
		AccessToken:  "dev-access-token-placeholder",
		RefreshToken: "dev-refresh-token-placeholder",
		ExpiresAt:    time.Now().Add(-time.Hour).UnixMilli(),
		ProfileID:    "dev-profile-id",
	}
	if err := db.Create(&cred).Error; err != nil {
		return err
	}

	now := time.Now()
	due := now.Add(-30 * time.Minute)
	lastWeek := now.AddDate(0, 0, -10)
	score := "42"

	posts := []models.Post{
		{
			UserID:      user.ID,
			Title:       "Welcome post",
			Content:     "Hello LinkedIn, this post was scheduled by postcycle.",
			ScheduledAt: &due,
			Status:      models.PostStatusScheduled,
		},
		{
			UserID:           user.ID,
			Title:            "Evergreen: how we ship",
			Content:          "Our release process, explained.",
			ScheduledAt:      &lastWeek,
			Status:           models.PostStatusPublished,
			Engagement:       &score,
			IsEvergreen:      true,
			RecycleFrequency: models.RecycleWeekly,
		},
		{
			UserID:  user.ID,
			Title:   "Draft thoughts",
			Content: "Not ready yet.",
			Status:  models.PostStatusDraft,
		},
	}
	for i := range posts {
		if err := db.Create(&posts[i]).Error; err != nil {
			return err
		}
	}

	log.Println("Seeded dev data: 1 user, 1 credential, 3 posts")
	return nil
}
