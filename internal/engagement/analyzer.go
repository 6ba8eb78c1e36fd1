package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/postcycle/postcycle/internal/models"
)

// AnalyzerStore is the storage surface the analyzer needs.
type AnalyzerStore interface {
	// ListUserIDs returns the ids of all users.
	ListUserIDs(ctx context.Context) ([]uint, error)
	// ListScoredPosts returns a user's published posts that have an
	// engagement score set.
	ListScoredPosts(ctx context.Context, userID uint) ([]models.Post, error)
	// SaveOptimalTimes replaces the user's slot table wholesale.
	SaveOptimalTimes(ctx context.Context, userID uint, slots []Slot) error
}

// Analyzer recomputes per-user optimal-time slot tables from historical
// engagement. It runs on a weekly cadence.
type Analyzer struct {
	store  AnalyzerStore
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(store AnalyzerStore, logger *slog.Logger) *Analyzer {
	return &Analyzer{store: store, logger: logger}
}

// Run analyzes every user. A failure for one user is logged and does not
// stop the rest.
func (a *Analyzer) Run(ctx context.Context) error {
	userIDs, err := a.store.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, userID := range userIDs {
		if err := a.AnalyzeUser(ctx, userID); err != nil {
			a.logger.Error("Engagement analysis failed for user",
				"user_id", userID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

// AnalyzeUser recomputes one user's slot table. Users with no published,
// scored posts are skipped entirely: no table is written and any previous
// table is left in place.
func (a *Analyzer) AnalyzeUser(ctx context.Context, userID uint) error {
	posts, err := a.store.ListScoredPosts(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch scored posts: %w", err)
	}
	if len(posts) == 0 {
		return nil
	}

	slots := RankSlots(posts)
	if len(slots) == 0 {
		// Scored posts without a scheduled timestamp cannot be bucketed.
		return nil
	}

	if err := a.store.SaveOptimalTimes(ctx, userID, slots); err != nil {
		return fmt.Errorf("failed to save optimal times: %w", err)
	}

	a.logger.Info("Analyzed engagement patterns",
		"user_id", userID,
		"posts", len(posts),
		"slots", len(slots),
	)
	return nil
}

// RankSlots buckets posts by (weekday, hour) of their scheduled time,
// averages engagement per bucket and returns the top buckets, most engaging
// first. Ties break on weekday then hour so the ranking is deterministic.
func RankSlots(posts []models.Post) []Slot {
	type bucket struct {
		count int
		total int
	}
	buckets := make(map[[2]int]*bucket)

	for _, post := range posts {
		if post.ScheduledAt == nil || post.Engagement == nil {
			continue
		}
		key := [2]int{int(post.ScheduledAt.Weekday()), post.ScheduledAt.Hour()}
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++
		b.total += parseScore(*post.Engagement)
	}

	slots := make([]Slot, 0, len(buckets))
	for key, b := range buckets {
		slots = append(slots, Slot{
			Weekday:       key[0],
			Hour:          key[1],
			AvgEngagement: float64(b.total) / float64(b.count),
		})
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].AvgEngagement != slots[j].AvgEngagement {
			return slots[i].AvgEngagement > slots[j].AvgEngagement
		}
		if slots[i].Weekday != slots[j].Weekday {
			return slots[i].Weekday < slots[j].Weekday
		}
		return slots[i].Hour < slots[j].Hour
	})

	if len(slots) > MaxSlots {
		slots = slots[:MaxSlots]
	}
	return slots
}

// parseScore reads a numeric-as-text engagement value. Unparsable values
// count as zero rather than failing the whole analysis.
func parseScore(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
