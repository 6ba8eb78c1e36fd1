// Package scheduler runs the periodic publication engine: the due-post
// sweep, evergreen recycling and engagement analysis, plus the on-demand
// tasks the hosting application can enqueue.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/postcycle/postcycle/internal/credentials"
	"github.com/postcycle/postcycle/internal/models"
)

// Store is the storage surface the engine needs.
type Store interface {
	ListDuePosts(ctx context.Context, now time.Time) ([]models.Post, error)
	ListRecyclablePosts(ctx context.Context, now time.Time) ([]models.Post, error)
	Post(ctx context.Context, id uint) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	MarkPublished(ctx context.Context, id uint) (bool, error)
	SchedulePost(ctx context.Context, id uint, at time.Time) (bool, error)
	StampRecycled(ctx context.Context, id uint, at time.Time) error
}

// CredentialSource hands out valid access tokens, or
// credentials.ErrUnavailable when a user has none.
type CredentialSource interface {
	EnsureValid(ctx context.Context, userID uint) (string, error)
}

// Publisher pushes content to the external platform.
type Publisher interface {
	CreatePost(ctx context.Context, accessToken, text string) (string, error)
}

// TimeSelector picks the next publish time for a user.
type TimeSelector interface {
	NextTime(ctx context.Context, userID uint, now time.Time) time.Time
}

// Analyzer recomputes optimal-time tables.
type Analyzer interface {
	Run(ctx context.Context) error
}

// ErrPostNotFound is returned by the on-demand operations when the target
// post does not exist; the task is not worth retrying.
var ErrPostNotFound = errors.New("post not found")

// Engine owns the sweep bodies. All collaborators are injected; the engine
// holds no globals and no connection of its own.
type Engine struct {
	store     Store
	creds     CredentialSource
	publisher Publisher
	selector  TimeSelector
	analyzer  Analyzer
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine builds an Engine from already-constructed collaborators.
func NewEngine(store Store, creds CredentialSource, publisher Publisher, selector TimeSelector, analyzer Analyzer, logger *slog.Logger) *Engine {
	return &Engine{
		store:     store,
		creds:     creds,
		publisher: publisher,
		selector:  selector,
		analyzer:  analyzer,
		logger:    logger,
		now:       time.Now,
	}
}

// DuePostSweep publishes every scheduled post whose time has passed, in
// scheduled order. Per-post failures never stop the batch: a post whose user
// has no usable credential, or whose publish call fails, stays scheduled and
// is picked up again on the next sweep.
func (e *Engine) DuePostSweep(ctx context.Context) error {
	now := e.now()
	log := e.logger.With("sweep", "publish_due", "sweep_id", uuid.New().String())

	posts, err := e.store.ListDuePosts(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due posts: %w", err)
	}
	log.Info("Due-post sweep started", "due", len(posts))

	published := 0
	for i := range posts {
		post := &posts[i]
		switch err := e.publishPost(ctx, post); {
		case err == nil:
			published++
		case errors.Is(err, credentials.ErrUnavailable):
			log.Info("No usable LinkedIn credential, skipping post",
				"post_id", post.ID,
				"user_id", post.UserID,
			)
		default:
			log.Error("Failed to publish post",
				"post_id", post.ID,
				"user_id", post.UserID,
				"error", err.Error(),
			)
		}
	}

	log.Info("Due-post sweep completed", "due", len(posts), "published", published)
	return nil
}

// publishPost pushes one post to LinkedIn and conditionally flips its status.
// The status update is keyed on the record still being scheduled, so another
// sweep or scheduler instance that got there first wins cleanly.
func (e *Engine) publishPost(ctx context.Context, post *models.Post) error {
	token, err := e.creds.EnsureValid(ctx, post.UserID)
	if err != nil {
		return err
	}

	externalID, err := e.publisher.CreatePost(ctx, token, post.Content)
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	won, err := e.store.MarkPublished(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("failed to mark post published: %w", err)
	}
	if !won {
		e.logger.Warn("Post was no longer scheduled when marking published",
			"post_id", post.ID,
		)
		return nil
	}

	e.logger.Info("Published post",
		"post_id", post.ID,
		"user_id", post.UserID,
		"external_id", externalID,
	)
	return nil
}

// RecycleSweep re-schedules published evergreen content that is due for
// another round. Each eligible post gets a fresh scheduled copy titled
// "<original> (Recycled)" at the user's next optimal time; the original is
// only stamped, never re-scheduled itself.
func (e *Engine) RecycleSweep(ctx context.Context) error {
	now := e.now()
	log := e.logger.With("sweep", "recycle_evergreen", "sweep_id", uuid.New().String())

	posts, err := e.store.ListRecyclablePosts(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list recyclable posts: %w", err)
	}
	log.Info("Evergreen recycle sweep started", "candidates", len(posts))

	recycled := 0
	for i := range posts {
		post := &posts[i]
		// The store query already filters, but eligibility is re-checked
		// here so a non-evergreen or none-frequency record can never slip
		// through.
		if !post.RecycleEligible(now) {
			continue
		}

		scheduledAt := e.selector.NextTime(ctx, post.UserID, now)
		clone := &models.Post{
			UserID:           post.UserID,
			Title:            post.Title + " (Recycled)",
			Content:          post.Content,
			ScheduledAt:      &scheduledAt,
			Status:           models.PostStatusScheduled,
			AIOptimized:      post.AIOptimized,
			IsEvergreen:      true,
			RecycleFrequency: post.RecycleFrequency,
		}
		if err := e.store.CreatePost(ctx, clone); err != nil {
			log.Error("Failed to create recycled copy",
				"post_id", post.ID,
				"error", err.Error(),
			)
			continue
		}
		if err := e.store.StampRecycled(ctx, post.ID, now); err != nil {
			log.Error("Failed to stamp last_recycled",
				"post_id", post.ID,
				"error", err.Error(),
			)
			continue
		}

		log.Info("Recycled evergreen post",
			"post_id", post.ID,
			"copy_id", clone.ID,
			"scheduled_at", scheduledAt,
		)
		recycled++
	}

	log.Info("Evergreen recycle sweep completed", "recycled", recycled)
	return nil
}

// AnalyzeSweep recomputes every user's optimal-time table.
func (e *Engine) AnalyzeSweep(ctx context.Context) error {
	log := e.logger.With("sweep", "analyze_engagement", "sweep_id", uuid.New().String())
	log.Info("Engagement analysis started")
	if err := e.analyzer.Run(ctx); err != nil {
		return fmt.Errorf("engagement analysis failed: %w", err)
	}
	log.Info("Engagement analysis completed")
	return nil
}

// PublishNow publishes a single post immediately, outside the sweep cadence.
func (e *Engine) PublishNow(ctx context.Context, postID uint) error {
	post, err := e.store.Post(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to fetch post: %w", err)
	}
	if post == nil {
		return ErrPostNotFound
	}
	return e.publishPost(ctx, post)
}

// ScheduleOptimal schedules a single post at the user's next optimal time and
// returns the chosen timestamp.
func (e *Engine) ScheduleOptimal(ctx context.Context, postID uint) (time.Time, error) {
	post, err := e.store.Post(ctx, postID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch post: %w", err)
	}
	if post == nil {
		return time.Time{}, ErrPostNotFound
	}

	scheduledAt := e.selector.NextTime(ctx, post.UserID, e.now())
	moved, err := e.store.SchedulePost(ctx, post.ID, scheduledAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to schedule post: %w", err)
	}
	if !moved {
		return time.Time{}, fmt.Errorf("post %d is already published", post.ID)
	}

	e.logger.Info("Scheduled post at optimal time",
		"post_id", post.ID,
		"user_id", post.UserID,
		"scheduled_at", scheduledAt,
	)
	return scheduledAt, nil
}
