package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/postcycle/postcycle/internal/credentials"
	"github.com/postcycle/postcycle/internal/models"
)

type fakeStore struct {
	due        []models.Post
	recyclable []models.Post
	posts      map[uint]*models.Post

	created   []*models.Post
	published []uint
	stamped   map[uint]time.Time
	scheduled map[uint]time.Time
	listErr   error
	markErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:     make(map[uint]*models.Post),
		stamped:   make(map[uint]time.Time),
		scheduled: make(map[uint]time.Time),
	}
}

func (s *fakeStore) ListDuePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	return s.due, s.listErr
}

func (s *fakeStore) ListRecyclablePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	return s.recyclable, s.listErr
}

func (s *fakeStore) Post(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts[id], nil
}

func (s *fakeStore) CreatePost(ctx context.Context, post *models.Post) error {
	s.created = append(s.created, post)
	return nil
}

func (s *fakeStore) MarkPublished(ctx context.Context, id uint) (bool, error) {
	if s.markErr != nil {
		return false, s.markErr
	}
	s.published = append(s.published, id)
	return true, nil
}

func (s *fakeStore) SchedulePost(ctx context.Context, id uint, at time.Time) (bool, error) {
	post := s.posts[id]
	if post != nil && post.Status == models.PostStatusPublished {
		return false, nil
	}
	s.scheduled[id] = at
	return true, nil
}

func (s *fakeStore) StampRecycled(ctx context.Context, id uint, at time.Time) error {
	s.stamped[id] = at
	return nil
}

type fakeCreds struct {
	tokens map[uint]string
	err    error
}

func (c *fakeCreds) EnsureValid(ctx context.Context, userID uint) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	token, ok := c.tokens[userID]
	if !ok {
		return "", credentials.ErrUnavailable
	}
	return token, nil
}

type fakePublisher struct {
	err  error
	seen []string // post contents in publish order
}

func (p *fakePublisher) CreatePost(ctx context.Context, accessToken, text string) (string, error) {
	p.seen = append(p.seen, text)
	if p.err != nil {
		return "", p.err
	}
	return "urn:li:share:test", nil
}

type fakeSelector struct {
	next time.Time
}

func (s *fakeSelector) NextTime(ctx context.Context, userID uint, now time.Time) time.Time {
	return s.next
}

type fakeAnalyzer struct {
	runs int
	err  error
}

func (a *fakeAnalyzer) Run(ctx context.Context) error {
	a.runs++
	return a.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

var engineNow = time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)

func newTestEngine(store *fakeStore, creds *fakeCreds, pub *fakePublisher, sel *fakeSelector, an *fakeAnalyzer) *Engine {
	e := NewEngine(store, creds, pub, sel, an, testLogger())
	e.now = func() time.Time { return engineNow }
	return e
}

func duePost(id, userID uint, content string, at time.Time) models.Post {
	p := models.Post{
		UserID:      userID,
		Content:     content,
		ScheduledAt: &at,
		Status:      models.PostStatusScheduled,
	}
	p.ID = id
	return p
}

func TestDuePostSweepPublishesInScheduledOrder(t *testing.T) {
	store := newFakeStore()
	store.due = []models.Post{
		duePost(1, 1, "first", engineNow.Add(-2*time.Hour)),
		duePost(2, 1, "second", engineNow.Add(-time.Hour)),
	}
	pub := &fakePublisher{}
	creds := &fakeCreds{tokens: map[uint]string{1: "token"}}

	e := newTestEngine(store, creds, pub, &fakeSelector{}, &fakeAnalyzer{})
	if err := e.DuePostSweep(context.Background()); err != nil {
		t.Fatalf("DuePostSweep: %v", err)
	}

	if len(pub.seen) != 2 || pub.seen[0] != "first" || pub.seen[1] != "second" {
		t.Errorf("expected publish order [first second], got %v", pub.seen)
	}
	if len(store.published) != 2 || store.published[0] != 1 || store.published[1] != 2 {
		t.Errorf("expected posts 1,2 marked published in order, got %v", store.published)
	}
}

func TestDuePostSweepSkipsUserWithoutCredential(t *testing.T) {
	store := newFakeStore()
	store.due = []models.Post{
		duePost(1, 9, "no creds", engineNow.Add(-time.Hour)),
		duePost(2, 1, "has creds", engineNow.Add(-time.Minute)),
	}
	pub := &fakePublisher{}
	creds := &fakeCreds{tokens: map[uint]string{1: "token"}}

	e := newTestEngine(store, creds, pub, &fakeSelector{}, &fakeAnalyzer{})
	if err := e.DuePostSweep(context.Background()); err != nil {
		t.Fatalf("DuePostSweep: %v", err)
	}

	if len(pub.seen) != 1 || pub.seen[0] != "has creds" {
		t.Errorf("expected only the credentialed user's post to reach the gateway, got %v", pub.seen)
	}
	if len(store.published) != 1 || store.published[0] != 2 {
		t.Errorf("expected only post 2 marked published, got %v", store.published)
	}
}

func TestDuePostSweepLeavesPostScheduledOnPublishError(t *testing.T) {
	store := newFakeStore()
	store.due = []models.Post{duePost(1, 1, "flaky", engineNow.Add(-time.Hour))}
	pub := &fakePublisher{err: errors.New("upstream 502")}
	creds := &fakeCreds{tokens: map[uint]string{1: "token"}}

	e := newTestEngine(store, creds, pub, &fakeSelector{}, &fakeAnalyzer{})
	if err := e.DuePostSweep(context.Background()); err != nil {
		t.Fatalf("DuePostSweep: %v", err)
	}

	if len(store.published) != 0 {
		t.Errorf("expected no status change on publish error, got %v", store.published)
	}
}

func TestDuePostSweepReturnsErrorWhenListingFails(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db down")

	e := newTestEngine(store, &fakeCreds{}, &fakePublisher{}, &fakeSelector{}, &fakeAnalyzer{})
	if err := e.DuePostSweep(context.Background()); err == nil {
		t.Fatal("expected sweep-level error")
	}
}

func evergreenPost(id uint, frequency string, lastRecycled *time.Time) models.Post {
	p := models.Post{
		UserID:           1,
		Title:            "Evergreen classic",
		Content:          "still relevant",
		Status:           models.PostStatusPublished,
		IsEvergreen:      true,
		RecycleFrequency: frequency,
		LastRecycled:     lastRecycled,
	}
	p.ID = id
	return p
}

func TestRecycleSweepCreatesScheduledCopy(t *testing.T) {
	eightDaysAgo := engineNow.AddDate(0, 0, -8)
	store := newFakeStore()
	store.recyclable = []models.Post{evergreenPost(1, models.RecycleWeekly, &eightDaysAgo)}
	next := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)

	e := newTestEngine(store, &fakeCreds{}, &fakePublisher{}, &fakeSelector{next: next}, &fakeAnalyzer{})
	if err := e.RecycleSweep(context.Background()); err != nil {
		t.Fatalf("RecycleSweep: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected 1 recycled copy, got %d", len(store.created))
	}
	clone := store.created[0]
	if clone.Title != "Evergreen classic (Recycled)" {
		t.Errorf("unexpected copy title %q", clone.Title)
	}
	if clone.Status != models.PostStatusScheduled {
		t.Errorf("expected scheduled copy, got %q", clone.Status)
	}
	if clone.ScheduledAt == nil || !clone.ScheduledAt.Equal(next) {
		t.Errorf("expected copy scheduled at %v, got %v", next, clone.ScheduledAt)
	}
	if !clone.IsEvergreen || clone.RecycleFrequency != models.RecycleWeekly {
		t.Errorf("copy should keep evergreen settings: %+v", clone)
	}
	if stamped, ok := store.stamped[1]; !ok || !stamped.Equal(engineNow) {
		t.Errorf("expected original stamped at %v, got %v", engineNow, stamped)
	}
}

func TestRecycleSweepSkipsRecentlyRecycled(t *testing.T) {
	sixDaysAgo := engineNow.AddDate(0, 0, -6)
	store := newFakeStore()
	store.recyclable = []models.Post{evergreenPost(1, models.RecycleWeekly, &sixDaysAgo)}

	e := newTestEngine(store, &fakeCreds{}, &fakePublisher{}, &fakeSelector{}, &fakeAnalyzer{})
	if err := e.RecycleSweep(context.Background()); err != nil {
		t.Fatalf("RecycleSweep: %v", err)
	}

	if len(store.created) != 0 || len(store.stamped) != 0 {
		t.Errorf("expected nothing recycled, got created=%d stamped=%d", len(store.created), len(store.stamped))
	}
}

func TestRecycleSweepNeverTouchesNoneFrequencyOrNonEvergreen(t *testing.T) {
	store := newFakeStore()
	nonEvergreen := evergreenPost(2, models.RecycleWeekly, nil)
	nonEvergreen.IsEvergreen = false
	// Both slip into the candidate list to prove the engine re-checks.
	store.recyclable = []models.Post{
		evergreenPost(1, models.RecycleNone, nil),
		nonEvergreen,
	}

	e := newTestEngine(store, &fakeCreds{}, &fakePublisher{}, &fakeSelector{}, &fakeAnalyzer{})
	if err := e.RecycleSweep(context.Background()); err != nil {
		t.Fatalf("RecycleSweep: %v", err)
	}

	if len(store.created) != 0 || len(store.stamped) != 0 {
		t.Errorf("expected no mutations, got created=%d stamped=%d", len(store.created), len(store.stamped))
	}
}

func TestRecycleSweepNeverRecycledIsEligible(t *testing.T) {
	store := newFakeStore()
	store.recyclable = []models.Post{evergreenPost(1, models.RecycleMonthly, nil)}

	e := newTestEngine(store, &fakeCreds{}, &fakePublisher{}, &fakeSelector{next: engineNow.Add(24 * time.Hour)}, &fakeAnalyzer{})
	if err := e.RecycleSweep(context.Background()); err != nil {
		t.Fatalf("RecycleSweep: %v", err)
	}

	if len(store.created) != 1 {
		t.Errorf("expected never-recycled post to be recycled, got %d copies", len(store.created))
	}
}

func TestAnalyzeSweepRunsAnalyzer(t *testing.T) {
	an := &fakeAnalyzer{}
	e := newTestEngine(newFakeStore(), &fakeCreds{}, &fakePublisher{}, &fakeSelector{}, an)

	if err := e.AnalyzeSweep(context.Background()); err != nil {
		t.Fatalf("AnalyzeSweep: %v", err)
	}
	if an.runs != 1 {
		t.Errorf("expected 1 analyzer run, got %d", an.runs)
	}
}

func TestPublishNowMissingPost(t *testing.T) {
	e := newTestEngine(newFakeStore(), &fakeCreds{}, &fakePublisher{}, &fakeSelector{}, &fakeAnalyzer{})

	err := e.PublishNow(context.Background(), 404)
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestScheduleOptimalMovesPost(t *testing.T) {
	store := newFakeStore()
	draft := &models.Post{UserID: 1, Status: models.PostStatusDraft}
	draft.ID = 5
	store.posts[5] = draft
	next := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)

	e := newTestEngine(store, &fakeCreds{}, &fakePublisher{}, &fakeSelector{next: next}, &fakeAnalyzer{})
	got, err := e.ScheduleOptimal(context.Background(), 5)
	if err != nil {
		t.Fatalf("ScheduleOptimal: %v", err)
	}
	if !got.Equal(next) {
		t.Errorf("expected %v, got %v", next, got)
	}
	if at, ok := store.scheduled[5]; !ok || !at.Equal(next) {
		t.Errorf("expected post 5 scheduled at %v, got %v", next, at)
	}
}

func TestScheduleOptimalRejectsPublishedPost(t *testing.T) {
	store := newFakeStore()
	published := &models.Post{UserID: 1, Status: models.PostStatusPublished}
	published.ID = 6
	store.posts[6] = published

	e := newTestEngine(store, &fakeCreds{}, &fakePublisher{}, &fakeSelector{next: engineNow}, &fakeAnalyzer{})
	if _, err := e.ScheduleOptimal(context.Background(), 6); err == nil {
		t.Fatal("expected error for published post")
	}
}
