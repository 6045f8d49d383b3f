package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"maternityCare/domain"
	"maternityCare/pkg/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newEvent(userID string, at time.Time) domain.BehavioralEvent {
	return domain.BehavioralEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.EventAppOpen,
		Payload:   datatypes.JSON(json.RawMessage(`{}`)),
		CreatedAt: at,
	}
}

func TestEventRepository_AppendWithinLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(dbtest.Open(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendWithinLimit(ctx, newEvent("u1", t0.Add(time.Duration(i)*time.Second)), 3, time.Minute))
	}

	err := repo.AppendWithinLimit(ctx, newEvent("u1", t0.Add(10*time.Second)), 3, time.Minute)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))

	require.NoError(t, repo.AppendWithinLimit(ctx, newEvent("u2", t0.Add(10*time.Second)), 3, time.Minute), "limit is per user")

	// once the first events slide out of the window the user may append again
	require.NoError(t, repo.AppendWithinLimit(ctx, newEvent("u1", t0.Add(61*time.Second)), 3, time.Minute))

	recent, err := repo.ListRecent(ctx, "u1", t0, 10)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt), "newest first")
}

func TestEventRepository_AppendWithinLimit_CountsRowsFromFastClocks(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(dbtest.Open(t))

	// another instance, 30s ahead, already used the budget
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendWithinLimit(ctx, newEvent("u1", t0.Add(30*time.Second+time.Duration(i)*time.Millisecond)), 3, time.Minute))
	}

	err := repo.AppendWithinLimit(ctx, newEvent("u1", t0), 3, time.Minute)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestEventRepository_ConcurrentAppendsRespectLimit(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewEventRepository(db)

	const (
		workers = 150
		limit   = 100
	)
	var accepted, limited, failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.AppendWithinLimit(ctx, newEvent("u1", t0.Add(time.Duration(i)*time.Millisecond)), limit, time.Minute)
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domain.ErrRateLimited):
				limited.Add(1)
			default:
				failed.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(limit), accepted.Load())
	assert.Equal(t, int64(workers-limit), limited.Load())
	assert.Zero(t, failed.Load())

	var stored int64
	require.NoError(t, db.Model(&domain.BehavioralEvent{}).Where("user_id = ?", "u1").Count(&stored).Error)
	assert.Equal(t, int64(limit), stored)
}

func TestEventRepository_ActiveUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(dbtest.Open(t))

	require.NoError(t, repo.AppendWithinLimit(ctx, newEvent("old", t0.Add(-10*24*time.Hour)), 100, time.Minute))
	require.NoError(t, repo.AppendWithinLimit(ctx, newEvent("b", t0), 100, time.Minute))
	require.NoError(t, repo.AppendWithinLimit(ctx, newEvent("a", t0), 100, time.Minute))
	require.NoError(t, repo.AppendWithinLimit(ctx, newEvent("a", t0.Add(time.Second)), 100, time.Minute))

	users, err := repo.ActiveUsers(ctx, t0.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, users)
}

func TestSignalRepository_LatestWins(t *testing.T) {
	ctx := context.Background()
	repo := NewSignalRepository(dbtest.Open(t))

	_, err := repo.Latest(ctx, "u1")
	assert.True(t, errors.Is(err, domain.ErrSnapshotNotFound))

	for i, p := range []domain.Priority{domain.PriorityHabit, domain.PriorityStress} {
		require.NoError(t, repo.Create(ctx, &domain.SignalSnapshot{
			ID: uuid.NewString(), UserID: "u1", Tags: []string{},
			Priority: p, Provider: "openai", CreatedAt: t0.Add(time.Duration(i) * time.Hour),
		}))
	}

	latest, err := repo.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityStress, latest.Priority)

	history, err := repo.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func newAlert(userID, alertType string) *domain.AlertRecord {
	return &domain.AlertRecord{
		ID: uuid.NewString(), UserID: userID, AlertType: alertType,
		Severity: 9, TriggerReason: "risk_level=9", CreatedAt: t0,
	}
}

func TestAlertRepository_OneOpenPerType(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRepository(dbtest.Open(t))

	first := newAlert("u1", domain.TagHarmThoughts)
	created, err := repo.CreateIfNoneOpen(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfNoneOpen(ctx, newAlert("u1", domain.TagHarmThoughts))
	require.NoError(t, err)
	assert.False(t, created, "duplicate open alert must not be inserted")

	created, err = repo.CreateIfNoneOpen(ctx, newAlert("u1", domain.TagIntrusiveThoughts))
	require.NoError(t, err)
	assert.True(t, created, "different alert type is independent")

	open, err := repo.FindOpenByType(ctx, "u1", domain.TagHarmThoughts)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, first.ID, open.ID)

	resolved, err := repo.Resolve(ctx, first.ID, "nurse-1", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "nurse-1", resolved.ResolvedBy)

	_, err = repo.Resolve(ctx, first.ID, "nurse-2", t0.Add(2*time.Hour))
	assert.True(t, errors.Is(err, domain.ErrAlertAlreadyResolved))

	_, err = repo.Resolve(ctx, "missing", "nurse-1", t0)
	assert.True(t, errors.Is(err, domain.ErrAlertNotFound))

	// after resolution a new alert of the same type may open
	created, err = repo.CreateIfNoneOpen(ctx, newAlert("u1", domain.TagHarmThoughts))
	require.NoError(t, err)
	assert.True(t, created)

	list, err := repo.ListOpen(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFrequencyRepository_DecrementFloor(t *testing.T) {
	ctx := context.Background()
	repo := NewFrequencyRepository(dbtest.Open(t))

	_, found, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.EnsureDefault(ctx, "u1", 2, t0))
	require.NoError(t, repo.EnsureDefault(ctx, "u1", 9, t0), "existing row is kept")

	for _, want := range []bool{true, true, false} {
		changed, err := repo.DecrementFloor(ctx, "u1", t0)
		require.NoError(t, err)
		assert.Equal(t, want, changed)
	}

	s, found, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0, s.FrequencyCap)
}

func TestContentRepositories(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	require.NoError(t, db.Create(&[]domain.ContentItem{
		{ID: "c1", Title: "Sleep basics", Published: true},
		{ID: "c2", Title: "Draft", Published: false},
		{ID: "c3", Title: "Night feeds", Published: true},
	}).Error)
	require.NoError(t, db.Model(&domain.ContentItem{}).Where("id = ?", "c2").Update("published", false).Error)
	require.NoError(t, db.Create(&[]domain.ContentTagRelation{
		{ContentID: "c1", TagID: "sleep", RelevanceScore: 0.9},
		{ContentID: "c2", TagID: "sleep", RelevanceScore: 1.0},
		{ContentID: "c3", TagID: "sleep", RelevanceScore: 0.5},
	}).Error)

	content := NewContentRepository(db)
	items, err := content.FindByTags(ctx, []string{"sleep"}, 5)
	require.NoError(t, err)
	require.Len(t, items, 2, "unpublished items are skipped")
	assert.Equal(t, "c1", items[0].ID)

	profiles := NewProfileRepository(db)
	_, err = profiles.GetProfile(ctx, "nobody")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))

	require.NoError(t, db.Create(&[]domain.ChatTurn{
		{UserID: "u1", Role: "user", Content: "first", CreatedAt: t0},
		{UserID: "u1", Role: "assistant", Content: "second", CreatedAt: t0.Add(time.Minute)},
		{UserID: "u1", Role: "user", Content: "third", CreatedAt: t0.Add(2 * time.Minute)},
	}).Error)

	turns, err := NewChatRepository(db).RecentTurns(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "second", turns[0].Content)
	assert.Equal(t, "third", turns[1].Content)
}
