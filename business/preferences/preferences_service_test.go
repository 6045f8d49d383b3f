package preferences_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"maternityCare/business/preferences"
	"maternityCare/domain"
	"maternityCare/internal/repository/postgres"
	"maternityCare/pkg/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&[]domain.ContentTag{
		{ID: "sleep-routines", Name: "Sleep routines", Category: "sleep"},
		{ID: "night-feeds", Name: "Night feeds", Category: "feeding"},
		{ID: "self-care", Name: "Self care", Category: "wellbeing"},
	}).Error)
	require.NoError(t, db.Create(&[]domain.ContentTagRelation{
		{ContentID: "c1", TagID: "sleep-routines", RelevanceScore: 1},
		{ContentID: "c1", TagID: "night-feeds", RelevanceScore: 0.5},
		{ContentID: "c2", TagID: "sleep-routines", RelevanceScore: 1},
		{ContentID: "c3", TagID: "self-care", RelevanceScore: 1},
	}).Error)
}

func interaction(userID, contentID string, engagement float64, age time.Duration) domain.InteractionRecord {
	return domain.InteractionRecord{
		UserID: userID, ContentID: contentID, ContentType: "article", InteractionType: "view",
		EngagementScore: engagement, CreatedAt: now.Add(-age),
	}
}

func newService(db *gorm.DB) interface {
	InferPreferences(ctx context.Context, userID string) (domain.InferenceResult, error)
} {
	return preferences.NewPreferenceService(postgres.NewPreferenceRepository(db), preferences.Config{}).
		WithClock(func() time.Time { return now })
}

func storedWeights(t *testing.T, db *gorm.DB, userID string) map[string]domain.PreferenceWeight {
	t.Helper()
	var rows []domain.PreferenceWeight
	require.NoError(t, db.Where("user_id = ?", userID).Find(&rows).Error)
	out := make(map[string]domain.PreferenceWeight, len(rows))
	for _, r := range rows {
		out[r.TagID] = r
	}
	return out
}

func TestInferPreferences_ZeroInteractions(t *testing.T) {
	db := dbtest.Open(t)
	res, err := newService(db).InferPreferences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, res.Inferred)
	assert.Equal(t, int64(0), res.UpdatedCount)
}

func TestInferPreferences_WeightsAndIdempotence(t *testing.T) {
	db := dbtest.Open(t)
	seedCatalog(t, db)
	require.NoError(t, db.Create(&[]domain.InteractionRecord{
		interaction("u1", "c1", 1, time.Hour),
		interaction("u1", "c2", 1, 2*time.Hour),
		interaction("u1", "c2", 1, 3*time.Hour),
		interaction("u1", "c3", 0.4, 4*time.Hour),
		// outside the 30 day window
		interaction("u1", "c3", 1, 31*24*time.Hour),
		interaction("u2", "c1", 1, time.Hour),
	}).Error)

	svc := newService(db)
	first, err := svc.InferPreferences(context.Background(), "u1")
	require.NoError(t, err)

	w := storedWeights(t, db, "u1")
	// sleep-routines: 3 interactions, avg 1.0, log2(4)/5 = 0.4
	assert.Equal(t, 0.4, w["sleep-routines"].Weight)
	assert.Equal(t, "sleep", w["sleep-routines"].PreferenceType)
	assert.Equal(t, domain.PreferenceSourceAIInferred, w["sleep-routines"].Source)
	assert.False(t, w["sleep-routines"].Explicit)
	// night-feeds: 1 interaction, avg 0.5, 0.5/5 = 0.1, not above the floor
	assert.NotContains(t, w, "night-feeds")
	// self-care: 1 interaction, avg 0.4, 0.08
	assert.NotContains(t, w, "self-care")
	assert.Len(t, first.Inferred, 1)

	second, err := svc.InferPreferences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first.Inferred[0].Weight, second.Inferred[0].Weight)

	again := storedWeights(t, db, "u1")
	assert.Len(t, again, 1)
	assert.Equal(t, w["sleep-routines"].Weight, again["sleep-routines"].Weight)
}

func TestInferPreferences_NeverOverwritesExplicit(t *testing.T) {
	db := dbtest.Open(t)
	seedCatalog(t, db)
	require.NoError(t, db.Create(&domain.PreferenceWeight{
		UserID: "u1", TagID: "sleep-routines", PreferenceType: "sleep",
		Weight: 0.9, Explicit: true, Source: domain.PreferenceSourceExplicit, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&[]domain.InteractionRecord{
		interaction("u1", "c2", 1, time.Hour),
		interaction("u1", "c2", 1, 2*time.Hour),
		interaction("u1", "c2", 1, 3*time.Hour),
	}).Error)

	res, err := newService(db).InferPreferences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, res.Inferred)

	w := storedWeights(t, db, "u1")
	require.Len(t, w, 1)
	assert.Equal(t, 0.9, w["sleep-routines"].Weight)
	assert.Equal(t, domain.PreferenceSourceExplicit, w["sleep-routines"].Source)
}

func TestUpsertInferred_ConflictGuardSkipsExplicitRow(t *testing.T) {
	db := dbtest.Open(t)
	repo := postgres.NewPreferenceRepository(db)
	require.NoError(t, db.Create(&domain.PreferenceWeight{
		UserID: "u1", TagID: "t1", PreferenceType: "sleep",
		Weight: 0.9, Explicit: true, Source: domain.PreferenceSourceExplicit, UpdatedAt: now,
	}).Error)

	n, err := repo.UpsertInferred(context.Background(), []domain.PreferenceWeight{{
		UserID: "u1", TagID: "t1", PreferenceType: "sleep",
		Weight: 0.3, Source: domain.PreferenceSourceAIInferred, UpdatedAt: now,
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	w := storedWeights(t, db, "u1")
	assert.Equal(t, 0.9, w["t1"].Weight)
}

func TestInferPreferences_ConcurrentRunsConverge(t *testing.T) {
	db := dbtest.Open(t)
	seedCatalog(t, db)
	require.NoError(t, db.Create(&[]domain.InteractionRecord{
		interaction("u1", "c1", 1, time.Hour),
		interaction("u1", "c2", 0.9, 2*time.Hour),
		interaction("u1", "c3", 1, 3*time.Hour),
		interaction("u1", "c3", 0.8, 4*time.Hour),
		interaction("u1", "c3", 1, 5*time.Hour),
	}).Error)

	svc := newService(db)

	const runs = 4
	results := make([]domain.InferenceResult, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.InferPreferences(context.Background(), "u1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i])
	}

	weightsOf := func(res domain.InferenceResult) map[string]float64 {
		out := make(map[string]float64, len(res.Inferred))
		for _, p := range res.Inferred {
			out[p.TagID] = p.Weight
		}
		return out
	}
	want := weightsOf(results[0])
	require.Len(t, want, 2)
	for i := 1; i < runs; i++ {
		assert.Equal(t, want, weightsOf(results[i]))
	}

	stored := storedWeights(t, db, "u1")
	require.Len(t, stored, len(want))
	for tag, w := range want {
		assert.Equal(t, w, stored[tag].Weight, tag)
	}

	// a later sequential run sees the same state
	again, err := svc.InferPreferences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, want, weightsOf(again))
}
