package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"maternityCare/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a live Redis; set REDIS_TEST_ADDR (e.g. localhost:6379) to run.
func newTestCache(t *testing.T) *PlanCacheRepository {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		_ = client.Close()
	})
	return NewPlanCacheRepository(client)
}

func TestPlanKey(t *testing.T) {
	assert.Equal(t, "plan:daily:u1:2025-03-01", planKey("u1", "2025-03-01"))
}

func TestPlanCache_RoundTripAndOverwrite(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Get(ctx, "u1", "2025-03-01")
	assert.ErrorIs(t, err, domain.ErrPlanNotCached)

	first := domain.DailyPlan{UserID: "u1", Day: "2025-03-01", FrequencyCap: 4,
		Items: []domain.MessagePlanItem{{Type: domain.PlanCheckIn, MessageText: "hi"}}}
	require.NoError(t, cache.Set(ctx, first, time.Minute))

	got, err := cache.Get(ctx, "u1", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 4, got.FrequencyCap)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "hi", got.Items[0].MessageText)

	second := first
	second.FrequencyCap = 3
	second.Items = nil
	require.NoError(t, cache.Set(ctx, second, time.Minute))

	got, err = cache.Get(ctx, "u1", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 3, got.FrequencyCap)
	assert.Empty(t, got.Items)
}
