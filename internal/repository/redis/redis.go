package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maternityCare/business/plan"
	"maternityCare/domain"

	"github.com/redis/go-redis/v9"
)

type PlanCacheRepository struct {
	client *redis.Client
}

var _ plan.PlanCache = (*PlanCacheRepository)(nil)

func NewPlanCacheRepository(client *redis.Client) *PlanCacheRepository {
	return &PlanCacheRepository{
		client: client,
	}
}

func planKey(userID, day string) string {
	// key format: "plan:daily:{user_id}:{yyyy-mm-dd}"
	return fmt.Sprintf("plan:daily:%s:%s", userID, day)
}

// Set stores the plan for its day, replacing any earlier plan.
func (r *PlanCacheRepository) Set(ctx context.Context, p domain.DailyPlan, ttl time.Duration) error {
	jsonData, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	err = r.client.Set(ctx, planKey(p.UserID, p.Day), jsonData, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store plan in Redis: %w", err)
	}

	return nil
}

// Get retrieves the cached plan for a user and day
func (r *PlanCacheRepository) Get(ctx context.Context, userID, day string) (domain.DailyPlan, error) {
	val, err := r.client.Get(ctx, planKey(userID, day)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DailyPlan{}, domain.ErrPlanNotCached
		}
		return domain.DailyPlan{}, fmt.Errorf("failed to get plan from Redis: %w", err)
	}

	var p domain.DailyPlan
	err = json.Unmarshal([]byte(val), &p)
	if err != nil {
		return domain.DailyPlan{}, fmt.Errorf("failed to unmarshal plan: %w", err)
	}

	return p, nil
}
