package lock

import (
	"context"
	"fmt"
	"time"

	"tablepick/core/constants"
	"tablepick/core/logger"
	"tablepick/core/utils"

	"github.com/redis/go-redis/v9"
)

// PlanLocker serializes mutators on a single plan. Every load-validate-mutate-persist
// cycle runs under the plan's lock so two concurrent mutators never both validate
// against stale state.
type PlanLocker interface {
	Acquire(ctx context.Context, planID string) (release func(), err error)
}

type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire takes the per-plan lock, retrying once before giving up.
func (l *RedisLocker) Acquire(ctx context.Context, planID string) (func(), error) {
	key := fmt.Sprintf("plan-lock:%s", planID)
	token := utils.GenerateID()
	ttl := time.Duration(constants.PlanLockTTLSeconds) * time.Second

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				if _, err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Result(); err != nil {
					logger.Warn("RedisLocker:Release:Error", "plan_id", planID, "error", err)
				}
			}
			return release, nil
		}
		if attempt == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(constants.PlanLockRetryMillis) * time.Millisecond):
			}
		}
	}

	return nil, fmt.Errorf("plan %s is locked by another operation", planID)
}
