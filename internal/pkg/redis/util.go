package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockRetryInterval = 50 * time.Millisecond

var unlockScript = redis.NewScript("if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end")

// TryLock SET NX 加锁，retryTimes 为 -1 时一直重试直到 ctx 结束
func TryLock(ctx context.Context, key string, value interface{}, expiration time.Duration, retryTimes int) (bool, error) {
	for i := 0; i <= retryTimes || retryTimes == -1; i++ {
		success, err := Rdb.SetNX(ctx, key, value, expiration).Result()
		if err != nil {
			return false, err
		}
		if success {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
	return false, nil
}

// UnLock 仅当锁仍归属 value 时释放
func UnLock(ctx context.Context, key string, value interface{}) error {
	return unlockScript.Run(ctx, Rdb, []string{key}, value).Err()
}
