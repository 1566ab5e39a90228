package redis

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

var ErrLockTimeout = errors.New("redis lock wait timeout")

// KeyLocker 基于 SET NX 的分布式互斥锁，多实例部署时保证同一个 key 的操作串行
type KeyLocker struct {
	ttl  time.Duration
	wait time.Duration
}

func NewKeyLocker(ttl, wait time.Duration) *KeyLocker {
	return &KeyLocker{ttl: ttl, wait: wait}
}

func (l *KeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	retries := int(l.wait / lockRetryInterval)

	ok, err := TryLock(ctx, key, token, l.ttl, retries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockTimeout
	}

	return func() {
		// 请求 ctx 可能已取消，释放锁不能依赖它
		if err := UnLock(context.WithoutCancel(ctx), key, token); err != nil {
			log.WarnContext(ctx, "redis unlock failed", "key", key, "err", err)
		}
	}, nil
}
