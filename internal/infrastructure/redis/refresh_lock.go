package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// RefreshLock は空席数リフレッシュのシングルフライトを保証するロック
// 複数インスタンスが同時に台帳スキャンを走らせないためのもので、
// 取得できなければ即座にあきらめる（待機やリトライはしない）
type RefreshLock struct {
	client *redis.Client
	key    string
	value  string
}

// LockManager はリフレッシュロックを管理する
type LockManager struct {
	client *redis.Client
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// TryAcquire はロックの取得を試みる（キーが存在しない場合のみ SetNX で設定）
// 取得できなかった場合は ErrLockNotAcquired を返す
func (m *LockManager) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*RefreshLock, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := uuid.New().String()

	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &RefreshLock{client: m.client, key: lockKey, value: lockValue}, nil
}

// Release はロックを解放する（Lua スクリプトで所有者確認と削除をアトミックに実行）
func (l *RefreshLock) Release(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}
