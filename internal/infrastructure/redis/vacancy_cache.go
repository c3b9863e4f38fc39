package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/rank"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// VacancyCache はイベント×席種ごとの残席数キャッシュを管理する
// 一覧ページの読み取り負荷を台帳スキャンから切り離すためのもので、
// 割り当ての正しさには一切関与しない（権威は常にDB側）
type VacancyCache struct {
	client *redis.Client
}

// NewVacancyCache は新しいVacancyCacheインスタンスを作成する
func NewVacancyCache(client *redis.Client) *VacancyCache {
	return &VacancyCache{client: client}
}

// GetRemains はイベント×席種の残席数をキャッシュから取得する
func (c *VacancyCache) GetRemains(ctx context.Context, eventID int64, r rank.Rank) (int, error) {
	val, err := c.client.Get(ctx, c.remainsKey(eventID, r)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetRemains はイベント×席種の残席数をキャッシュに保存する
func (c *VacancyCache) SetRemains(ctx context.Context, eventID int64, r rank.Rank, remains int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.remainsKey(eventID, r), remains, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントの全席種分のキャッシュを無効化する
func (c *VacancyCache) Invalidate(ctx context.Context, eventID int64) error {
	keys := make([]string, 0, len(rank.All()))
	for _, def := range rank.All() {
		keys = append(keys, c.remainsKey(eventID, def.Rank))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *VacancyCache) remainsKey(eventID int64, r rank.Rank) string {
	return fmt.Sprintf("vacancy:%d:%s", eventID, r)
}
