package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const cursorKey = "domainape:feed_cursor"

// advanceScript двигает курсор атомарно и только вперед. Без скрипта два
// пересекшихся цикла могли бы перезаписать больший id меньшим.
var advanceScript = redis.NewScript(`
	local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
	local new = tonumber(ARGV[1])
	if new > cur then
		redis.call('SET', KEYS[1], ARGV[1])
		return new
	end
	return cur
`)

// CursorStore - Redis-реализация domain.CursorStore. Вариант для
// деплоев без Postgres под рукой (serverless-инвокации).
type CursorStore struct {
	client *redis.Client
}

func NewCursorStore(client *redis.Client) *CursorStore {
	return &CursorStore{client: client}
}

func (s *CursorStore) Current(ctx context.Context) (int64, error) {
	result, err := s.client.Get(ctx, cursorKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}

	id, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt cursor value %q: %w", result, err)
	}
	return id, nil
}

func (s *CursorStore) Advance(ctx context.Context, id int64) error {
	if err := advanceScript.Run(ctx, s.client, []string{cursorKey}, id).Err(); err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}
	return nil
}
