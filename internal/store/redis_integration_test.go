//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/linkshortener/internal/errx"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func TestRedisStoreIntegration(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}

	prefix := fmt.Sprintf("linktest:%d:", time.Now().UnixNano())
	s := NewRedisStore(client, prefix, Options{OpTimeout: 2 * time.Second})
	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
		_ = s.Shutdown()
	})

	t.Run("insert and find", func(t *testing.T) {
		link, err := s.TryInsert(ctx, "rdTest1", "https://example.com/page?id=1")
		require.NoError(t, err)

		byCode, err := s.FindByCode(ctx, "rdTest1")
		require.NoError(t, err)
		assert.Equal(t, link.ID, byCode.ID)
		assert.Equal(t, "https://example.com/page?id=1", byCode.LongURL)
		assert.True(t, link.CreatedAt.Equal(byCode.CreatedAt))

		byURL, err := s.FindByURL(ctx, "https://example.com/page?id=1")
		require.NoError(t, err)
		assert.Equal(t, "rdTest1", byURL.Code)
	})

	t.Run("missing keys are NotFound", func(t *testing.T) {
		_, err := s.FindByCode(ctx, "nothere")
		assert.True(t, errx.Is(err, errx.NotFound))

		_, err = s.FindByURL(ctx, "https://nothere.example")
		assert.True(t, errx.Is(err, errx.NotFound))
	})

	t.Run("code taken", func(t *testing.T) {
		_, err := s.TryInsert(ctx, "rdDup01", "https://a.example")
		require.NoError(t, err)

		_, err = s.TryInsert(ctx, "rdDup01", "https://b.example")
		assert.ErrorIs(t, err, shortener.ErrCodeTaken)

		got, err := s.FindByCode(ctx, "rdDup01")
		require.NoError(t, err)
		assert.Equal(t, "https://a.example", got.LongURL)
	})

	t.Run("url taken", func(t *testing.T) {
		_, err := s.TryInsert(ctx, "rdUrl01", "https://same.example")
		require.NoError(t, err)

		_, err = s.TryInsert(ctx, "rdUrl02", "https://same.example")
		assert.ErrorIs(t, err, shortener.ErrURLTaken)

		_, err = s.FindByCode(ctx, "rdUrl02")
		assert.True(t, errx.Is(err, errx.NotFound))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})

	t.Run("concurrent inserts of one code admit one winner", func(t *testing.T) {
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.TryInsert(ctx, "rdRace1", fmt.Sprintf("https://race.example/%d", i))
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}
