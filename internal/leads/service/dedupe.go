package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupeKeyPrefix = "leads:dedupe:"

// RedisDeduper claims lead texts for a window so the same e-mail forwarded
// twice does not create two bookings, even when both copies are processed
// concurrently.
type RedisDeduper struct {
	rdb    redis.Cmdable
	window time.Duration
}

func NewRedisDeduper(rdb redis.Cmdable, window time.Duration) *RedisDeduper {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &RedisDeduper{rdb: rdb, window: window}
}

// Claim reserves text for the window and reports whether this call got it.
// A false result means another worker processed or is processing the same
// lead.
func (d *RedisDeduper) Claim(ctx context.Context, text string) (bool, error) {
	return d.rdb.SetNX(ctx, dedupeKey(text), time.Now().UTC().Format(time.RFC3339), d.window).Result()
}

// Release drops a claim so a failed lead can be retried.
func (d *RedisDeduper) Release(ctx context.Context, text string) error {
	return d.rdb.Del(ctx, dedupeKey(text)).Err()
}

// dedupeKey hashes the text with whitespace collapsed and case folded, so
// re-wrapped forwards of the same lead collide.
func dedupeKey(text string) string {
	canonical := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(canonical))
	return dedupeKeyPrefix + hex.EncodeToString(sum[:])
}
