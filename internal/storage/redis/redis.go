// Package redis keeps the report cache and the token revocation list in Redis.
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/deniyaya/teashop/internal/domain/auth"
)

const keyPrefix = "teashop:"

// NewClient parses a redis:// URL and checks the server is reachable.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return rdb, nil
}

// ReportCache stores rendered reports under a generation number. Bumping the
// generation orphans every cached entry at once; orphans expire by TTL.
type ReportCache struct {
	rdb *goredis.Client
}

// NewReportCache returns a ReportCache using rdb.
func NewReportCache(rdb *goredis.Client) *ReportCache {
	return &ReportCache{rdb: rdb}
}

const generationKey = keyPrefix + "reports:generation"

// Generation returns the current generation number.
func (c *ReportCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "get report generation")
	}
	return gen, nil
}

func (c *ReportCache) entryKey(gen int64, key string) string {
	return keyPrefix + "reports:" + strconv.FormatInt(gen, 10) + ":" + key
}

// Get returns the value cached for key in generation gen.
func (c *ReportCache) Get(ctx context.Context, gen int64, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get report %s", key)
	}
	return val, true, nil
}

// Set stores val for key in generation gen. Generations only grow, so a
// value built before an Invalidate lands under an orphaned key and is never
// read.
func (c *ReportCache) Set(ctx context.Context, gen int64, key string, val []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.entryKey(gen, key), val, ttl).Err(); err != nil {
		return errors.Wrapf(err, "set report %s", key)
	}
	return nil
}

// Invalidate starts a new generation.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return errors.Wrap(err, "bump report generation")
	}
	return nil
}

var _ auth.RevocationStore = (*RevocationList)(nil)

// RevocationList marks token ids as revoked until their expiry.
type RevocationList struct {
	rdb *goredis.Client
	now func() time.Time
}

// NewRevocationList returns a RevocationList using rdb.
func NewRevocationList(rdb *goredis.Client) *RevocationList {
	return &RevocationList{rdb: rdb, now: time.Now}
}

func revokedKey(tokenID string) string {
	return keyPrefix + "revoked:" + tokenID
}

func (l *RevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(l.now())
	if ttl <= 0 {
		return nil
	}
	if err := l.rdb.Set(ctx, revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "revoke token")
	}
	return nil
}

func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "check token revocation")
	}
	return n > 0, nil
}
