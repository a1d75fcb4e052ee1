package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultTTL bounds how long a cached ETag survives without invalidation.
const DefaultTTL = time.Hour

// ETagCache remembers the last content ETag computed for each playlist so
// unchanged screens can be answered with 304 without loading items. A nil
// *ETagCache is valid and caches nothing.
type ETagCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewETagCache(address, username, password string, ttl time.Duration) *ETagCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ETagCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     address,
			Username: username,
			Password: password,
			DB:       0,
		}),
		ttl: ttl,
	}
}

// VersionKey holds a playlist's invalidation counter. It has no TTL.
func VersionKey(playlistID int) string {
	return fmt.Sprintf("playlist:%d:version", playlistID)
}

// Key holds the ETag computed at one version of a playlist.
func Key(playlistID int, version int64) string {
	return fmt.Sprintf("playlist:%d:etag:%d", playlistID, version)
}

func (c *ETagCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Version returns the invalidation counter of a playlist, 0 if it was never
// invalidated. ok is false when redis could not be read.
func (c *ETagCache) Version(ctx context.Context, playlistID int) (int64, bool) {
	if c == nil {
		return 0, false
	}
	v, err := c.rdb.Get(ctx, VersionKey(playlistID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("failed to read playlist version from redis")
		return 0, false
	}
	return v, true
}

// Get returns the ETag stored for the current version of a playlist.
func (c *ETagCache) Get(ctx context.Context, playlistID int) (string, bool) {
	version, ok := c.Version(ctx, playlistID)
	if !ok {
		return "", false
	}
	etag, err := c.rdb.Get(ctx, Key(playlistID, version)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("failed to read etag from redis")
		return "", false
	}
	return etag, true
}

// Set stores etag under the version read before the playlist was resolved.
// If the playlist was invalidated in between, the entry lands on a version
// nobody reads anymore and expires with the TTL.
func (c *ETagCache) Set(ctx context.Context, playlistID int, version int64, etag string) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, Key(playlistID, version), etag, c.ttl).Err(); err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("failed to store etag in redis")
	}
}

// Invalidate bumps the version of the given playlists so every ETag cached
// so far, and any still being computed, stops matching.
func (c *ETagCache) Invalidate(ctx context.Context, playlistIDs ...int) {
	if c == nil || len(playlistIDs) == 0 {
		return
	}
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range playlistIDs {
			pipe.Incr(ctx, VersionKey(id))
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Ints("playlist_ids", playlistIDs).Msg("failed to invalidate etags in redis")
	}
}

func (c *ETagCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
