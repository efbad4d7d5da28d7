package collections

import (
	"context"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// FavoriteCache keeps the favorite-membership set and the monotonic refresh
// counter in Redis so views can cheaply ask "is this favorited" and "has
// anything changed since I last looked". A nil client degrades every call to a
// no-op / DB-fallback; the SQLite rows remain the source of truth.
type FavoriteCache struct {
	RDB *redis.Client
}

func NewFavoriteCache(rdb *redis.Client) *FavoriteCache {
	return &FavoriteCache{RDB: rdb}
}

func favKey(userID string) string     { return "favorites:" + userID }
func refreshKey(userID string) string { return "refresh:" + userID }

func (f *FavoriteCache) Add(ctx context.Context, userID string, catalogID int64) {
	if f == nil || f.RDB == nil {
		return
	}
	if err := f.RDB.SAdd(ctx, favKey(userID), strconv.FormatInt(catalogID, 10)).Err(); err != nil {
		log.Printf("[collections] favorite cache add: %v", err)
	}
}

func (f *FavoriteCache) Remove(ctx context.Context, userID string, catalogID int64) {
	if f == nil || f.RDB == nil {
		return
	}
	if err := f.RDB.SRem(ctx, favKey(userID), strconv.FormatInt(catalogID, 10)).Err(); err != nil {
		log.Printf("[collections] favorite cache remove: %v", err)
	}
}

// Members returns the cached favorite set, or ok=false when the cache is
// unavailable and the caller must read the DB.
func (f *FavoriteCache) Members(ctx context.Context, userID string) (map[int64]struct{}, bool) {
	if f == nil || f.RDB == nil {
		return nil, false
	}
	raw, err := f.RDB.SMembers(ctx, favKey(userID)).Result()
	if err != nil {
		log.Printf("[collections] favorite cache members: %v", err)
		return nil, false
	}
	// an empty set is indistinguishable from a cold cache; let the caller
	// rebuild from the DB either way
	if len(raw) == 0 {
		return nil, false
	}
	out := make(map[int64]struct{}, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		out[id] = struct{}{}
	}
	return out, true
}

// Replace rewrites the cached set from DB truth, used after ambiguous
// failures.
func (f *FavoriteCache) Replace(ctx context.Context, userID string, ids []int64) {
	if f == nil || f.RDB == nil {
		return
	}
	key := favKey(userID)
	pipe := f.RDB.TxPipeline()
	pipe.Del(ctx, key)
	for _, id := range ids {
		pipe.SAdd(ctx, key, strconv.FormatInt(id, 10))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[collections] favorite cache replace: %v", err)
	}
}

// BumpRefresh increments the per-user refresh counter other views watch to
// know they should reload. Returns 0 when the cache is down.
func (f *FavoriteCache) BumpRefresh(ctx context.Context, userID string) int64 {
	if f == nil || f.RDB == nil {
		return 0
	}
	n, err := f.RDB.Incr(ctx, refreshKey(userID)).Result()
	if err != nil {
		log.Printf("[collections] refresh counter: %v", err)
		return 0
	}
	return n
}
