package cache

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/dropzone-service/internal/utils/response"
)

// Key families the service writes to redis.
var keyFamilies = map[string]string{
	"attachments": "attachment:*",
	"listings":    "attachments:owner:*",
	"rate_limits": "rate_limit:*",
	"locks":       "upload_lock:*",
}

// Families that ClearCache may drop. Rate limits and session locks are
// state, not cache.
var clearable = map[string][]string{
	"attachments": {"attachments"},
	"listings":    {"listings"},
	"all":         {"attachments", "listings"},
}

// CacheStats represents cache statistics
type CacheStats struct {
	RedisConnected bool           `json:"redis_connected"`
	Families       map[string]int `json:"families"`
	KeyCount       int64          `json:"total_keys"`
}

func scanKeys(ctx context.Context, redisClient *redis.Client, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := redisClient.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// GetCacheStats reports key counts per family
// @Summary Cache statistics
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response "Cache stats retrieved"
// @Security BearerAuth
// @Router /admin/cache [get]
func GetCacheStats(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := CacheStats{
			RedisConnected: true,
			Families:       make(map[string]int),
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		for family, pattern := range keyFamilies {
			keys, err := scanKeys(ctx, redisClient, pattern)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			stats.Families[family] = len(keys)
		}

		if n, err := redisClient.DBSize(ctx).Result(); err == nil {
			stats.KeyCount = n
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// ClearCache drops cached attachment reads
// @Summary Clear cache
// @Tags admin
// @Produce json
// @Param type query string false "attachments, listings or all" default(all)
// @Success 200 {object} response.Response "Cache cleared"
// @Failure 400 {object} response.Response "Unknown cache type"
// @Security BearerAuth
// @Router /admin/cache [delete]
func ClearCache(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cacheType := r.URL.Query().Get("type")
		if cacheType == "" {
			cacheType = "all"
		}
		families, ok := clearable[cacheType]
		if !ok {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unknown cache type")))
			return
		}

		var deleted int64
		for _, family := range families {
			keys, err := scanKeys(ctx, redisClient, keyFamilies[family])
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			if len(keys) == 0 {
				continue
			}
			n, err := redisClient.Del(ctx, keys...).Result()
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			deleted += n
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared successfully", map[string]interface{}{
			"type":         cacheType,
			"deleted_keys": deleted,
		}))
	}
}
