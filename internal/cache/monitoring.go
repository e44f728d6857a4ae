package cache

import (
	"context"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/zcreens-service/internal/utils/response"
)

// CacheStats represents cache performance statistics
type CacheStats struct {
	RedisConnected bool              `json:"redis_connected"`
	RedisInfo      map[string]string `json:"redis_info"`
	CacheKeys      []string          `json:"cache_keys_sample"`
	KeyCount       int               `json:"total_keys"`
}

// cachePatterns maps the ?type= filter of ClearCache to key patterns.
var cachePatterns = map[string][]string{
	"presentations": {"presentation:code:*"},
	"lists":         {"presentation:user:*"},
	"accounts":      {"account:*"},
	"all":           {"presentation:*", "account:*"},
}

// GetCacheStats returns cache performance statistics
// @Summary Cache statistics
// @Description Redis connectivity and a sample of cached presentation keys
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/cache/stats [get]
func GetCacheStats(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := CacheStats{
			RedisConnected: true,
			RedisInfo:      make(map[string]string),
		}

		// Test Redis connection
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		if infoResult := redisClient.Info(ctx, "memory"); infoResult.Err() == nil {
			stats.RedisInfo["info"] = "available"
		}

		// Get cache keys (sample)
		keys := redisClient.Keys(ctx, "presentation:*")
		if keys.Err() == nil {
			stats.CacheKeys = keys.Val()
			if len(stats.CacheKeys) > 10 {
				stats.CacheKeys = stats.CacheKeys[:10]
			}
		}

		if dbSize := redisClient.DBSize(ctx); dbSize.Err() == nil {
			stats.KeyCount = int(dbSize.Val())
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// ClearCache endpoint for administrative purposes
// @Summary Clear cache
// @Description Deletes cached entries of one type: presentations, lists, accounts or all
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param type query string false "presentations | lists | accounts | all" default(presentations)
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /admin/cache [delete]
func ClearCache(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cacheType := r.URL.Query().Get("type")
		patterns, ok := cachePatterns[cacheType]
		if !ok {
			cacheType = "presentations"
			patterns = cachePatterns[cacheType]
		}

		deleted, sample, err := deleteMatching(r.Context(), redisClient, patterns)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		result := map[string]interface{}{
			"type":         cacheType,
			"deleted_keys": deleted,
			"keys_sample":  sample,
		}
		if deleted == 0 {
			response.WriteJSON(w, http.StatusOK, response.RequestOK("No cache keys to clear", result))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared successfully", result))
	}
}

func deleteMatching(ctx context.Context, redisClient *redis.Client, patterns []string) (int64, []string, error) {
	var all []string
	for _, pattern := range patterns {
		keys, err := redisClient.Keys(ctx, pattern).Result()
		if err != nil {
			return 0, nil, err
		}
		all = append(all, keys...)
	}
	if len(all) == 0 {
		return 0, []string{}, nil
	}

	deleted, err := redisClient.Del(ctx, all...).Result()
	if err != nil {
		return 0, nil, err
	}
	return deleted, all[:min(len(all), 5)], nil
}
