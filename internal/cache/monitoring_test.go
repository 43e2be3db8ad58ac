package cache

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetCacheStats(t *testing.T) {
	redisClient, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set("attachment:a1", "{}")
	mr.Set("attachment:a2", "{}")
	mr.Set("attachments:owner:1", "[]")
	mr.Set("rate_limit:uploads:user:1", "5")

	rr := httptest.NewRecorder()
	GetCacheStats(redisClient)(rr, httptest.NewRequest(http.MethodGet, "/admin/cache", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var body struct {
		Data CacheStats `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid body: %v", err)
	}
	stats := body.Data
	if !stats.RedisConnected || stats.KeyCount != 4 {
		t.Fatalf("Unexpected stats %+v", stats)
	}
	if stats.Families["attachments"] != 2 || stats.Families["listings"] != 1 || stats.Families["rate_limits"] != 1 {
		t.Fatalf("Unexpected family counts %v", stats.Families)
	}
}

func TestClearCache_KeepsRateLimits(t *testing.T) {
	redisClient, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set("attachment:a1", "{}")
	mr.Set("attachments:owner:1", "[]")
	mr.Set("rate_limit:uploads:user:1", "5")
	mr.Set("upload_lock:1:abc", "owner")

	rr := httptest.NewRecorder()
	ClearCache(redisClient)(rr, httptest.NewRequest(http.MethodDelete, "/admin/cache?type=all", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	if mr.Exists("attachment:a1") || mr.Exists("attachments:owner:1") {
		t.Fatal("Expected cached attachments to be cleared")
	}
	if !mr.Exists("rate_limit:uploads:user:1") || !mr.Exists("upload_lock:1:abc") {
		t.Fatal("Expected rate limits and locks to survive")
	}
}

func TestClearCache_UnknownType(t *testing.T) {
	redisClient, _, cleanup := setupTestRedis(t)
	defer cleanup()

	rr := httptest.NewRecorder()
	ClearCache(redisClient)(rr, httptest.NewRequest(http.MethodDelete, "/admin/cache?type=feed", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}
