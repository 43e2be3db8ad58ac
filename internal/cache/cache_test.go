package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/dropzone-service/internal/storage/memory"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}
	return redisClient, mr, cleanup
}

func TestGetAttachment_ReadThrough(t *testing.T) {
	redisClient, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := memory.New()
	svc := NewCacheService(store, redisClient)

	att := &media.Attachment{ID: "abc", OwnerID: "1", Title: "photo", FilePath: "/srv/uploads/photo.jpg", URL: "http://x/photo.jpg"}
	if err := svc.InsertAttachment(ctx, att); err != nil {
		t.Fatalf("InsertAttachment failed: %v", err)
	}

	got, err := svc.GetAttachment(ctx, "abc")
	if err != nil {
		t.Fatalf("GetAttachment failed: %v", err)
	}
	if got.Title != "photo" {
		t.Fatalf("Unexpected attachment %+v", got)
	}
	if !mr.Exists("attachment:abc") {
		t.Fatal("Expected attachment to be cached after first read")
	}

	cached, err := svc.GetAttachment(ctx, "abc")
	if err != nil {
		t.Fatalf("Cached GetAttachment failed: %v", err)
	}
	if cached.FilePath != "/srv/uploads/photo.jpg" {
		t.Fatalf("Expected cached copy to keep the file path, got %q", cached.FilePath)
	}
}

func TestUpdateMetadata_Invalidates(t *testing.T) {
	redisClient, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	svc := NewCacheService(memory.New(), redisClient)

	svc.InsertAttachment(ctx, &media.Attachment{ID: "abc", OwnerID: "1"})
	svc.GetAttachment(ctx, "abc")
	svc.ListAttachmentsByOwner(ctx, "1")

	if err := svc.UpdateAttachmentMetadata(ctx, "abc", media.AttachmentMetadata{Width: 5}); err != nil {
		t.Fatalf("UpdateAttachmentMetadata failed: %v", err)
	}

	if mr.Exists("attachment:abc") || mr.Exists("attachments:owner:1") {
		t.Fatal("Expected cache entries to be invalidated")
	}

	got, _ := svc.GetAttachment(ctx, "abc")
	if got.Metadata.Width != 5 {
		t.Fatalf("Expected fresh metadata, got %+v", got.Metadata)
	}
}

func TestListAttachments_InsertInvalidatesListing(t *testing.T) {
	redisClient, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	svc := NewCacheService(memory.New(), redisClient)

	svc.InsertAttachment(ctx, &media.Attachment{ID: "a1", OwnerID: "1"})
	list, _ := svc.ListAttachmentsByOwner(ctx, "1")
	if len(list) != 1 {
		t.Fatalf("Expected 1 attachment, got %d", len(list))
	}

	svc.InsertAttachment(ctx, &media.Attachment{ID: "a2", OwnerID: "1"})
	list, _ = svc.ListAttachmentsByOwner(ctx, "1")
	if len(list) != 2 {
		t.Fatalf("Expected listing to refresh after insert, got %d", len(list))
	}
}
