package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/dropzone-service/internal/storage"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
	"github.com/princekumarofficial/dropzone-service/internal/types/users"
)

// CacheService wraps storage with Redis caching of attachment reads.
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

var _ storage.Storage = (*CacheService)(nil)

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	AttachmentKey      = "attachment:%s"        // attachment:attachmentID
	OwnerAttachmentKey = "attachments:owner:%s" // attachments:owner:userID
)

// Cache durations
const (
	AttachmentCacheDuration = 10 * time.Minute
	ListCacheDuration       = 1 * time.Minute
)

func (c *CacheService) CreateUser(email, password string, role users.Role) (string, error) {
	return c.storage.CreateUser(email, password, role)
}

func (c *CacheService) GetUserByEmail(email string) (*users.User, error) {
	return c.storage.GetUserByEmail(email)
}

func (c *CacheService) InsertAttachment(ctx context.Context, a *media.Attachment) error {
	if err := c.storage.InsertAttachment(ctx, a); err != nil {
		return err
	}
	c.redis.Del(ctx, fmt.Sprintf(OwnerAttachmentKey, a.OwnerID))
	return nil
}

// GetAttachment returns a cached attachment or fetches it from storage
func (c *CacheService) GetAttachment(ctx context.Context, id string) (*media.Attachment, error) {
	key := fmt.Sprintf(AttachmentKey, id)

	// Try cache first
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var entry cachedAttachment
		if err := json.Unmarshal([]byte(cached), &entry); err == nil {
			return entry.attachment(), nil
		}
	}

	// Cache miss
	a, err := c.storage.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, newCachedAttachment(*a), AttachmentCacheDuration)
	return a, nil
}

func (c *CacheService) ListAttachmentsByOwner(ctx context.Context, ownerID string) ([]media.Attachment, error) {
	key := fmt.Sprintf(OwnerAttachmentKey, ownerID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var entries []cachedAttachment
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			list := make([]media.Attachment, 0, len(entries))
			for _, e := range entries {
				list = append(list, *e.attachment())
			}
			return list, nil
		}
	}

	list, err := c.storage.ListAttachmentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	entries := make([]cachedAttachment, 0, len(list))
	for _, a := range list {
		entries = append(entries, newCachedAttachment(a))
	}
	c.set(ctx, key, entries, ListCacheDuration)
	return list, nil
}

func (c *CacheService) UpdateAttachmentMetadata(ctx context.Context, id string, meta media.AttachmentMetadata) error {
	if err := c.storage.UpdateAttachmentMetadata(ctx, id, meta); err != nil {
		return err
	}
	c.InvalidateAttachment(ctx, id)
	return nil
}

// InvalidateAttachment drops the cached attachment and its owner's listing.
func (c *CacheService) InvalidateAttachment(ctx context.Context, id string) {
	key := fmt.Sprintf(AttachmentKey, id)

	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		var entry cachedAttachment
		if json.Unmarshal([]byte(cached), &entry) == nil {
			c.redis.Del(ctx, fmt.Sprintf(OwnerAttachmentKey, entry.OwnerID))
		}
	}
	c.redis.Del(ctx, key)
}

func (c *CacheService) set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("Failed to write cache", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// cachedAttachment keeps FilePath, which is hidden from the JSON API.
type cachedAttachment struct {
	media.Attachment
	FilePath string `json:"file_path"`
}

func newCachedAttachment(a media.Attachment) cachedAttachment {
	return cachedAttachment{Attachment: a, FilePath: a.FilePath}
}

func (e cachedAttachment) attachment() *media.Attachment {
	a := e.Attachment
	a.FilePath = e.FilePath
	return &a
}
