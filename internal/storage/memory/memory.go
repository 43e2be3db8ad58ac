// Package memory is an in-process Storage used by tests and local runs
// without Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/princekumarofficial/dropzone-service/internal/storage"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
	"github.com/princekumarofficial/dropzone-service/internal/types/users"
)

type Memory struct {
	mu          sync.RWMutex
	nextUserID  int
	users       map[string]users.User
	attachments map[string]media.Attachment
}

func New() *Memory {
	return &Memory{
		users:       make(map[string]users.User),
		attachments: make(map[string]media.Attachment),
	}
}

func (m *Memory) CreateUser(email, password string, role users.Role) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := m.users[key]; exists {
		return "", storage.ErrDuplicateEmail
	}

	m.nextUserID++
	id := fmt.Sprintf("%d", m.nextUserID)
	m.users[key] = users.User{
		ID:        id,
		Email:     email,
		Password:  password,
		Role:      role,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return id, nil
}

func (m *Memory) GetUserByEmail(email string) (*users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) InsertAttachment(_ context.Context, a *media.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.attachments[a.ID]; exists {
		return fmt.Errorf("attachment %s already exists", a.ID)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.ParentID == "" {
		a.ParentID = "0"
	}
	m.attachments[a.ID] = *a
	return nil
}

func (m *Memory) GetAttachment(_ context.Context, id string) (*media.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.attachments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListAttachmentsByOwner(_ context.Context, ownerID string) ([]media.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := []media.Attachment{}
	for _, a := range m.attachments {
		if a.OwnerID == ownerID {
			list = append(list, a)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (m *Memory) UpdateAttachmentMetadata(_ context.Context, id string, meta media.AttachmentMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attachments[id]
	if !ok {
		return storage.ErrNotFound
	}
	a.Metadata = meta
	m.attachments[id] = a
	return nil
}
