package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/princekumarofficial/dropzone-service/internal/storage"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
	"github.com/princekumarofficial/dropzone-service/internal/types/users"
)

var _ storage.Storage = (*Memory)(nil)

func TestUsers(t *testing.T) {
	m := New()

	id, err := m.CreateUser("a@example.com", "hash", users.RoleAuthor)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := m.CreateUser("A@example.com", "hash", users.RoleAuthor); !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Fatalf("Expected duplicate email error, got %v", err)
	}

	u, err := m.GetUserByEmail("a@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if u.ID != id || u.Role != users.RoleAuthor {
		t.Fatalf("Unexpected user %+v", u)
	}
	if _, err := m.GetUserByEmail("nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestAttachments(t *testing.T) {
	m := New()
	ctx := context.Background()

	older := &media.Attachment{ID: "a1", OwnerID: "1", Title: "one", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &media.Attachment{ID: "a2", OwnerID: "1", Title: "two"}
	other := &media.Attachment{ID: "a3", OwnerID: "2", Title: "three"}

	for _, a := range []*media.Attachment{older, newer, other} {
		if err := m.InsertAttachment(ctx, a); err != nil {
			t.Fatalf("InsertAttachment failed: %v", err)
		}
	}

	list, _ := m.ListAttachmentsByOwner(ctx, "1")
	if len(list) != 2 || list[0].ID != "a2" {
		t.Fatalf("Expected newest first for owner 1, got %+v", list)
	}

	meta := media.AttachmentMetadata{Width: 10, Height: 20}
	if err := m.UpdateAttachmentMetadata(ctx, "a1", meta); err != nil {
		t.Fatalf("UpdateAttachmentMetadata failed: %v", err)
	}
	got, _ := m.GetAttachment(ctx, "a1")
	if got.Metadata.Width != 10 || got.ParentID != "0" {
		t.Fatalf("Unexpected attachment %+v", got)
	}

	if err := m.UpdateAttachmentMetadata(ctx, "missing", meta); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}
}
