package storage

import (
	"context"
	"errors"

	"github.com/princekumarofficial/dropzone-service/internal/types/media"
	"github.com/princekumarofficial/dropzone-service/internal/types/users"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type Storage interface {
	CreateUser(email, password string, role users.Role) (string, error)
	GetUserByEmail(email string) (*users.User, error)

	InsertAttachment(ctx context.Context, a *media.Attachment) error
	GetAttachment(ctx context.Context, id string) (*media.Attachment, error)
	ListAttachmentsByOwner(ctx context.Context, ownerID string) ([]media.Attachment, error)
	UpdateAttachmentMetadata(ctx context.Context, id string, meta media.AttachmentMetadata) error
}
