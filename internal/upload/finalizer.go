package upload

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/princekumarofficial/dropzone-service/internal/chunkstore"
	"github.com/princekumarofficial/dropzone-service/internal/events"
	"github.com/princekumarofficial/dropzone-service/internal/types"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
)

// Library is the media library the finalizer hands complete files to.
type Library interface {
	ReceiveUpload(ctx context.Context, part media.FilePart, opts media.ReceiveOptions) (*media.Moved, error)
	RegisterAsset(ctx context.Context, req media.AssetRequest) (*media.Attachment, error)
	GenerateMetadata(ctx context.Context, a *media.Attachment) error
}

// Releaser frees the temp storage behind a finished or failed upload.
type Releaser interface {
	Abort(key chunkstore.Key) error
}

// FinalizedUpload is a fully assembled file waiting in the temp namespace.
type FinalizedUpload struct {
	Key      chunkstore.Key
	Path     string
	Filename string
	MimeType string
	Size     int64
	OwnerID  string
}

type Finalizer struct {
	library Library
	temp    Releaser
	events  events.Publisher
}

func NewFinalizer(library Library, temp Releaser, publisher events.Publisher) *Finalizer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Finalizer{library: library, temp: temp, events: publisher}
}

// Finalize stores, registers and describes the upload. The temp file is
// released on every path.
func (f *Finalizer) Finalize(ctx context.Context, up FinalizedUpload) Result {
	defer f.release(up.Key)

	url, err := f.finalize(ctx, up)
	if err != nil {
		return Failed(err)
	}
	return Stored(url)
}

func (f *Finalizer) finalize(ctx context.Context, up FinalizedUpload) (string, error) {
	file := types.UploadFileEvent{Name: up.Filename, Type: up.MimeType, Size: up.Size}
	f.events.PublishBeforeUploadFile(up.OwnerID, file)

	moved, err := f.library.ReceiveUpload(ctx, media.FilePart{
		Path:  up.Path,
		Name:  up.Filename,
		Type:  up.MimeType,
		Size:  up.Size,
		Field: "file",
	}, media.ReceiveOptions{TestForm: false})
	if err != nil {
		return "", err
	}

	stored := filepath.Base(moved.Path)
	f.events.PublishAfterUploadFile(up.OwnerID, types.UploadFileEvent{Name: stored, Type: moved.Type, Size: up.Size})

	att, err := f.library.RegisterAsset(ctx, media.AssetRequest{
		OwnerID:  up.OwnerID,
		Title:    strings.TrimSuffix(stored, filepath.Ext(stored)),
		Path:     moved.Path,
		URL:      moved.URL,
		MimeType: moved.Type,
		Status:   media.StatusInherit,
		ParentID: "0",
		Size:     up.Size,
	})
	if err != nil {
		os.Remove(moved.Path)
		return "", err
	}

	if err := f.library.GenerateMetadata(ctx, att); err != nil {
		slog.Warn("Failed to generate attachment metadata",
			slog.String("attachment_id", att.ID),
			slog.String("error", err.Error()))
	}

	f.events.PublishAttachmentInserted(up.OwnerID, types.AttachmentInsertedEvent{AttachmentID: att.ID, URL: att.URL})
	return att.URL, nil
}

func (f *Finalizer) release(key chunkstore.Key) {
	if err := f.temp.Abort(key); err != nil {
		slog.Error("Failed to release temp upload",
			slog.String("owner", key.Owner),
			slog.String("token", key.Token),
			slog.String("error", err.Error()))
	}
}
