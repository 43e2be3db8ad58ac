// Package media is the local media library: it moves finished uploads into
// the public uploads directory, registers attachments and derives image
// renditions.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/princekumarofficial/dropzone-service/internal/apperror"
	"github.com/princekumarofficial/dropzone-service/internal/chunkstore"
	"github.com/princekumarofficial/dropzone-service/internal/config"
	"github.com/princekumarofficial/dropzone-service/internal/policy"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
)

// AttachmentStore persists attachment records.
type AttachmentStore interface {
	InsertAttachment(ctx context.Context, a *media.Attachment) error
	UpdateAttachmentMetadata(ctx context.Context, id string, meta media.AttachmentMetadata) error
}

type Service struct {
	uploadsDir string
	baseURL    string
	policy     *policy.Policy
	store      AttachmentStore
	sizes      []ImageSizeSpec
	now        func() time.Time
}

// NewService creates the media library rooted at cfg.UploadsDir.
func NewService(cfg config.Upload, pol *policy.Policy, store AttachmentStore) (*Service, error) {
	dir, err := filepath.Abs(cfg.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}

	return &Service{
		uploadsDir: dir,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		policy:     pol,
		store:      store,
		sizes:      DefaultImageSizes,
		now:        time.Now,
	}, nil
}

// UploadsDir returns the absolute public uploads root.
func (s *Service) UploadsDir() string {
	return s.uploadsDir
}

// ReceiveUpload validates a received file and moves it into the uploads
// directory under YYYY/MM with a unique name.
func (s *Service) ReceiveUpload(ctx context.Context, part media.FilePart, opts media.ReceiveOptions) (*media.Moved, error) {
	if opts.TestForm && part.Field != "file" {
		return nil, apperror.MissingFile(fmt.Errorf("unexpected form field %q", part.Field))
	}

	info, err := os.Stat(part.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperror.MissingFile(err)
	}
	if err != nil {
		return nil, apperror.StorageIO(err)
	}
	if info.Size() == 0 {
		return nil, apperror.New(apperror.KindMissingFile, "File is empty. Please upload something more substantial.", nil)
	}

	name := chunkstore.SanitizeFilename(part.Name)
	if d := s.policy.Classify(name); !d.Allowed() {
		return nil, apperror.DisallowedExtension(errors.New(d.Reason))
	}

	name, mimeType, err := s.checkType(part.Path, name)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, apperror.StorageIO(err)
	}

	subdir := s.now().Format("2006/01")
	dir := filepath.Join(s.uploadsDir, filepath.FromSlash(subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.StorageIO(err)
	}

	dest, err := reserveUniqueName(dir, name)
	if err != nil {
		return nil, apperror.StorageIO(err)
	}

	if err := moveFile(part.Path, dest); err != nil {
		os.Remove(dest)
		return nil, apperror.StorageIO(fmt.Errorf("move upload to %s: %w", subdir, err))
	}
	os.Chmod(dest, 0o644)

	return &media.Moved{
		Path: dest,
		URL:  s.baseURL + "/" + subdir + "/" + url.PathEscape(filepath.Base(dest)),
		Type: mimeType,
	}, nil
}

// Content types refused whatever the extension says.
var executableContent = []string{
	"text/x-php",
	"text/html",
	"text/x-shellscript",
	"application/x-executable",
	"application/x-elf",
	"application/x-msdownload",
	"application/vnd.microsoft.portable-executable",
	"application/x-mach-binary",
}

// checkType sniffs the file content. Images whose content disagrees with the
// extension are renamed to the real extension; non-images posing as images
// and executables are refused. The MIME type comes from the host table for
// the final extension.
func (s *Service) checkType(path, name string) (string, string, error) {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", apperror.StorageIO(err)
	}

	for _, bad := range executableContent {
		if detected.Is(bad) {
			return "", "", apperror.DisallowedExtension(fmt.Errorf("content sniffed as %s", detected.String()))
		}
	}

	ext := policy.Extension(name)
	extMime, _ := s.policy.MimeType(ext)
	sniffed := strings.TrimSpace(strings.Split(detected.String(), ";")[0])

	if strings.HasPrefix(extMime, "image/") {
		if !strings.HasPrefix(sniffed, "image/") {
			return "", "", apperror.New(apperror.KindDisallowedExtension, "File is not a valid image.", fmt.Errorf("content sniffed as %s", sniffed))
		}
		if detected.Is(extMime) {
			return name, extMime, nil
		}

		realExt := strings.TrimPrefix(detected.Extension(), ".")
		realMime, ok := s.policy.MimeType(realExt)
		if realExt == "" || !ok || !s.policy.IsAllowedExtension(realExt) {
			return "", "", apperror.DisallowedExtension(fmt.Errorf("image content %s not allowed", sniffed))
		}
		return strings.TrimSuffix(name, filepath.Ext(name)) + "." + realExt, realMime, nil
	}

	if extMime == "" || extMime == "application/octet-stream" {
		return name, sniffed, nil
	}
	return name, extMime, nil
}

// reserveUniqueName creates an empty placeholder at the first free
// name, name-1.ext, name-2.ext, ...
func reserveUniqueName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 0; i < 10000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		f.Close()
		return path, nil
	}

	return "", fmt.Errorf("no free filename for %s", name)
}

// moveFile renames src over dst, copying when they sit on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}

// RegisterAsset stores the attachment record for a moved file.
func (s *Service) RegisterAsset(ctx context.Context, req media.AssetRequest) (*media.Attachment, error) {
	size := req.Size
	if info, err := os.Stat(req.Path); err == nil {
		size = info.Size()
	}

	parent := req.ParentID
	if parent == "" {
		parent = "0"
	}

	a := &media.Attachment{
		ID:       uuid.NewString(),
		OwnerID:  req.OwnerID,
		Title:    req.Title,
		FilePath: req.Path,
		URL:      req.URL,
		MimeType: req.MimeType,
		Status:   req.Status,
		ParentID: parent,
		Size:     size,
		Metadata: media.AttachmentMetadata{File: s.relativePath(req.Path), FileSize: size},
	}

	if err := s.store.InsertAttachment(ctx, a); err != nil {
		return nil, apperror.StorageIO(fmt.Errorf("insert attachment: %w", err))
	}
	return a, nil
}

func (s *Service) relativePath(path string) string {
	rel, err := filepath.Rel(s.uploadsDir, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
