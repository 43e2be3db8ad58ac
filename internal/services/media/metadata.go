package media

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
	_ "golang.org/x/image/webp"
)

// ImageSizeSpec describes one rendition generated for image uploads.
type ImageSizeSpec struct {
	Name   string
	Width  int
	Height int
	Crop   bool
}

var DefaultImageSizes = []ImageSizeSpec{
	{Name: "thumbnail", Width: 150, Height: 150, Crop: true},
	{Name: "medium", Width: 300, Height: 300},
}

var decodableImages = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// GenerateMetadata records file size and, for images, dimensions and
// downscaled renditions stored next to the original. Renditions are never
// larger than the source and never replace an existing file.
func (s *Service) GenerateMetadata(ctx context.Context, a *media.Attachment) error {
	meta := a.Metadata
	meta.File = s.relativePath(a.FilePath)

	info, err := os.Stat(a.FilePath)
	if err != nil {
		return fmt.Errorf("stat attachment file: %w", err)
	}
	meta.FileSize = info.Size()

	var genErr error
	if decodableImages[a.MimeType] {
		genErr = s.generateSizes(ctx, a.FilePath, &meta)
	}

	a.Metadata = meta
	if err := s.store.UpdateAttachmentMetadata(ctx, a.ID, meta); err != nil {
		return fmt.Errorf("update attachment metadata: %w", err)
	}
	return genErr
}

func (s *Service) generateSizes(ctx context.Context, path string, meta *media.AttachmentMetadata) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	meta.Width, meta.Height = bounds.Dx(), bounds.Dy()

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	outExt, outMime := ext, mimeForExt(ext)
	if _, err := imaging.FormatFromFilename(path); err != nil {
		outExt, outMime = ".jpg", "image/jpeg"
	}

	for _, size := range s.sizes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if meta.Width <= size.Width && meta.Height <= size.Height {
			continue
		}

		var resized image.Image
		if size.Crop {
			resized = imaging.Fill(img, min(meta.Width, size.Width), min(meta.Height, size.Height), imaging.Center, imaging.Lanczos)
		} else {
			resized = imaging.Fit(img, size.Width, size.Height, imaging.Lanczos)
		}

		rb := resized.Bounds()
		dest, err := reserveUniqueName(dir, fmt.Sprintf("%s-%dx%d%s", base, rb.Dx(), rb.Dy(), outExt))
		if err != nil {
			return fmt.Errorf("reserve %s rendition: %w", size.Name, err)
		}
		if err := imaging.Save(resized, dest, imaging.JPEGQuality(82)); err != nil {
			os.Remove(dest)
			return fmt.Errorf("save %s rendition: %w", size.Name, err)
		}
		fileName := filepath.Base(dest)

		if meta.Sizes == nil {
			meta.Sizes = make(map[string]media.ImageSize)
		}
		meta.Sizes[size.Name] = media.ImageSize{
			File:     fileName,
			Width:    rb.Dx(),
			Height:   rb.Dy(),
			MimeType: outMime,
		}
	}

	return nil
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".jpe":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	return "application/octet-stream"
}
