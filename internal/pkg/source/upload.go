// Package source produces decoded images from uploads and from the remote
// meme catalog.
package source

import (
	"bytes"
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ds124wfegd/memeditor/internal/entity"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	MaxUploadBytes = 5 * 1024 * 1024
	// MaxImagePixels bounds width*height of a decoded image; a small
	// compressed file can declare dimensions that would not fit in memory.
	MaxImagePixels = 40_000_000
)

// CheckSize rejects files larger than limit. A file of exactly limit bytes is
// accepted.
func CheckSize(size, limit int64) error {
	if size > limit {
		return fmt.Errorf("%w: %d bytes, limit is %d", entity.ErrFileTooLarge, size, limit)
	}
	return nil
}

// Decode reads at most limit bytes from r and decodes them. GIFs yield their
// first frame.
func Decode(r io.Reader, limit int64) (image.Image, string, error) {
	return DecodeBounded(r, limit, MaxImagePixels)
}

// DecodeBounded is Decode with an explicit pixel budget. The header is
// checked before any pixel data is decoded; maxPixels <= 0 disables the check.
func DecodeBounded(r io.Reader, limit, maxPixels int64) (image.Image, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read: %v", entity.ErrImageDecode, err)
	}
	if err := CheckSize(int64(len(data)), limit); err != nil {
		return nil, "", err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	if err := CheckDimensions(cfg.Width, cfg.Height, maxPixels); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	return img, format, nil
}

// CheckDimensions rejects empty images and images above maxPixels.
func CheckDimensions(width, height int, maxPixels int64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", entity.ErrImageDecode, width, height)
	}
	if maxPixels > 0 && int64(width)*int64(height) > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", entity.ErrImageDecode, width, height, maxPixels)
	}
	return nil
}
