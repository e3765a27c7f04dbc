// Package asset decodes, stores and serves the raster images placed on a board.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels bounds the decoded size of a single image.
const MaxPixels = 64 << 20

var (
	ErrEmptyImage = errors.New("image has no pixels")
	ErrTooLarge   = errors.New("image too large")
)

// ImageDecodeError reports an image that could not be decoded. Only the
// insertion of that image fails.
type ImageDecodeError struct {
	Name string
	Err  error
}

func (e *ImageDecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("decode image: %v", e.Err)
	}
	return fmt.Sprintf("decode image %q: %v", e.Name, e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// Decode reads an image in any registered format (PNG, JPEG, GIF, WebP,
// BMP, TIFF). The header is checked before the pixels are decoded.
func Decode(name string, r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", &ImageDecodeError{Name: name, Err: err}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageDecodeError{Name: name, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", &ImageDecodeError{Name: name, Err: ErrEmptyImage}
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, "", &ImageDecodeError{Name: name, Err: fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooLarge)}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageDecodeError{Name: name, Err: err}
	}
	return img, format, nil
}
