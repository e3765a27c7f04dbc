package asset

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/inamate/whiteboard/internal/typeid"
)

var ErrNotFound = errors.New("asset not found")

// Asset describes a stored image.
type Asset struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
}

// Store keeps decoded images by asset id.
type Store interface {
	Put(name string, img image.Image) (Asset, error)
	Image(id string) (image.Image, bool)
	Delete(id string) error
}

// Dir stores assets as PNG files in a directory.
type Dir struct {
	dir string
}

// NewDir creates a store rooted at dir, creating the directory if needed.
func NewDir(dir string) (*Dir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Dir{dir: dir}, nil
}

func (d *Dir) path(id string) string {
	return filepath.Join(d.dir, id+".png")
}

// Put encodes img as PNG under a new asset id.
func (d *Dir) Put(name string, img image.Image) (Asset, error) {
	id := typeid.NewAssetID()
	p := d.path(id)

	out, err := os.Create(p)
	if err != nil {
		return Asset{}, fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(p)
		return Asset{}, fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(p)
		return Asset{}, fmt.Errorf("close asset file: %w", err)
	}

	b := img.Bounds()
	return Asset{
		ID:     id,
		URL:    "/assets/" + id + ".png",
		Width:  b.Dx(),
		Height: b.Dy(),
		Type:   "png",
		Name:   name,
	}, nil
}

// Image loads a stored asset. Unknown or unreadable ids report false.
func (d *Dir) Image(id string) (image.Image, bool) {
	if typeid.Validate(id, typeid.PrefixAsset) != nil {
		return nil, false
	}
	f, err := os.Open(d.path(id))
	if err != nil {
		return nil, false
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		slog.Warn("decode stored asset", "id", id, "error", err)
		return nil, false
	}
	return img, true
}

// Delete removes an asset file from disk.
func (d *Dir) Delete(id string) error {
	if err := os.Remove(d.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

// Memory keeps assets in memory. It backs the browser build and tests.
type Memory struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

func NewMemory() *Memory {
	return &Memory{images: make(map[string]image.Image)}
}

func (m *Memory) Put(name string, img image.Image) (Asset, error) {
	id := typeid.NewAssetID()
	m.mu.Lock()
	m.images[id] = img
	m.mu.Unlock()
	b := img.Bounds()
	return Asset{ID: id, Width: b.Dx(), Height: b.Dy(), Type: "png", Name: name}, nil
}

func (m *Memory) Image(id string) (image.Image, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[id]
	return img, ok
}

func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	delete(m.images, id)
	return nil
}
