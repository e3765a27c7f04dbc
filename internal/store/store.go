// Package store persists project files by name. Every backend keeps the
// bytes opaque; the editor owns the format.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound    = errors.New("project not found")
	ErrInvalidName = errors.New("invalid project name")
)

// Store is the persistence collaborator of the editor.
type Store interface {
	WriteBytes(ctx context.Context, name string, data []byte) error
	ReadBytes(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Entry, error)
}

// Entry describes the latest saved version of a project.
type Entry struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateName accepts 1-64 letters, digits, '-' and '_'.
func ValidateName(name string) error {
	if name == "" || len(name) > 64 {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}
