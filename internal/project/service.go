// Package project serves saved boards over HTTP.
package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/store"
)

var ErrBoardOpen = errors.New("board is open in a live session")

// OpenChecker reports whether a board is being edited live.
type OpenChecker interface {
	IsOpen(board string) bool
}

type Service struct {
	store    store.Store
	sessions OpenChecker
}

// NewService serves boards from st. sessions may be nil.
func NewService(st store.Store, sessions OpenChecker) *Service {
	return &Service{store: st, sessions: sessions}
}

func (s *Service) List(ctx context.Context) ([]store.Entry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	return entries, nil
}

// Get loads and validates a board.
func (s *Service) Get(ctx context.Context, name string) (*document.Project, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.store.ReadBytes(ctx, name)
	if err != nil {
		return nil, err
	}
	return document.Decode(data)
}

// Put replaces a board with data after validating it. Boards open in a
// live session are refused, since the session would overwrite them.
func (s *Service) Put(ctx context.Context, name string, data []byte) (*document.Project, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	if s.sessions != nil && s.sessions.IsOpen(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrBoardOpen)
	}
	p, err := document.Decode(data)
	if err != nil {
		return nil, err
	}
	p.Timestamp = time.Now().UTC().Format(time.RFC3339)
	out, err := document.Encode(p)
	if err != nil {
		return nil, err
	}
	if err := s.store.WriteBytes(ctx, name, out); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	return p, nil
}
