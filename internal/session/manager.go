package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inamate/whiteboard/internal/asset"
	"github.com/inamate/whiteboard/internal/engine"
)

// Manager keeps one running session per open board.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store  engine.Persistence
	assets asset.Store
	opts   engine.Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(st engine.Persistence, assets asset.Store, opts engine.Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions: make(map[string]*Session),
		store:    st,
		assets:   assets,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Open returns the running session for board, starting one if needed.
func (m *Manager) Open(ctx context.Context, board string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[board]; ok {
		return s, nil
	}

	s, err := New(board, m.opts, m.store, m.assets)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.onEmpty = m.release
	m.sessions[board] = s

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(m.ctx)
	}()
	slog.Info("session started", "board", board, "session", s.ID)
	return s, nil
}

// release forgets s once its last client has gone.
func (m *Manager) release(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.Board] == s {
		delete(m.sessions, s.Board)
	}
	slog.Info("session stopped", "board", s.Board, "session", s.ID)
	return true
}

// Len returns the number of running sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop ends every session, saving boards with unsaved changes.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	m.mu.Lock()
	clear(m.sessions)
	m.mu.Unlock()
}

// IsOpen reports whether board has a running session.
func (m *Manager) IsOpen(board string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[board]
	return ok
}
