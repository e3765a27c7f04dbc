// Package history implements snapshot-based undo and redo over the scene.
package history

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/whiteboard/internal/document"
)

// DefaultMax is the number of snapshots kept when no cap is configured.
const DefaultMax = 50

var ErrEmpty = errors.New("history is empty")

// State is the part of the editor history can capture and restore.
type State interface {
	Capture() *document.Project
	Restore(p *document.Project) error
}

// Snapshot is one immutable capture of the scene, stored in project format.
type Snapshot struct {
	Seq  uint64
	Data []byte
}

// Engine keeps a bounded, linear list of snapshots and a cursor into it.
// The snapshot at the cursor always equals the live scene after a commit,
// undo or redo.
type Engine struct {
	state  State
	max    int
	stack  []Snapshot
	cursor int
	seq    uint64
}

// New creates an engine with the current state as its baseline.
func New(state State, max int) (*Engine, error) {
	if max < 1 {
		max = DefaultMax
	}
	e := &Engine{state: state, max: max}
	if err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset discards every snapshot and records the current state as the only one.
func (e *Engine) Reset() error {
	snap, err := e.capture()
	if err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	e.stack = []Snapshot{snap}
	e.cursor = 0
	return nil
}

func (e *Engine) capture() (Snapshot, error) {
	data, err := document.Encode(e.state.Capture())
	if err != nil {
		return Snapshot{}, err
	}
	e.seq++
	return Snapshot{Seq: e.seq, Data: data}, nil
}

// Commit records the current state. Snapshots after the cursor are
// discarded, and the oldest snapshot is evicted once the cap is exceeded.
// Identical consecutive states are still recorded.
func (e *Engine) Commit() error {
	snap, err := e.capture()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	e.stack = append(e.stack[:e.cursor+1], snap)
	e.cursor++
	if over := len(e.stack) - e.max; over > 0 {
		e.stack = append([]Snapshot(nil), e.stack[over:]...)
		e.cursor -= over
	}
	return nil
}

// Undo restores the previous snapshot. It reports false when there is none.
func (e *Engine) Undo() (bool, error) {
	if !e.CanUndo() {
		return false, nil
	}
	if err := e.restore(e.cursor - 1); err != nil {
		return false, fmt.Errorf("undo: %w", err)
	}
	return true, nil
}

// Redo re-applies the next snapshot. It reports false when there is none.
func (e *Engine) Redo() (bool, error) {
	if !e.CanRedo() {
		return false, nil
	}
	if err := e.restore(e.cursor + 1); err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	return true, nil
}

func (e *Engine) restore(i int) error {
	p, err := document.Decode(e.stack[i].Data)
	if err != nil {
		return err
	}
	if err := e.state.Restore(p); err != nil {
		return err
	}
	slog.Debug("history restore", "seq", e.stack[i].Seq, "cursor", i)
	e.cursor = i
	return nil
}

func (e *Engine) CanUndo() bool { return e.cursor > 0 }
func (e *Engine) CanRedo() bool { return e.cursor < len(e.stack)-1 }

// Len returns the number of stored snapshots.
func (e *Engine) Len() int { return len(e.stack) }

// Cursor returns the index of the snapshot matching the live scene.
func (e *Engine) Cursor() int { return e.cursor }

// Max returns the snapshot cap.
func (e *Engine) Max() int { return e.max }

// Current returns the snapshot at the cursor.
func (e *Engine) Current() (Snapshot, error) {
	if len(e.stack) == 0 {
		return Snapshot{}, ErrEmpty
	}
	return e.stack[e.cursor], nil
}
