package engine

import (
	"context"
	"log/slog"

	"github.com/inamate/whiteboard/internal/history"
	"github.com/inamate/whiteboard/internal/snap"
	"github.com/inamate/whiteboard/internal/tool"
)

// Options are the tunables of an editor.
type Options struct {
	HistoryMax int
	Snap       snap.Options
	Tool       tool.Options
	// CanvasWidth and CanvasHeight size inserted images and raster exports.
	CanvasWidth  float64
	CanvasHeight float64
}

func DefaultOptions() Options {
	return Options{
		HistoryMax:   history.DefaultMax,
		Snap:         snap.DefaultOptions(),
		Tool:         tool.DefaultOptions(),
		CanvasWidth:  1280,
		CanvasHeight: 720,
	}
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier shows messages to the user. Calls are fire-and-forget.
type Notifier interface {
	Notify(message string, severity Severity)
}

// SlogNotifier writes notifications to the default logger.
type SlogNotifier struct{}

func (SlogNotifier) Notify(message string, severity Severity) {
	level := slog.LevelInfo
	switch severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	case SeverityInfo:
	}
	slog.Log(context.Background(), level, message, "source", "editor")
}

// Surface is the render surface the editor asks to repaint after a change.
type Surface interface {
	Redraw()
}

// Persistence reads and writes project files by name.
type Persistence interface {
	WriteBytes(ctx context.Context, name string, data []byte) error
	ReadBytes(ctx context.Context, name string) ([]byte, error)
}

type nopSurface struct{}

func (nopSurface) Redraw() {}
