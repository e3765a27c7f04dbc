package config

import "testing"

func TestLoadEditorOptions(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", " example.com , ,localhost:5173")
	t.Setenv("WHITEBOARD_HISTORY_MAX", "12")
	t.Setenv("WHITEBOARD_GRID_ENABLED", "false")
	t.Setenv("WHITEBOARD_SNAP_THRESHOLD", "4")
	t.Setenv("WHITEBOARD_SIMPLIFY_TOLERANCE", "3.5")
	t.Setenv("WHITEBOARD_CANVAS_WIDTH", "800")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d", cfg.Port)
	}
	if got := cfg.Origins(); len(got) != 2 || got[0] != "example.com" || got[1] != "localhost:5173" {
		t.Errorf("origins = %q", got)
	}

	opts := cfg.EditorOptions()
	if opts.HistoryMax != 12 {
		t.Errorf("history max = %d", opts.HistoryMax)
	}
	if opts.Snap.GridEnabled || opts.Snap.GridSize != 20 || opts.Snap.Threshold != 4 {
		t.Errorf("snap = %+v", opts.Snap)
	}
	if opts.Tool.SimplifyTolerance != 3.5 || opts.Tool.MinSize != 5 || !opts.Tool.AutoRefine {
		t.Errorf("tool = %+v", opts.Tool)
	}
	if opts.CanvasWidth != 800 || opts.CanvasHeight != 720 {
		t.Errorf("canvas = %vx%v", opts.CanvasWidth, opts.CanvasHeight)
	}
}

func TestLoadIgnoresUnprefixedEditorNames(t *testing.T) {
	t.Setenv("HISTORY_MAX", "3")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Editor.HistoryMax != 50 {
		t.Errorf("history max = %d, want default 50", cfg.Editor.HistoryMax)
	}
}
