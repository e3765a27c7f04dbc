package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/whiteboard/internal/engine"
	"github.com/inamate/whiteboard/internal/snap"
)

type Config struct {
	Port              int    `envconfig:"PORT" default:"8080"`
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	SQLitePath        string `envconfig:"SQLITE_PATH" default:"./data/whiteboard.db"`
	ProjectDir        string `envconfig:"PROJECT_DIR" default:"./data/projects"`
	AssetDir          string `envconfig:"ASSET_DIR" default:"./data/assets"`
	JWTSecret         string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	OwnerPasswordHash string `envconfig:"OWNER_PASSWORD_HASH"`
	AllowedOrigins    string `envconfig:"ALLOWED_ORIGINS" default:"localhost:5173,localhost:3000"`

	Editor Editor `envconfig:"WHITEBOARD"`
}

// Editor holds the tunables of the editing engine.
type Editor struct {
	HistoryMax        int     `envconfig:"HISTORY_MAX" default:"50"`
	GridSize          float64 `envconfig:"GRID_SIZE" default:"20"`
	GridEnabled       bool    `envconfig:"GRID_ENABLED" default:"true"`
	SnapThreshold     float64 `envconfig:"SNAP_THRESHOLD" default:"8"`
	MinShapeSize      float64 `envconfig:"MIN_SHAPE_SIZE" default:"5"`
	SimplifyTolerance float64 `envconfig:"SIMPLIFY_TOLERANCE" default:"2.0"`
	AutoRefine        bool    `envconfig:"AUTO_REFINE" default:"true"`
	CanvasWidth       float64 `envconfig:"CANVAS_WIDTH" default:"1280"`
	CanvasHeight      float64 `envconfig:"CANVAS_HEIGHT" default:"720"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into websocket origin patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// EditorOptions converts the editor section into engine options.
func (c *Config) EditorOptions() engine.Options {
	opts := engine.DefaultOptions()
	e := c.Editor
	opts.HistoryMax = e.HistoryMax
	opts.Snap = snap.Options{
		GridEnabled: e.GridEnabled,
		GridSize:    e.GridSize,
		Threshold:   e.SnapThreshold,
	}
	opts.Tool.MinSize = e.MinShapeSize
	opts.Tool.SimplifyTolerance = e.SimplifyTolerance
	opts.Tool.AutoRefine = e.AutoRefine
	opts.CanvasWidth = e.CanvasWidth
	opts.CanvasHeight = e.CanvasHeight
	return opts
}
