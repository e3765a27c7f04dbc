package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

// exercise runs the shared contract against a backend.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.ReadBytes(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("read missing: got %v, want ErrNotFound", err)
	}
	if err := s.WriteBytes(ctx, "../escape", []byte("{}")); !errors.Is(err, ErrInvalidName) {
		t.Errorf("write bad name: got %v, want ErrInvalidName", err)
	}

	if err := s.WriteBytes(ctx, "board-1", []byte(`{"version":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteBytes(ctx, "board-1", []byte(`{"version":2}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteBytes(ctx, "another", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	data, err := s.ReadBytes(ctx, "board-1")
	if err != nil {
		t.Fatal(err)
	}
	// jsonb normalizes whitespace.
	if strings.ReplaceAll(string(data), " ", "") != `{"version":2}` {
		t.Errorf("read = %s, want the latest write", data)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "another" || entries[1].Name != "board-1" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestFile(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exercise(t, s)

	entries, _ := s.List(context.Background())
	for _, e := range entries {
		if e.Name == "board-1" && e.Version != 2 {
			t.Errorf("board-1 version = %d, want 2", e.Version)
		}
	}
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS board_snapshots`); err != nil {
		t.Fatal(err)
	}
	s, err := NewPostgres(ctx, pool)
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"a", "Board_2", "x-y"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "a/b", "a.b", "ünï"} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
}
