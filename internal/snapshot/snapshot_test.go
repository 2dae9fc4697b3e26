package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"orbbot/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type payload struct {
	Day   string  `json:"day"`
	Count int     `json:"count"`
	Pnl   float64 `json:"pnl"`
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewStore(path, nopLogger{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, path
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s, _ := newTestStore(t)

	want := payload{Day: "2025-01-02", Count: 3, Pnl: -42.5}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var got payload
	found, err := s.Load(&got)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("Load reported no snapshot after Save")
	}
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestSaveReplacesAtomically(t *testing.T) {
	s, path := newTestStore(t)

	if err := s.Save(payload{Day: "2025-01-02"}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Save(payload{Day: "2025-01-03"}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	var got payload
	if _, err := s.Load(&got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Day != "2025-01-03" {
		t.Fatalf("Day = %s, want the newer snapshot", got.Day)
	}

	// No temp files may be left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory has %d entries, want only the snapshot", len(entries))
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := newTestStore(t)
	var got payload
	found, err := s.Load(&got)
	if err != nil {
		t.Fatalf("Load of missing file must not error, got %v", err)
	}
	if found {
		t.Fatal("Load reported a snapshot that does not exist")
	}
}

func TestLoadCorruptFileIsStateCorruption(t *testing.T) {
	s, path := newTestStore(t)
	if err := os.WriteFile(path, []byte("{truncated"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var got payload
	_, err := s.Load(&got)
	if !errors.Is(err, ports.ErrStateCorruption) {
		t.Fatalf("Load error = %v, want ErrStateCorruption", err)
	}
}
