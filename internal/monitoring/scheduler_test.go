package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweeper_RemovesOnlyStaleExports(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-2 * time.Hour)

	files := map[string]time.Time{
		"userexport-stale.csv": old,
		"userexport-fresh.csv": time.Now(),
		"unrelated.csv":        old,
	}
	for name, mtime := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("user_name\n"), 0o600); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("Chtimes() failed: %v", err)
		}
	}

	s, err := NewSweeper(dir, "@every 1h", time.Hour)
	if err != nil {
		t.Fatalf("NewSweeper() failed: %v", err)
	}
	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep() removed %d files, want 1", n)
	}

	for name, wantExists := range map[string]bool{
		"userexport-stale.csv": false,
		"userexport-fresh.csv": true,
		"unrelated.csv":        true,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != wantExists {
			t.Errorf("%s exists = %v, want %v", name, exists, wantExists)
		}
	}
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	if _, err := NewSweeper(t.TempDir(), "not a schedule", time.Hour); err == nil {
		t.Error("expected invalid schedule to fail")
	}
}

func TestSweeper_StartStop(t *testing.T) {
	s, err := NewSweeper(t.TempDir(), "@every 1h", time.Hour)
	if err != nil {
		t.Fatalf("NewSweeper() failed: %v", err)
	}
	s.Start()
	s.Stop()
}
