package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"karolbroda.com/scrollreel/internal/config"
	"karolbroda.com/scrollreel/internal/scene"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(-time.Second); got != "0:00" {
		t.Fatalf("expected 0:00, got %q", got)
	}
	if got := formatDuration(3*time.Minute + 7*time.Second); got != "3:07" {
		t.Fatalf("expected 3:07, got %q", got)
	}
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SCROLLREEL_DAMPING", "0.2")
	t.Setenv("SCROLLREEL_EPSILON", "")

	if err := rootCmd.ParseFlags([]string{"--epsilon", "0.5"}); err != nil {
		t.Fatal(err)
	}

	cfg := loadConfig(rootCmd, []string{"reel"})
	if cfg.Root != "reel" {
		t.Fatalf("expected positional root, got %q", cfg.Root)
	}
	if cfg.Damping != 0.2 {
		t.Fatalf("expected env damping, got %v", cfg.Damping)
	}
	if cfg.Epsilon != 0.5 {
		t.Fatalf("expected flag epsilon, got %v", cfg.Epsilon)
	}
}

func writeRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	for _, dir := range []string{"a-reel", "b-notes"} {
		if err := os.Mkdir(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"001.png", "002.png", "003.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(root, "a-reel", name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestMeasureWithoutDecoding(t *testing.T) {
	cfg := &config.Config{Root: writeRoot(t), PinnedMultiple: 2}

	layout, err := measure(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if layout.Len() != 2 {
		t.Fatalf("expected 2 scenes, got %d", layout.Len())
	}

	reel := findScene(layout, "a-reel")
	if reel == nil || reel.Kind != scene.Pinned {
		t.Fatalf("expected a pinned first scene, got %+v", reel)
	}
	if reel.FrameCount() != 3 {
		t.Fatalf("expected 3 frames, got %d", reel.FrameCount())
	}
	if want := 2 * float64(viewHeight-1); reel.Extent != want {
		t.Fatalf("expected extent %v, got %v", want, reel.Extent)
	}
	if len(reel.Bindings) != 1 || reel.Bindings[0].Segment.RangeEnd != 2 {
		t.Fatalf("expected default frame binding, got %+v", reel.Bindings)
	}

	if findScene(layout, "1") != layout.Scene(1) {
		t.Fatal("expected scene lookup by index")
	}
	if findScene(layout, "missing") != nil {
		t.Fatal("expected nil for an unknown scene")
	}
}
