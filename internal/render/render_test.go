package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hinter/internal/config"
	"hinter/internal/hints"
	"hinter/internal/logging"
	"hinter/internal/render"
)

type fakeExecutor struct {
	err    error
	binary string
	args   []string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string) error {
	f.binary = binary
	f.args = args
	if f.err != nil {
		return f.err
	}
	// Simulate convert producing the output file (last argument).
	return os.WriteFile(args[len(args)-1], []byte("png"), 0o644)
}

func newArtifact() *hints.Artifact {
	now := time.Date(2026, 8, 4, 15, 0, 0, 0, time.UTC)
	artifact := hints.NewArtifact(hints.GameContext{System: "SNES", Game: "Terranigma", CapturedAt: now}, now)
	artifact.Text = "Climb the tower and pull the lever at the top."
	return artifact
}

func TestRenderWritesImageAndText(t *testing.T) {
	cfg := config.Default()
	exec := &fakeExecutor{}
	r := render.New(&cfg, logging.NewNop(), render.WithExecutor(exec))

	dir := t.TempDir()
	artifact := newArtifact()
	if err := r.Render(context.Background(), artifact, dir); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if artifact.ImagePath == "" {
		t.Fatal("expected image path to be set")
	}
	if exec.binary != "convert" {
		t.Fatalf("unexpected binary %q", exec.binary)
	}

	data, err := os.ReadFile(artifact.TextPath)
	if err != nil {
		t.Fatalf("read text artifact: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "SNES - Terranigma") {
		t.Fatalf("text artifact missing header: %q", body)
	}
	if !strings.Contains(body, artifact.Text) {
		t.Fatalf("text artifact missing hint body: %q", body)
	}
}

func TestRenderFallsBackToTextOnly(t *testing.T) {
	cfg := config.Default()
	exec := &fakeExecutor{err: errors.New("convert: not authorized")}
	r := render.New(&cfg, logging.NewNop(), render.WithExecutor(exec))

	dir := t.TempDir()
	artifact := newArtifact()
	if err := r.Render(context.Background(), artifact, dir); err != nil {
		t.Fatalf("Render should not fail when image rendering fails: %v", err)
	}
	if artifact.ImagePath != "" {
		t.Fatalf("expected no image path, got %q", artifact.ImagePath)
	}
	if artifact.TextPath == "" {
		t.Fatal("expected text artifact to survive render failure")
	}
	if _, err := os.Stat(filepath.Join(dir, artifact.ID+".txt")); err != nil {
		t.Fatalf("text artifact missing: %v", err)
	}
}
