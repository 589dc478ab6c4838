package hints_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"hinter/internal/hints"
)

func readyArtifact(t *testing.T, dir string) *hints.Artifact {
	t.Helper()
	imagePath := filepath.Join(dir, "hint.png")
	textPath := filepath.Join(dir, "hint.txt")
	if err := os.WriteFile(imagePath, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := os.WriteFile(textPath, []byte("try the red door"), 0o644); err != nil {
		t.Fatalf("write text: %v", err)
	}

	artifact := hints.NewArtifact(hints.GameContext{
		System:     "SNES",
		Game:       "Super Metroid",
		Core:       "snes9x",
		CapturedAt: time.Date(2026, 8, 4, 10, 30, 0, 0, time.UTC),
	}, time.Date(2026, 8, 4, 10, 30, 0, 0, time.UTC))
	artifact.Text = "try the red door"
	artifact.ImagePath = imagePath
	artifact.TextPath = textPath
	artifact.Status = hints.StatusReady
	return artifact
}

func TestSlotLoadEmptyReturnsErrNoHint(t *testing.T) {
	slot := hints.NewSlot(t.TempDir())
	if _, err := slot.Load(); !errors.Is(err, hints.ErrNoHint) {
		t.Fatalf("expected ErrNoHint, got %v", err)
	}
}

func TestSlotReplaceThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	slot := hints.NewSlot(dir)
	artifact := readyArtifact(t, dir)

	if err := slot.Replace(artifact); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	loaded, err := slot.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != artifact.ID || loaded.Text != artifact.Text {
		t.Fatalf("loaded artifact mismatch: %+v", loaded)
	}
	if loaded.Game.System != "SNES" || loaded.Game.Game != "Super Metroid" {
		t.Fatalf("game context mismatch: %+v", loaded.Game)
	}
}

func TestSlotRejectsNonReadyArtifact(t *testing.T) {
	dir := t.TempDir()
	slot := hints.NewSlot(dir)
	artifact := readyArtifact(t, dir)
	artifact.Status = hints.StatusFailed

	if err := slot.Replace(artifact); err == nil {
		t.Fatal("expected error publishing failed artifact")
	}
}

func TestSlotReplaceKeepsPriorArtifactOnFailureUpstream(t *testing.T) {
	// A failed pipeline never calls Replace, so the prior artifact stays
	// viewable. Simulate by publishing once and loading twice.
	dir := t.TempDir()
	slot := hints.NewSlot(dir)
	artifact := readyArtifact(t, dir)
	if err := slot.Replace(artifact); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	first, err := slot.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := slot.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("slot changed without a replace: %q vs %q", first.ID, second.ID)
	}
}

func TestArchiveAppendCopiesAndRewritesPaths(t *testing.T) {
	dir := t.TempDir()
	archive := hints.NewArchive(filepath.Join(dir, "archive"))
	artifact := readyArtifact(t, dir)

	if err := archive.Append(artifact); err != nil {
		t.Fatalf("Append: %v", err)
	}

	wantDir := filepath.Join(archive.Root(), "SNES", "Super Metroid")
	if filepath.Dir(artifact.ImagePath) != wantDir {
		t.Fatalf("image archived to %q, want dir %q", artifact.ImagePath, wantDir)
	}
	data, err := os.ReadFile(artifact.ImagePath)
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("archived image content mismatch: %q err=%v", data, err)
	}
	if !strings.HasSuffix(artifact.TextPath, artifact.ID+".txt") {
		t.Fatalf("unexpected archived text path %q", artifact.TextPath)
	}
}

func TestArchiveCopyImageToGallery(t *testing.T) {
	dir := t.TempDir()
	archive := hints.NewArchive(filepath.Join(dir, "archive"))
	artifact := readyArtifact(t, dir)

	gallery := filepath.Join(dir, "screenshots")
	if err := os.MkdirAll(gallery, 0o755); err != nil {
		t.Fatalf("mkdir gallery: %v", err)
	}

	dest, err := archive.CopyImageTo(artifact, gallery)
	if err != nil {
		t.Fatalf("CopyImageTo: %v", err)
	}
	if filepath.Dir(dest) != gallery {
		t.Fatalf("copy landed at %q, want dir %q", dest, gallery)
	}
	name := filepath.Base(dest)
	if !strings.HasPrefix(name, "HINT_Super Metroid_") {
		t.Fatalf("unexpected gallery name %q", name)
	}
	if data, err := os.ReadFile(dest); err != nil || string(data) != "png-bytes" {
		t.Fatalf("gallery copy content mismatch: %q err=%v", data, err)
	}

	// A missing gallery directory is reported, not created.
	if _, err := archive.CopyImageTo(artifact, filepath.Join(dir, "nope")); err == nil {
		t.Fatal("expected error for missing gallery directory")
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SNES", "SNES"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"", "unknown"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
		// Truncation must not split a multi-byte rune.
		{strings.Repeat("ポ", 80), strings.Repeat("ポ", 50)},
	}
	for _, tc := range tests {
		got := hints.SafeName(tc.in)
		if got != tc.want {
			t.Fatalf("SafeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("SafeName(%q) produced invalid UTF-8 %q", tc.in, got)
		}
	}
}
