package hints

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archive stores an immutable copy of every generated hint, keyed by
// system/game/timestamp. The daemon only ever appends; nothing here is
// mutated or deleted.
type Archive struct {
	root string
}

// NewArchive creates an archive rooted at the given directory.
func NewArchive(root string) *Archive {
	return &Archive{root: root}
}

// Root returns the archive root directory.
func (a *Archive) Root() string {
	return a.root
}

// Append copies the artifact's rendered files into the archive and rewrites
// the artifact's paths to point at the archived copies.
func (a *Archive) Append(artifact *Artifact) error {
	dir := filepath.Join(a.root, SafeName(artifact.Game.System), SafeName(artifact.Game.Game))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	if artifact.ImagePath != "" {
		dest := filepath.Join(dir, artifact.ID+filepath.Ext(artifact.ImagePath))
		if err := copyFile(artifact.ImagePath, dest); err != nil {
			return fmt.Errorf("archive hint image: %w", err)
		}
		artifact.ImagePath = dest
	}
	if artifact.TextPath != "" {
		dest := filepath.Join(dir, artifact.ID+".txt")
		if err := copyFile(artifact.TextPath, dest); err != nil {
			return fmt.Errorf("archive hint text: %w", err)
		}
		artifact.TextPath = dest
	}
	return nil
}

// CopyImageTo places a copy of the artifact image into dir using a
// gallery-friendly name. Used to drop hint backups into the frontend's
// screenshot folder; failures there are non-fatal to the pipeline.
func (a *Archive) CopyImageTo(artifact *Artifact, dir string) (string, error) {
	if artifact.ImagePath == "" {
		return "", nil
	}
	if _, err := os.Stat(dir); err != nil {
		return "", err
	}
	name := fmt.Sprintf("HINT_%s_%s%s", SafeName(artifact.Game.Game), artifact.ID, filepath.Ext(artifact.ImagePath))
	dest := filepath.Join(dir, name)
	if err := copyFile(artifact.ImagePath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
