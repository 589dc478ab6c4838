// Package render turns hint text into the displayable artifact files.
//
// The primary path shells out to ImageMagick. When that fails for any reason
// the renderer degrades to a text-only artifact; a presentation failure must
// never lose the hint content, so the companion text file is always written
// first.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"hinter/internal/config"
	"hinter/internal/hints"
	"hinter/internal/logging"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", binary, err, string(out))
	}
	return nil
}

// Option configures the renderer.
type Option func(*Renderer)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Renderer) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// Renderer produces hint artifact files in a working directory.
type Renderer struct {
	binary   string
	width    int
	height   int
	fontSize int
	bgColor  string
	fgColor  string
	logger   *slog.Logger
	exec     Executor
}

// New constructs a renderer from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		binary:   cfg.ConvertBinary(),
		width:    cfg.Hints.RenderWidth,
		height:   cfg.Hints.RenderHeight,
		fontSize: cfg.Hints.RenderFontSize,
		bgColor:  cfg.Hints.RenderBGColor,
		fgColor:  cfg.Hints.RenderFGColor,
		logger:   logging.NewComponentLogger(logger, "render"),
		exec:     execRunner{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the artifact files for the given hint into dir and fills in
// the artifact's TextPath and, when image rendering succeeds, ImagePath.
func (r *Renderer) Render(ctx context.Context, artifact *hints.Artifact, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create render directory: %w", err)
	}

	header := fmt.Sprintf("%s - %s", artifact.Game.System, artifact.Game.Game)

	// Text first: the pause-message fallback and the archive always get the
	// full content even if every image path below fails.
	textPath := filepath.Join(dir, artifact.ID+".txt")
	body := header + "\n\n" + artifact.Text + "\n"
	if err := os.WriteFile(textPath, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write hint text: %w", err)
	}
	artifact.TextPath = textPath

	imagePath := filepath.Join(dir, artifact.ID+".png")
	if err := r.renderImage(ctx, artifact.Text, header, imagePath); err != nil {
		r.logger.Warn("image render failed; degrading to text-only hint",
			logging.Error(err),
			logging.String(logging.FieldEventType, "render_fallback"),
			logging.String(logging.FieldHintID, artifact.ID),
			logging.String(logging.FieldImpact, "hint will display as text"),
		)
		return nil
	}
	artifact.ImagePath = imagePath
	return nil
}

func (r *Renderer) renderImage(ctx context.Context, text, header, outputPath string) error {
	footer := "Press any button to return to game"
	args := []string{
		"-size", fmt.Sprintf("%dx%d", r.width, r.height),
		"xc:" + r.bgColor,
		"-fill", r.fgColor,
		"-font", "DejaVu-Sans",
		"-pointsize", strconv.Itoa(r.fontSize),
		"-gravity", "Center",
		"-annotate", "+0+0", caption(text, r.width, r.fontSize),
		"-fill", "gray",
		"-pointsize", strconv.Itoa(r.fontSize * 6 / 10),
		"-gravity", "North",
		"-annotate", "+0+30", header,
		"-gravity", "South",
		"-annotate", "+0+30", footer,
		outputPath,
	}
	return r.exec.Run(ctx, r.binary, args)
}

// caption word-wraps hint text to an approximate column count so the fixed
// pointsize annotate stays inside the frame.
func caption(text string, width, fontSize int) string {
	if fontSize <= 0 {
		return text
	}
	// Rough glyph advance of 0.55em for DejaVu Sans.
	columns := (width - 80) * 100 / (fontSize * 55)
	if columns < 16 {
		columns = 16
	}
	return wrap(text, columns)
}

func wrap(text string, columns int) string {
	var (
		out  []byte
		line int
	)
	for _, word := range splitWords(text) {
		if line > 0 && line+1+len(word) > columns {
			out = append(out, '\n')
			line = 0
		} else if line > 0 {
			out = append(out, ' ')
			line++
		}
		out = append(out, word...)
		line += len(word)
	}
	return string(out)
}

func splitWords(text string) []string {
	var words []string
	start := -1
	for i, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}
