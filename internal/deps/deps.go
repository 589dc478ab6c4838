// Package deps probes the availability of external binaries hinter can use.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency hinter relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the external tools hinter can make use of. Everything
// here is optional: viewers cascade, and rendering degrades to text-only.
func Requirements() []Requirement {
	return []Requirement{
		{Name: "ImageMagick", Command: "convert", Description: "renders hint text to an image", Optional: true},
		{Name: "fbv", Command: "fbv", Description: "framebuffer-native hint viewer", Optional: true},
		{Name: "mpv", Command: "mpv", Description: "DRM media player hint viewer", Optional: true},
		{Name: "fbi", Command: "fbi", Description: "framebuffer image viewer", Optional: true},
		{Name: "feh", Command: "feh", Description: "windowed image viewer", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Available reports whether a single binary resolves on PATH.
func Available(command string) bool {
	command = strings.TrimSpace(command)
	if command == "" {
		return false
	}
	_, err := exec.LookPath(command)
	return err == nil
}
