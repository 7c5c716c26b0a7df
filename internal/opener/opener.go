// Package opener hands a file or URL to the desktop's default application.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Opener opens a path or URL.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// System opens targets with the platform launcher: open on macOS,
// cmd /c start on Windows and xdg-open elsewhere.
type System struct {
	goos string
}

// New returns an opener for the running platform.
func New() *System {
	return &System{goos: runtime.GOOS}
}

// Command returns the launcher invocation for target.
func (s *System) Command(target string) (string, []string) {
	switch s.goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		// The empty argument is the window title start expects.
		return "cmd", []string{"/c", "start", "", target}
	default:
		return "xdg-open", []string{target}
	}
}

// Open starts the launcher and waits for it to hand off.
func (s *System) Open(ctx context.Context, target string) error {
	name, args := s.Command(target)
	if err := exec.CommandContext(ctx, name, args...).Run(); err != nil {
		return fmt.Errorf("opener: %s %s: %w", name, target, err)
	}
	return nil
}
