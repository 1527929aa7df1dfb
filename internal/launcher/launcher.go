// Package launcher hands files to the operating system's default
// application.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"dam/internal/logging"
)

// Launcher opens a file for the user.
type Launcher interface {
	Launch(path string) error
}

// System launches files with the platform opener or a configured command.
type System struct {
	// Opener overrides the platform command. It may carry arguments, for
	// example "code -r"; the file path is appended.
	Opener string
}

// DefaultOpener returns the command that opens a file with its associated
// application on goos.
func DefaultOpener(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"explorer"}
	default: // linux, freebsd, etc.
		return []string{"xdg-open"}
	}
}

func (s System) command(path string) (*exec.Cmd, error) {
	argv := DefaultOpener(runtime.GOOS)
	if s.Opener != "" {
		argv = strings.Fields(s.Opener)
	}
	if len(argv) == 0 {
		return nil, errors.New("empty opener command")
	}
	return exec.Command(argv[0], append(argv[1:], path)...), nil
}

// Launch runs the opener for path and waits for it to hand the file off.
// xdg-open and open return once the associated application has been
// started, so an opener that exits non-zero, for example because no
// application handles the file type, is reported as an error.
func (s System) Launch(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}

	cmd, err := s.command(path)
	if err != nil {
		return err
	}
	logging.Debug("Launching %s", strings.Join(cmd.Args, " "))

	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr) && s.Opener == "" && runtime.GOOS == "windows":
		// explorer exits 1 even when it opened the file.
		return nil
	case errors.As(err, &exitErr):
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s failed for %s: %w", cmd.Args[0], path, err)
		}
		return fmt.Errorf("%s failed for %s: %w: %s", cmd.Args[0], path, err, msg)
	default:
		return fmt.Errorf("failed to start %s: %w", cmd.Args[0], err)
	}
}

// Func adapts a function to the Launcher interface.
type Func func(path string) error

// Launch implements Launcher.
func (f Func) Launch(path string) error {
	return f(path)
}
