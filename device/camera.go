package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/covercare/covercare-cli/internal/logging"
	"github.com/covercare/covercare-cli/verification"
)

var (
	// ErrPermissionDenied is returned when camera access is not granted.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrCameraUnavailable is returned when no capture command is configured.
	ErrCameraUnavailable = errors.New("no camera capture command configured")
	// ErrCaptureTimeout is returned when the capture command does not finish
	// within Camera.Timeout.
	ErrCaptureTimeout = errors.New("camera capture timed out")
)

// DefaultCaptureTimeout bounds a capture when Camera.Timeout is zero.
const DefaultCaptureTimeout = 2 * time.Minute

// killGrace is how long Pick waits for the command's output after it was
// killed.
const killGrace = 500 * time.Millisecond

// OutputPlaceholder is replaced with the capture file path in the capture
// command's arguments.
const OutputPlaceholder = "{output}"

// PermissionFunc reports whether the camera may be used. A nil return grants
// access; ErrPermissionDenied denies it.
type PermissionFunc func(ctx context.Context) error

// StaticPermission grants or denies camera access unconditionally.
func StaticPermission(granted bool) PermissionFunc {
	return func(context.Context) error {
		if granted {
			return nil
		}
		return ErrPermissionDenied
	}
}

// Camera captures a document photo by running an external capture command,
// e.g. `fswebcam --no-banner {output}` or `imagesnap {output}`.
type Camera struct {
	Permission PermissionFunc
	// Command is the capture argv; one argument must contain {output}.
	Command []string
	// Dir receives captured images. Defaults to the OS temp dir.
	Dir string
	// Timeout bounds a single capture. Zero means DefaultCaptureTimeout.
	Timeout time.Duration
	Logger  logging.Logger
}

// ParseCommand splits a configured capture command line into argv.
func ParseCommand(line string) []string {
	return strings.Fields(line)
}

// Pick checks the camera permission, runs the capture command and returns a
// reference to the captured image. A command that exits without writing the
// image is treated as a cancelled capture, and one that outlives Timeout is
// killed.
func (c *Camera) Pick(ctx context.Context) (*verification.Document, error) {
	if c.Permission != nil {
		if err := c.Permission(ctx); err != nil {
			c.logger().Warn("camera permission denied", nil)
			return nil, err
		}
	}
	if len(c.Command) == 0 {
		return nil, ErrCameraUnavailable
	}

	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating capture directory: %w", err)
	}
	out := filepath.Join(dir, "capture-"+uuid.NewString()+".jpg")

	argv := make([]string, len(c.Command))
	hasOutput := false
	for i, arg := range c.Command {
		if strings.Contains(arg, OutputPlaceholder) {
			hasOutput = true
		}
		argv[i] = strings.ReplaceAll(arg, OutputPlaceholder, out)
	}
	if !hasOutput {
		return nil, fmt.Errorf("capture command must contain %s", OutputPlaceholder)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCaptureTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = killGrace
	if output, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger().Warn("capture command timed out", map[string]any{"command": argv[0], "timeout": timeout.String()})
			return nil, fmt.Errorf("%w after %s", ErrCaptureTimeout, timeout)
		}
		c.logger().Error("capture command failed", map[string]any{
			"command": argv[0],
			"error":   err.Error(),
			"output":  strings.TrimSpace(string(output)),
		})
		return nil, fmt.Errorf("running capture command %s: %w", argv[0], err)
	}

	if _, err := os.Stat(out); errors.Is(err, os.ErrNotExist) {
		return nil, ErrCancelled
	}
	doc, err := openImage(out, verification.SourceCamera)
	if err != nil {
		return nil, err
	}
	c.logger().Info("document captured", map[string]any{"file": doc.Name})
	return doc, nil
}

func (c *Camera) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}
