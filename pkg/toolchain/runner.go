package toolchain

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// Runner executes external tools synchronously, teeing their combined
// output into a per-stage log file under the deploy directory.
type Runner struct {
	logDir string
	out    io.Writer
}

func NewRunner(logDir string, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}

	return &Runner{
		logDir: logDir,
		out:    out,
	}
}

// Run blocks until the tool exits. A non-zero exit is returned as an
// error wrapping the exec failure.
func (r *Runner) Run(ctx context.Context, logName string, name string, args ...string) error {
	klog.V(4).Infof("Executing %q with arguments %q", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil

	sink := r.out
	if len(r.logDir) != 0 {
		err := os.MkdirAll(r.logDir, 0755)
		if err != nil {
			return fmt.Errorf("can't create log dir %q: %w", r.logDir, err)
		}

		logPath := filepath.Join(r.logDir, logName+".log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("can't open log file %q: %w", logPath, err)
		}
		defer f.Close()

		sink = io.MultiWriter(r.out, f)
	}

	cmd.Stdout = sink
	cmd.Stderr = sink

	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}

	return nil
}
