package syms

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
)

// runFunc runs bin with args and returns its stdout split into lines.
type runFunc func(ctx context.Context, timeout time.Duration, bin string, args ...string) ([]string, error)

func run(ctx context.Context, timeout time.Duration, bin string, args ...string) ([]string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setPgroup(cmd)
	cmd.Cancel = func() error {
		killPgroup(cmd)
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = time.Second

	name := filepath.Base(bin)
	glog.V(5).Infof("Exec %q", cmd.Args)
	if err := cmd.Start(); err != nil {
		return nil, &ExecError{Tool: name, Err: fmt.Errorf("start %s: %w", bin, err)}
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) && timeout > 0 {
				return nil, &TimeoutError{Tool: name, Timeout: timeout}
			}
			return nil, &ExecError{Tool: name, Err: ctxErr}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{Tool: name, Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return nil, &ExecError{Tool: name, Err: err}
	}
	return splitLines(stdout.Bytes()), nil
}

func splitLines(out []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
