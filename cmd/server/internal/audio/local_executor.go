package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/voxscribe/voxscribe/pkg/metrics"
)

// LocalExecutor executes commands directly on the local system using
// exec.Command. It is suitable when the decoder binaries are installed on
// the host.
type LocalExecutor struct {
	config ExecutorConfig
}

// NewLocalExecutor creates a new LocalExecutor with the given configuration.
func NewLocalExecutor(config ExecutorConfig) *LocalExecutor {
	return &LocalExecutor{config: config}
}

// ExecuteCommand executes a command locally and returns the result.
func (e *LocalExecutor) ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	binaryPath, err := e.resolveBinaryPath(req.Command)
	if err != nil {
		metrics.RecordCommandExecution(req.Command, "failed")
		return CommandResponse{}, fmt.Errorf("failed to resolve binary path for %s: %w", req.Command, err)
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = e.config.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binaryPath, req.Args...)
	cmd.Env = append(os.Environ(), buildEnvSlice(req.Env)...)
	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}

	// Own process group so a timeout kills the whole process tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)
	metrics.RecordCommandDuration(req.Command, duration.Seconds())

	resp := CommandResponse{
		Success:  err == nil,
		ExitCode: getExitCode(err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if ctx.Err() == context.DeadlineExceeded {
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		metrics.RecordCommandExecution(req.Command, "timeout")
		return resp, fmt.Errorf("command execution timeout (%v): %s", timeout, req.Command)
	}

	if err == nil {
		metrics.RecordCommandExecution(req.Command, "success")
	} else {
		metrics.RecordCommandExecution(req.Command, "failed")
	}
	return resp, err
}

// HealthCheck verifies that all configured local binaries are available.
func (e *LocalExecutor) HealthCheck(ctx context.Context) error {
	for cmd, path := range e.config.BinaryPaths {
		if _, err := exec.LookPath(path); err != nil {
			return fmt.Errorf("local command %s not available at %s: %w", cmd, path, err)
		}
	}
	return nil
}

// resolveBinaryPath resolves the binary path from config or PATH environment.
func (e *LocalExecutor) resolveBinaryPath(command string) (string, error) {
	if path, ok := e.config.BinaryPaths[command]; ok {
		return path, nil
	}
	return exec.LookPath(command)
}

// buildEnvSlice converts environment map to slice format.
func buildEnvSlice(envMap map[string]string) []string {
	var result []string
	for k, v := range envMap {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// getExitCode extracts exit code from error.
func getExitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1 // Unable to determine exit code
}
