// Package audio turns uploaded media into the 16 kHz mono float32 buffers
// the transcription pipeline consumes. Decoding is delegated to an external
// ffmpeg binary through the CommandExecutor abstraction so tests can fake
// the tool.
package audio

import (
	"context"
	"time"
)

// CommandRequest encapsulates all information needed to execute a command.
type CommandRequest struct {
	// Command is the binary name or alias (e.g., "ffmpeg").
	Command string

	// Args are the command-line arguments.
	Args []string

	// Env contains extra environment variables to set.
	Env map[string]string

	// WorkingDir is the directory to execute the command in (default: current dir).
	WorkingDir string

	// Timeout is the maximum execution duration (0 falls back to the
	// executor's default timeout).
	Timeout time.Duration
}

// CommandResponse contains the result of a command execution.
type CommandResponse struct {
	// Success indicates if the command completed without errors.
	Success bool

	// ExitCode is the process exit code (0 typically means success).
	ExitCode int

	// Stdout contains the standard output of the command. For decode runs
	// this is raw PCM, not text.
	Stdout string

	// Stderr contains the standard error output (useful for diagnostics).
	Stderr string

	// Duration is the actual execution time.
	Duration time.Duration
}

// ExecutorConfig defines how external commands are resolved and constrained.
type ExecutorConfig struct {
	// BinaryPaths maps command names to binary paths
	// (e.g., {"ffmpeg": "/usr/local/bin/ffmpeg"}). Unmapped commands are
	// resolved through PATH.
	BinaryPaths map[string]string

	// DefaultTimeout applies when a request carries no timeout.
	DefaultTimeout time.Duration

	// AllowedCommands lists the commands that are permitted to execute
	// (security: whitelist approach). Empty list means allow all.
	AllowedCommands []string
}

// CommandExecutor defines the interface for running external decoder tools.
//
// The production implementation is LocalExecutor; tests substitute fakes to
// avoid spawning real processes.
type CommandExecutor interface {
	// ExecuteCommand executes a command with the given request.
	// It returns the command output and any execution error.
	//
	// The context can be used to cancel or set a deadline for the command
	// execution. If the context is cancelled, the command should be
	// terminated promptly.
	ExecuteCommand(ctx context.Context, req CommandRequest) (CommandResponse, error)

	// HealthCheck verifies that the executor is ready to handle requests.
	// Returns nil if healthy, otherwise an error describing the issue.
	HealthCheck(ctx context.Context) error
}
