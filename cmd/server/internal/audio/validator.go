package audio

import (
	"fmt"
	"strings"
)

// ValidateCommandRequest performs security checks before command execution.
// It validates:
//  1. Command whitelist (if configured)
//  2. Argument safety (no path traversal, no system directory access)
//
// Callers construct CommandRequest from user-supplied file paths, so every
// request must pass through here before reaching an executor.
func ValidateCommandRequest(req CommandRequest, config ExecutorConfig) error {
	if len(config.AllowedCommands) > 0 {
		allowed := false
		for _, cmd := range config.AllowedCommands {
			if req.Command == cmd {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("command %s is not in whitelist (allowed: %v)", req.Command, config.AllowedCommands)
		}
	}

	for _, arg := range req.Args {
		if strings.Contains(arg, "..") {
			return fmt.Errorf("argument contains dangerous characters '..' (path traversal attempt): %s", arg)
		}

		dangerousPrefixes := []string{"/etc", "/sys", "/proc", "/dev"}
		for _, prefix := range dangerousPrefixes {
			if strings.HasPrefix(arg, prefix) {
				return fmt.Errorf("argument attempts to access forbidden system directory %s: %s", prefix, arg)
			}
		}
	}

	if req.WorkingDir != "" && strings.Contains(req.WorkingDir, "..") {
		return fmt.Errorf("invalid working directory: %s", req.WorkingDir)
	}

	return nil
}
