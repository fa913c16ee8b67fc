package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ps "github.com/mitchellh/go-ps"

	"github.com/bestruirui/bestsub-release/internal/logger"
)

// errAlreadyRunning indicates a concurrent orchestrator invocation.
// The toolchain cache carries no lock, so parallel runs are refused
// outright instead of corrupting it.
var errAlreadyRunning = errors.New("another release run is already in progress")

// ensureSingleInstance scans the process table for a sibling process
// with the same executable name. Scan failures are logged and ignored:
// refusing to release because the process table is unreadable would be
// worse than the race it guards against.
func ensureSingleInstance(ctx context.Context) error {
	processes, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Unable to scan process table, skipping concurrency guard", "error", err)

		return nil
	}

	self := filepath.Base(os.Args[0])
	pid := os.Getpid()

	for _, process := range processes {
		if process.Pid() == pid {
			continue
		}

		if process.Executable() != self {
			continue
		}

		return fmt.Errorf("%w (pid %d)", errAlreadyRunning, process.Pid())
	}

	return nil
}
