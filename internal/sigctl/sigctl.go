// Package sigctl wires the compaction signal into a compaction.Flag.
//
// Registration failures are not fatal: a process that cannot catch its
// compaction signal still serves get/set/del correctly, and compaction
// stays reachable through the CLI's compact subcommand. The failure is
// logged and returned so the caller can decide whether to report it
// further.
package sigctl

import (
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/dpapathanasiou/coatcheck/internal/compaction"
	"github.com/dpapathanasiou/coatcheck/pkg/errors"
)

// Register starts a goroutine that sets flag whenever the process receives
// SIGUSR2, and returns immediately. The goroutine runs for the lifetime of
// the process; there is no corresponding Unregister because the flag and
// the signal channel are meant to outlive every caller.
func Register(flag *compaction.Flag, log *zap.SugaredLogger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = classifyRegistrationError(fmt.Errorf("%v", r))
			log.Errorw("panic registering compaction signal", "error", err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGUSR2)

	go func() {
		for sig := range ch {
			log.Infow("compaction signal received", "signal", sig.String())
			flag.TriggerFrom(sig)
		}
	}()

	log.Infow("registered compaction signal handler", "signal", "SIGUSR2")
	return nil
}

// classifyRegistrationError wraps a signal-registration failure as a
// StorageError so callers can log it uniformly with every other startup
// failure. signal.Notify itself does not return an error on POSIX systems,
// so the only failure Register classifies is a panic recovered during
// registration.
func classifyRegistrationError(err error) error {
	return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to register compaction signal handler").
		WithOperation("signal-register")
}
