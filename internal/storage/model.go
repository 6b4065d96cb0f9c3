package storage

import (
	"sync/atomic"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/dpapathanasiou/coatcheck/pkg/options"
)

// Storage is the core file-based storage component responsible for reading,
// writing, deleting, and compacting the single append-only record file that
// backs a coat-check instance. It holds no in-memory index: every operation
// re-derives its answer from a forward scan of the backing file, performed
// under the lock class the operation requires.
type Storage struct {
	closed  atomic.Bool        // Flag indicating whether the storage has been closed.
	path    string             // Path to the backing record file.
	lock    *flock.Flock       // Advisory whole-file lock guarding the backing file.
	options *options.Options   // Configuration parameters controlling storage behavior.
	log     *zap.SugaredLogger // Structured logger for operational visibility and debugging.
}

// Config encapsulates all the configuration parameters required to initialize a Storage instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
