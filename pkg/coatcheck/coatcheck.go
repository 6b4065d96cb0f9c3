// Package coatcheck provides the facade the CLI builds on top of: a thin
// wrapper that wires a storage engine to its configuration and logger so
// callers don't have to assemble internal/storage directly.
package coatcheck

import (
	"github.com/dpapathanasiou/coatcheck/internal/storage"
	"github.com/dpapathanasiou/coatcheck/pkg/logger"
	"github.com/dpapathanasiou/coatcheck/pkg/options"
)

// Instance is the primary entry point for interacting with a coat-check
// store outside of the TCP front end: the CLI's get/set/del/compact
// subcommands all go through one.
type Instance struct {
	Engine  *storage.Storage
	Options *options.Options
}

// NewInstance builds a new Instance for the named service (used to scope
// its logger), applying opts over the package defaults.
func NewInstance(service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)
	o := options.New(opts...)

	engine, err := storage.New(&storage.Config{Options: &o, Logger: log})
	if err != nil {
		return nil, err
	}

	return &Instance{Engine: engine, Options: &o}, nil
}

// Get reads the value for key.
func (i *Instance) Get(key string) ([]byte, error) {
	return i.Engine.Read(key)
}

// Set upserts key to value, returning the number of bytes written.
func (i *Instance) Set(key string, value []byte) (int, error) {
	return i.Engine.Upsert(key, value)
}

// Delete removes key, returning the value it held.
func (i *Instance) Delete(key string) ([]byte, error) {
	return i.Engine.Delete(key)
}

// Compact runs the storage engine's compaction pass synchronously.
func (i *Instance) Compact() error {
	return i.Engine.Compact()
}

// Close releases the instance. The underlying engine holds no persistent
// file handle between calls, so this only marks the instance unusable.
func (i *Instance) Close() error {
	return i.Engine.Close()
}
