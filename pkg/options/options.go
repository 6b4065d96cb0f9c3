// Package options provides data structures and functions for configuring a
// coat-check instance. It defines the parameters that control where the
// backing file lives, which port the TCP front end listens on, and how the
// server reads commands and reacts to a compaction signal.
package options

import "strings"

// Options defines the configuration parameters for a coat-check instance. It
// provides control over the backing file location, the server's network
// surface, and its compaction-signal handling.
type Options struct {
	// FilePath is the path to the single append-only record file backing the
	// store. Required; there is no default directory scan. The first write
	// creates the file and any of its missing parent directories.
	FilePath string `json:"filePath"`

	// Port is the TCP port the server listens on, as a string suitable for
	// net.Listen's address argument.
	//
	// Default: "5000"
	Port string `json:"port"`

	// ReadBufferSize is the size, in bytes, of the buffer used to read a
	// single command line off each connection.
	//
	// Default: 1024
	ReadBufferSize int `json:"readBufferSize"`

	// CompactionSignal names the OS signal that flags a pending compaction.
	// Only informational: the actual registration always targets SIGUSR2,
	// this field exists so it can be logged and surfaced in diagnostics.
	//
	// Default: "SIGUSR2"
	CompactionSignal string `json:"compactionSignal"`
}

// OptionFunc is a function type that modifies a coat-check instance's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.FilePath = opts.FilePath
		o.Port = opts.Port
		o.ReadBufferSize = opts.ReadBufferSize
		o.CompactionSignal = opts.CompactionSignal
	}
}

// WithFilePath sets the backing file path.
func WithFilePath(path string) OptionFunc {
	return func(o *Options) {
		path = strings.TrimSpace(path)
		if path != "" {
			o.FilePath = path
		}
	}
}

// WithPort sets the TCP port the server listens on.
func WithPort(port string) OptionFunc {
	return func(o *Options) {
		port = strings.TrimSpace(port)
		if port != "" {
			o.Port = port
		}
	}
}

// WithReadBufferSize sets the per-connection command read buffer size.
func WithReadBufferSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.ReadBufferSize = size
		}
	}
}

// WithCompactionSignal records the name of the signal used to flag compaction.
func WithCompactionSignal(signal string) OptionFunc {
	return func(o *Options) {
		signal = strings.TrimSpace(signal)
		if signal != "" {
			o.CompactionSignal = signal
		}
	}
}

// New builds an Options value from NewDefaultOptions with the given
// overrides applied in order.
func New(opts ...OptionFunc) Options {
	o := NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
