// Package compaction holds the process-wide flag that schedules a
// compaction pass without running one.
//
// The flag is set from a signal handler, a context in which it is unsafe to
// perform the file-rename compaction algorithm itself. The accept loop
// polls the flag between client connections and, when it finds the flag
// set, runs compaction synchronously before resuming accepts. This is an
// edge-triggered check: the flag is consumed (cleared) the moment it is
// observed, not held level-triggered across an in-flight connection.
package compaction

import (
	"os"
	"sync/atomic"
)

// Flag is a process-wide, relaxed-ordering boolean: a hint to poll, not a
// synchronization primitive. The zero value is ready to use.
type Flag struct {
	pending atomic.Bool
}

// TriggerFrom marks a compaction as pending in response to sig. Safe to
// call from the goroutine sigctl.Register spawns to drain the signal
// channel; sig is carried through only for logging at the call site.
func (f *Flag) TriggerFrom(sig os.Signal) {
	f.pending.Store(true)
}

// Pending reports whether a compaction is currently scheduled, without
// clearing it.
func (f *Flag) Pending() bool {
	return f.pending.Load()
}

// Consume reports whether a compaction was pending and, if so, clears the
// flag. The accept loop calls this once per iteration instead of calling
// Pending and then clearing separately, so a signal arriving between the
// check and the clear is never lost.
func (f *Flag) Consume() bool {
	return f.pending.CompareAndSwap(true, false)
}
