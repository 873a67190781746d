package engine

import (
	"sync"

	"energy_controller/internal/model"
)

// LatestTracker is an Observer that remembers the most recent command, for
// handlers that want to answer "what's the state right now" without
// waiting for the next broadcast.
type LatestTracker struct {
	mu  sync.RWMutex
	cmd model.Command
	ok  bool
}

// OnCommand satisfies Observer.
func (l *LatestTracker) OnCommand(cmd model.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cmd = cmd
	l.ok = true
}

// Latest returns the most recently observed command, if any.
func (l *LatestTracker) Latest() (model.Command, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cmd, l.ok
}
