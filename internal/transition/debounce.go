package transition

import (
	"fmt"
	"time"

	"energy_controller/internal/model"
)

// pairKey is the directed (from, to) debounce registry key, kept as a
// struct so callers can compare/construct keys without string formatting;
// the registry map itself is keyed by its "FROM_to_TO" rendering, so every
// registry access goes through String.
type pairKey struct {
	From, To model.State
}

func (k pairKey) String() string {
	return fmt.Sprintf("%s_to_%s", k.From, k.To)
}

// registry wraps the persisted map[string]int64 debounce registry with
// typed accessors.
type registry struct {
	entries map[string]int64
}

func newRegistry(entries map[string]int64) *registry {
	if entries == nil {
		entries = map[string]int64{}
	}
	return &registry{entries: entries}
}

func (r *registry) get(k pairKey) (time.Time, bool) {
	ms, ok := r.entries[k.String()]
	if !ok || ms == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (r *registry) set(k pairKey, at time.Time) {
	r.entries[k.String()] = at.UnixMilli()
}

func (r *registry) clear(k pairKey) {
	delete(r.entries, k.String())
}

func (r *registry) clearAll() {
	r.entries = map[string]int64{}
}

// requestResult is the outcome of requesting a debounced transition.
type requestResult struct {
	state    model.State
	reason   string
	approved bool
}

// request implements the debounce registry semantics: a first request
// starts the timer, a request held long enough is approved (and every
// other pending entry is cleared), otherwise it remains pending. A request
// for the state already held (from == to) is never recorded.
func (r *registry) request(from, to model.State, now time.Time, debounceDuration time.Duration) requestResult {
	if from == to {
		return requestResult{state: from, reason: fmt.Sprintf("already in %s", to)}
	}
	k := pairKey{From: from, To: to}
	first, pending := r.get(k)
	if !pending {
		r.set(k, now)
		return requestResult{state: from, reason: fmt.Sprintf("debouncing %s->%s: request started", from, to)}
	}

	elapsed := now.Sub(first)
	if elapsed >= debounceDuration {
		r.clear(k)
		r.clearAll()
		return requestResult{state: to, reason: fmt.Sprintf("debounce approved %s->%s after %s", from, to, elapsed.Round(time.Second)), approved: true}
	}

	remaining := debounceDuration - elapsed
	return requestResult{state: from, reason: fmt.Sprintf("debouncing %s->%s, %s remaining", from, to, remaining.Round(time.Second))}
}
