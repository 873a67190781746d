package store

import (
	"energy_controller/internal/model"
)

// Named blob keys under which the engine's persisted state is stored.
const (
	KeyCurrentState        = "current_state"
	KeyExportHistory       = "export_history"
	KeyTargetCache         = "target_cache"
	KeyEventLog            = "event_log"
	KeyHWSStatus           = "hws_status"
	KeyHWSLastOffTime      = "hws_last_off_time"
	KeyLastDailySummary    = "last_daily_summary_date"
	KeyLastLogCleanup      = "last_log_cleanup"
)

// DebounceKey is the persisted key for a single directed state-pair
// debounce entry, named "state_change_request:{from}_to_{to}".
func DebounceKey(from, to string) string {
	return "state_change_request:" + from + "_to_" + to
}

// LoadEngineState reads every named blob into an EngineState, defaulting
// current_state to EXPORT_PRIORITY when it is missing or unrecognized.
// resetOccurred reports whether that default was applied, so the caller
// can log a SYSTEM(high) entry rather than silently swallowing the reset.
func (s *Store) LoadEngineState() (st model.EngineState, resetOccurred bool, err error) {
	var current model.State
	if found, getErr := s.Get(KeyCurrentState, &current); getErr != nil {
		return st, false, getErr
	} else if !found || !current.Known() {
		current = model.StateExportPriority
		resetOccurred = true
	}
	st.CurrentState = current

	if _, err := s.Get(KeyExportHistory, &st.ExportHistory); err != nil {
		return st, resetOccurred, err
	}
	if _, err := s.Get(KeyTargetCache, &st.TargetCache); err != nil {
		return st, resetOccurred, err
	}
	if _, err := s.Get(KeyEventLog, &st.EventLog); err != nil {
		return st, resetOccurred, err
	}
	if _, err := s.Get(KeyHWSStatus, &st.HWSOn); err != nil {
		return st, resetOccurred, err
	}
	if _, err := s.Get(KeyHWSLastOffTime, &st.HWSLastOffEpochMs); err != nil {
		return st, resetOccurred, err
	}
	if _, err := s.Get(KeyLastDailySummary, &st.LastDailySummaryDate); err != nil {
		return st, resetOccurred, err
	}
	if _, err := s.Get(KeyLastLogCleanup, &st.LastLogCleanupEpochMs); err != nil {
		return st, resetOccurred, err
	}

	st.DebounceRegistry = map[string]int64{}
	for _, from := range model.AllStates {
		for _, to := range model.AllStates {
			if from == to {
				continue
			}
			key := DebounceKey(string(from), string(to))
			var ms int64
			if found, err := s.Get(key, &ms); err != nil {
				return st, resetOccurred, err
			} else if found && ms != 0 {
				st.DebounceRegistry[string(from)+"_to_"+string(to)] = ms
			}
		}
	}

	return st, resetOccurred, nil
}

// SaveEngineState durably writes every named blob. Each write is its own
// committed transaction, so a crash mid-SaveEngineState can leave some
// blobs ahead of others, but never leaves any single blob partially
// written.
func (s *Store) SaveEngineState(st model.EngineState) error {
	writes := []struct {
		key   string
		value any
	}{
		{KeyCurrentState, st.CurrentState},
		{KeyExportHistory, st.ExportHistory},
		{KeyTargetCache, st.TargetCache},
		{KeyEventLog, st.EventLog},
		{KeyHWSStatus, st.HWSOn},
		{KeyHWSLastOffTime, st.HWSLastOffEpochMs},
		{KeyLastDailySummary, st.LastDailySummaryDate},
		{KeyLastLogCleanup, st.LastLogCleanupEpochMs},
	}
	for _, w := range writes {
		if err := s.Put(w.key, w.value); err != nil {
			return err
		}
	}

	for _, from := range model.AllStates {
		for _, to := range model.AllStates {
			if from == to {
				continue
			}
			ms := st.DebounceRegistry[string(from)+"_to_"+string(to)]
			if err := s.Put(DebounceKey(string(from), string(to)), ms); err != nil {
				return err
			}
		}
	}

	return nil
}
