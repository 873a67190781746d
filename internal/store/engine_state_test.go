package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_controller/internal/model"
)

func TestLoadEngineState_DefaultsOnEmptyStore(t *testing.T) {
	s := openTestStore(t)

	st, resetOccurred, err := s.LoadEngineState()
	require.NoError(t, err)

	assert.Equal(t, model.StateExportPriority, st.CurrentState)
	assert.Empty(t, st.ExportHistory)
	assert.Empty(t, st.EventLog)
	assert.Empty(t, st.DebounceRegistry)
	assert.True(t, resetOccurred, "an empty store has no persisted current_state, so this is a reset")
}

func TestLoadEngineState_SignalsResetOnUnknownCurrentState(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(KeyCurrentState, model.State("NOT_A_REAL_STATE")))

	st, resetOccurred, err := s.LoadEngineState()
	require.NoError(t, err)

	assert.Equal(t, model.StateExportPriority, st.CurrentState)
	assert.True(t, resetOccurred)
}

func TestLoadEngineState_DoesNotSignalResetOnKnownCurrentState(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveEngineState(model.EngineState{CurrentState: model.StateBatteryStorage}))

	st, resetOccurred, err := s.LoadEngineState()
	require.NoError(t, err)

	assert.Equal(t, model.StateBatteryStorage, st.CurrentState)
	assert.False(t, resetOccurred)
}

func TestSaveThenLoadEngineState_RoundTripsLogEntryRecordedAt(t *testing.T) {
	s := openTestStore(t)

	recordedAt := time.Date(2026, 8, 6, 12, 30, 0, 0, time.UTC)
	st := model.EngineState{
		CurrentState: model.StateExportPriority,
		EventLog:     []model.LogEntry{{ID: "abc", Message: "hello", RecordedAt: recordedAt}},
	}
	require.NoError(t, s.SaveEngineState(st))

	loaded, _, err := s.LoadEngineState()
	require.NoError(t, err)

	require.Len(t, loaded.EventLog, 1)
	assert.True(t, recordedAt.Equal(loaded.EventLog[0].RecordedAt), "RecordedAt must survive a store round-trip for age-based cleanup to work")
}

func TestSaveThenLoadEngineState_RoundTrips(t *testing.T) {
	s := openTestStore(t)

	st := model.EngineState{
		CurrentState:          model.StateSelfConsume,
		HWSOn:                 true,
		HWSLastOffEpochMs:     12345,
		DebounceRegistry:      map[string]int64{"SELF_CONSUME_to_EXPORT_PRIORITY": 999},
		TargetCache:           model.AdaptiveTargetResult{AdjustedTarget: 27.5, StaticMonthlyTarget: 25},
		ExportHistory:         []model.DailyRecord{{Date: "2026-08-05", ExportKWh: 20}},
		EventLog:              []model.LogEntry{{ID: "abc", Message: "hello"}},
		LastDailySummaryDate:  "2026-08-05",
		LastLogCleanupEpochMs: 555,
	}

	require.NoError(t, s.SaveEngineState(st))

	loaded, _, err := s.LoadEngineState()
	require.NoError(t, err)

	assert.Equal(t, st.CurrentState, loaded.CurrentState)
	assert.Equal(t, st.HWSOn, loaded.HWSOn)
	assert.Equal(t, st.HWSLastOffEpochMs, loaded.HWSLastOffEpochMs)
	assert.Equal(t, st.DebounceRegistry, loaded.DebounceRegistry)
	assert.Equal(t, st.TargetCache, loaded.TargetCache)
	assert.Equal(t, st.ExportHistory, loaded.ExportHistory)
	assert.Equal(t, st.EventLog, loaded.EventLog)
	assert.Equal(t, st.LastDailySummaryDate, loaded.LastDailySummaryDate)
	assert.Equal(t, st.LastLogCleanupEpochMs, loaded.LastLogCleanupEpochMs)
}

func TestSaveEngineState_ClearingDebounceEntryPersists(t *testing.T) {
	s := openTestStore(t)

	withPending := model.EngineState{
		CurrentState:     model.StateSelfConsume,
		DebounceRegistry: map[string]int64{"SELF_CONSUME_to_EXPORT_PRIORITY": 111},
	}
	require.NoError(t, s.SaveEngineState(withPending))

	loaded, _, err := s.LoadEngineState()
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.DebounceRegistry)

	cleared := loaded
	cleared.DebounceRegistry = map[string]int64{}
	require.NoError(t, s.SaveEngineState(cleared))

	reloaded, _, err := s.LoadEngineState()
	require.NoError(t, err)
	assert.Empty(t, reloaded.DebounceRegistry, "a cleared debounce entry must not reappear as pending")
}

func TestDebounceKey_Format(t *testing.T) {
	assert.Equal(t, "state_change_request:SELF_CONSUME_to_EXPORT_PRIORITY", DebounceKey("SELF_CONSUME", "EXPORT_PRIORITY"))
}
