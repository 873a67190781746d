// Package engine orchestrates one tick of the decision pipeline:
// Validator -> TargetCalc -> Transition -> Actuator -> PersistentStore
// writes. One tick, one pass: every collaborator runs exactly once per
// call to Tick, and the result is handed to every registered observer.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"energy_controller/internal/actuator"
	"energy_controller/internal/clock"
	"energy_controller/internal/config"
	"energy_controller/internal/eventlog"
	"energy_controller/internal/model"
	"energy_controller/internal/store"
	"energy_controller/internal/target"
	"energy_controller/internal/transition"
	"energy_controller/internal/validator"
)

// Observer is notified after every tick with the tick's command (for
// example the WebSocket bridge or the latest-command tracker).
type Observer interface {
	OnCommand(cmd model.Command)
}

// Engine holds the wired collaborators for one installation.
type Engine struct {
	cfg    *config.Config
	store  *store.Store
	clock  *clock.Provider
	logger zerolog.Logger

	targetCalc *target.Calculator
	transition *transition.Engine
	actuator   *actuator.Actuator
	eventLog   *eventlog.Log

	observers []Observer
}

// New wires an Engine from configuration, the persistent store, and a
// logger. clockNow is nil in production (real wall clock); tests inject a
// deterministic function.
func New(cfg *config.Config, st *store.Store, logger zerolog.Logger, clockNow func() time.Time) *Engine {
	t := transition.Thresholds{
		MaxSoCThreshold:                cfg.MaxSoCThreshold,
		MinSoCThreshold:                cfg.MinSoCThreshold,
		HWSPowerRating:                 cfg.HWSPowerRating,
		ExportTargetPercentage:         cfg.ExportTargetPercentage,
		BatteryChargingThreshold:       cfg.BatteryChargingThreshold,
		StrongChargingThreshold:        cfg.StrongChargingThreshold,
		MinGenerationForExport:         cfg.MinGenerationForExport,
		MinGenerationToStayExport:      cfg.MinGenerationToStayExport,
		EveningSelfConsumeSoCThreshold: cfg.EveningSelfConsumeSoCThreshold,
		StateChangeDebounceTime:        time.Duration(cfg.StateChangeDebounceTimeMin * float64(time.Minute)),
		SignificantExportThreshold:     cfg.SignificantExportThreshold,
		NightStartHour:                 cfg.NightStartHour,
		NightEndHour:                   cfg.NightEndHour,
		HWSSoCDropThreshold:            cfg.HWSSoCDropThreshold,
		HWSGenerationDropThreshold:     cfg.HWSGenerationDropThreshold,
	}

	hwsCfg := actuator.HWSConfig{
		MaxSoCThreshold:            cfg.MaxSoCThreshold,
		HWSSoCDropThreshold:        cfg.HWSSoCDropThreshold,
		HWSGenerationDropThreshold: cfg.HWSGenerationDropThreshold,
		CooldownPeriod:             time.Duration(cfg.HWSCooldownPeriodMin) * time.Minute,
	}

	return &Engine{
		cfg:        cfg,
		store:      st,
		clock:      clock.New(cfg.LocalOffsetHours, clockNow),
		logger:     logger,
		targetCalc: target.New(cfg.CatchupDays, cfg.CatchupAggressiveness),
		transition: transition.New(t),
		actuator:   actuator.New(hwsCfg),
		eventLog:   eventlog.New(logger, cfg.MaxLogEntries, cfg.LogMaxAgeDays, cfg.LogCleanupIntervalHours),
	}
}

// Subscribe registers an observer to be notified after every tick.
func (e *Engine) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

// Tick runs exactly one pass of the decision pipeline for the given raw
// input (enabled/telemetry fields only — timestamp is stamped here so
// callers never need a clock of their own). The recover() at the top is
// the catastrophic-failure last resort: any panic downstream becomes a
// SAFE_MODE command instead of propagating.
func (e *Engine) Tick(raw model.TickInput) (cmd model.Command) {
	now := e.clock.Now()
	raw.Now = now

	defer func() {
		if r := recover(); r != nil {
			cmd = actuator.SafeModeCommand(now, fmt.Sprintf("internal error: %v", r))
			e.persistPanicState(now, r)
			e.notify(cmd)
		}
	}()

	if !raw.Enabled {
		cmd = actuator.DisabledCommand(now)
		e.notify(cmd)
		return cmd
	}

	if res := validator.Validate(raw); res.Err != nil {
		st, resetOccurred, err := e.store.LoadEngineState()
		current := model.StateExportPriority
		if err == nil {
			current = st.CurrentState
			if resetOccurred {
				st.EventLog = e.eventLog.Append(st.EventLog, now, model.LogSystem, model.PriorityHigh, "unknown persisted current_state, reset to EXPORT_PRIORITY", nil)
			}
			st.EventLog = e.eventLog.Append(st.EventLog, now, model.LogError, model.PriorityHigh, res.Err.Error(), nil)
			_ = e.store.SaveEngineState(st)
		}
		cmd = actuator.ValidationFallback(current, now, res.Err.Error())
		e.notify(cmd)
		return cmd
	}

	st, resetOccurred, err := e.store.LoadEngineState()
	if err != nil {
		cmd = actuator.SafeModeCommand(now, fmt.Sprintf("store unavailable: %v", err))
		e.notify(cmd)
		return cmd
	}
	if resetOccurred {
		st.EventLog = e.eventLog.Append(st.EventLog, now, model.LogSystem, model.PriorityHigh, "unknown persisted current_state, reset to EXPORT_PRIORITY", nil)
	}

	staticTarget := e.cfg.MonthlyTarget(clock.Month(now))
	targetResult, writeCache := e.targetCalc.Evaluate(st.ExportHistory, staticTarget)
	if writeCache {
		st.TargetCache = targetResult
	}
	targetKWh := targetResult.AdjustedTarget

	st = e.updateHistory(st, raw, now, targetKWh)

	decision, registry := e.transition.Evaluate(st.CurrentState, raw, st.DebounceRegistry, targetKWh, st.HWSOn)
	st.DebounceRegistry = registry

	if decision.LogMsg != "" {
		st.EventLog = e.eventLog.Append(st.EventLog, now, decision.LogType, decision.Priority, decision.LogMsg, nil)
	}

	batteryProtectionActive := decision.LogType == model.LogBatteryProtection
	result := e.actuator.Build(decision.NextState, raw, decision.Reason, st.HWSOn, st.HWSLastOffEpochMs, batteryProtectionActive, targetKWh)

	if result.HWSTransitioned != "" {
		hwsType := "HWS_EVENT"
		msg := fmt.Sprintf("hot water system turned %s", result.HWSTransitioned)
		st.EventLog = e.eventLog.Append(st.EventLog, now, model.LogType(hwsType), model.PriorityNormal, msg, map[string]any{"state": result.HWSTransitioned})
	}
	st.HWSOn = result.HWSOn
	st.HWSLastOffEpochMs = result.HWSLastOffMs
	st.CurrentState = decision.NextState

	st = e.maybeEmitDailySummary(st, now, result.Command)

	var cleaned bool
	st.EventLog, st.LastLogCleanupEpochMs, cleaned = e.eventLog.CleanupIfDue(st.EventLog, now, st.LastLogCleanupEpochMs)
	_ = cleaned

	if err := e.store.SaveEngineState(st); err != nil {
		e.logger.Error().Err(err).Msg("failed to persist engine state")
	}

	cmd = result.Command
	e.notify(cmd)
	return cmd
}

func (e *Engine) updateHistory(st model.EngineState, raw model.TickInput, now time.Time, targetKWh float64) model.EngineState {
	today := clock.Date(now)
	for _, r := range st.ExportHistory {
		if r.Date == today {
			return st
		}
	}

	record := model.DailyRecord{
		Date:       today,
		ExportKWh:  raw.DailyExportKWh(),
		TargetKWh:  targetKWh,
		RecordedAt: now,
	}
	st.ExportHistory = append(st.ExportHistory, record)
	if len(st.ExportHistory) > 30 {
		st.ExportHistory = st.ExportHistory[len(st.ExportHistory)-30:]
	}
	return st
}

func (e *Engine) maybeEmitDailySummary(st model.EngineState, now time.Time, cmd model.Command) model.EngineState {
	if !eventlog.ShouldEmitDailySummary(now, st.LastDailySummaryDate) {
		return st
	}
	msg := fmt.Sprintf("daily summary: export=%.2fkWh target=%.2fkWh state=%s", cmd.Status.DailyExport, cmd.Status.ExportTarget, st.CurrentState)
	st.EventLog = e.eventLog.Append(st.EventLog, now, model.LogDailySummary, model.PriorityNormal, msg, nil)
	st.LastDailySummaryDate = clock.Date(now)
	return st
}

func (e *Engine) persistPanicState(now time.Time, r any) {
	st, _, err := e.store.LoadEngineState()
	if err != nil {
		return
	}
	st.EventLog = e.eventLog.Append(st.EventLog, now, model.LogError, model.PriorityCritical, fmt.Sprintf("unhandled exception: %v", r), nil)
	_ = e.store.SaveEngineState(st)
}

func (e *Engine) notify(cmd model.Command) {
	for _, o := range e.observers {
		o.OnCommand(cmd)
	}
}
