// Package actuator maps a decided state to the output Command record and
// owns the controlled-load (hot water system) sub-controller.
package actuator

import (
	"time"

	"energy_controller/internal/model"
)

// Actuator is a pure function from (state, inputs, hws state) to Command,
// plus the stateful HWS cooldown decision.
type Actuator struct {
	hws *HWSController
}

// New builds an Actuator using the given HWS sub-controller configuration.
func New(hwsCfg HWSConfig) *Actuator {
	return &Actuator{hws: NewHWSController(hwsCfg)}
}

// Result bundles the command with the updated HWS bookkeeping to persist.
type Result struct {
	Command        model.Command
	HWSOn          bool
	HWSLastOffMs   int64
	HWSTransitioned string // "" | "on" | "off"
}

// Build computes the command for nextState. priorHWSOn/hwsLastOffEpochMs are
// the persisted HWS state from the prior tick.
func (a *Actuator) Build(nextState model.State, in model.TickInput, reason string, priorHWSOn bool, hwsLastOffEpochMs int64, batteryProtectionActive bool, targetKWh float64) Result {
	cmd := model.Command{
		Timestamp:    in.Now,
		CurrentState: nextState,
		Status: model.Status{
			ExportTarget:     targetKWh,
			DailyExport:      in.DailyExportKWh(),
			TargetReached:    targetKWh > 0 && in.DailyExportKWh() >= targetKWh,
			BatterySoC:       clampSoC(in.BatterySoCPct),
			ExcessGeneration: in.ExcessGeneration(),
			BatteryPower:     in.BatteryPowerW,
		},
		Debug: model.Debug{
			StateReason: reason,
			NextCheck:   in.Now.Add(0),
		},
	}

	result := Result{HWSOn: priorHWSOn, HWSLastOffMs: hwsLastOffEpochMs}

	switch nextState {
	case model.StateExportPriority:
		cmd.Actions = model.Actions{SetESSMode: false, GridSetpoint: nil, EnableHWS: false, InverterMode: model.InverterModeOn}
		result.HWSOn = false

	case model.StateBatteryStorage, model.StateSelfConsume:
		cmd.Actions = model.Actions{SetESSMode: true, GridSetpoint: model.GridSetpoint(0), EnableHWS: false, InverterMode: model.InverterModeOn}
		result.HWSOn = false

	case model.StateLoadManagement:
		decision := a.hws.Process(in.BatterySoCPct, in.GenerationW, priorHWSOn, in.Now.UnixMilli(), hwsLastOffEpochMs)
		cmd.Actions = model.Actions{SetESSMode: true, GridSetpoint: model.GridSetpoint(0), EnableHWS: decision.On, InverterMode: model.InverterModeOn}
		result.HWSOn = decision.On
		result.HWSLastOffMs = decision.LastOffEpochMs
		if decision.TurnedOn {
			result.HWSTransitioned = "on"
		} else if decision.TurnedOff {
			result.HWSTransitioned = "off"
		}

	case model.StateSafeMode:
		cmd.Actions = model.Actions{SetESSMode: false, GridSetpoint: nil, EnableHWS: false, InverterMode: model.InverterModeOff}
		result.HWSOn = false

	default:
		cmd.Actions = model.Actions{SetESSMode: false, GridSetpoint: nil, EnableHWS: false, InverterMode: model.InverterModeOn}
	}

	// Leaving LOAD_MANAGEMENT with the load on switches it off: record the
	// deactivation so it is logged and starts the cooldown.
	if priorHWSOn && !result.HWSOn && result.HWSTransitioned == "" {
		result.HWSLastOffMs = in.Now.UnixMilli()
		result.HWSTransitioned = "off"
	}

	cmd.Status.BatteryProtectionActive = batteryProtectionActive
	result.Command = cmd
	return result
}

// ValidationFallback builds the degraded command emitted on a validation
// failure: ESS off, inverter left on (not the SAFE_MODE inverter-off
// command), state unchanged.
func ValidationFallback(current model.State, now time.Time, reason string) model.Command {
	return model.Command{
		Timestamp:    now,
		CurrentState: current,
		Actions:      model.Actions{SetESSMode: false, GridSetpoint: nil, EnableHWS: false, InverterMode: model.InverterModeOn},
		Debug:        model.Debug{StateReason: reason, NextCheck: now},
	}
}

// DisabledCommand builds the command emitted when the master switch is off.
func DisabledCommand(now time.Time) model.Command {
	return model.Command{
		Timestamp:    now,
		CurrentState: model.StateDisabled,
		Actions:      model.Actions{SetESSMode: false, GridSetpoint: nil, EnableHWS: false, InverterMode: model.InverterModeOn},
		Debug:        model.Debug{StateReason: "energy management disabled", NextCheck: now},
	}
}

// SafeModeCommand builds the last-resort command for a caught internal
// exception.
func SafeModeCommand(now time.Time, reason string) model.Command {
	return model.Command{
		Timestamp:    now,
		CurrentState: model.StateSafeMode,
		Actions:      model.Actions{SetESSMode: false, GridSetpoint: nil, EnableHWS: false, InverterMode: model.InverterModeOff},
		Debug:        model.Debug{StateReason: reason, NextCheck: now},
	}
}

func clampSoC(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
