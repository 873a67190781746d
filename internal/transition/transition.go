// Package transition implements the state machine's transition engine: a
// strictly ordered set of override rules, falling through to a default
// per-state transition table, backed by an anti-oscillation debounce
// registry.
package transition

import (
	"fmt"
	"time"

	"energy_controller/internal/clock"
	"energy_controller/internal/model"
)

// Thresholds holds the subset of configuration the transition engine reads.
// Field names follow the configuration option names verbatim.
type Thresholds struct {
	MaxSoCThreshold                float64
	MinSoCThreshold                float64
	HWSPowerRating                 float64
	ExportTargetPercentage         float64
	BatteryChargingThreshold       float64
	StrongChargingThreshold        float64
	MinGenerationForExport         float64
	MinGenerationToStayExport      float64
	EveningSelfConsumeSoCThreshold float64
	StateChangeDebounceTime        time.Duration
	SignificantExportThreshold     float64
	NightStartHour                 int
	NightEndHour                   int
	HWSSoCDropThreshold            float64
	HWSGenerationDropThreshold     float64
}

// Decision is the result of evaluating one tick against the state machine.
type Decision struct {
	NextState model.State
	Reason    string
	LogType   model.LogType
	Priority  model.Priority
	LogMsg    string
	// BypassedDebounce is true for the battery-protection override, which
	// takes effect in a single tick regardless of any pending request.
	BypassedDebounce bool
}

// Engine evaluates ticks against the priority-ordered override rules and
// default transition table.
type Engine struct {
	t Thresholds
}

// New builds an Engine for the given thresholds.
func New(t Thresholds) *Engine {
	return &Engine{t: t}
}

// Evaluate runs the priority-ordered rules against current, input, and
// targetReached/targetKWh, mutating reg (the debounce registry) as a side
// effect. It never mutates current itself.
func (e *Engine) Evaluate(current model.State, in model.TickInput, reg map[string]int64, targetKWh float64, hwsOn bool) (Decision, map[string]int64) {
	r := newRegistry(reg)
	now := in.Now
	night := clock.IsNight(now, e.t.NightStartHour, e.t.NightEndHour)
	excess := in.ExcessGeneration()
	targetReached := targetKWh > 0 && in.DailyExportKWh() >= targetKWh

	// Rule 1: stale-generation protection.
	if current == model.StateExportPriority &&
		in.GridPowerW < -e.t.SignificantExportThreshold &&
		in.GenerationW < 500 {
		return Decision{
			NextState: current,
			Reason:    "stale generation sensor: trusting grid meter",
			LogType:   model.LogDataProtection,
			Priority:  model.PriorityHigh,
			LogMsg:    "stale-generation protection: grid export strong but generation reads low",
		}, r.entries
	}

	// Rule 2: battery-protection override, bypasses debounce entirely.
	if in.BatterySoCPct <= e.t.MinSoCThreshold && in.Discharging() {
		r.clearAll()
		return Decision{
			NextState:        model.StateExportPriority,
			Reason:           "battery protection: SoC at or below minimum while discharging",
			LogType:          model.LogBatteryProtection,
			Priority:         model.PriorityCritical,
			LogMsg:           fmt.Sprintf("battery protection tripped at soc=%.1f%%", in.BatterySoCPct),
			BypassedDebounce: true,
		}, r.entries
	}

	sufficientSolar := in.GenerationW >= e.t.MinGenerationForExport || in.BatteryPowerW >= e.t.StrongChargingThreshold

	// Rule 3: under-target reset (daytime, sufficient solar).
	if !targetReached && !night && sufficientSolar {
		res := r.request(current, model.StateExportPriority, now, e.t.StateChangeDebounceTime)
		return e.debounceDecision(res), r.entries
	}

	// Rule 4: deep-shortfall reset.
	if targetKWh > 0 &&
		(in.DailyExportKWh()/targetKWh) < e.t.ExportTargetPercentage/100 &&
		in.BatteryPowerW >= e.t.StrongChargingThreshold &&
		!night && sufficientSolar {
		res := r.request(current, model.StateExportPriority, now, e.t.StateChangeDebounceTime)
		return e.debounceDecision(res), r.entries
	}

	// Rule 5: hysteresis exit from EXPORT_PRIORITY.
	if current == model.StateExportPriority && !night &&
		in.GenerationW < e.t.MinGenerationToStayExport &&
		in.BatteryPowerW < e.t.BatteryChargingThreshold &&
		in.BatterySoCPct > e.t.MinSoCThreshold {
		res := r.request(current, model.StateSelfConsume, now, e.t.StateChangeDebounceTime)
		return e.debounceDecision(res), r.entries
	}

	// Rule 6: default per-state transitions, no debounce.
	next, reason := e.defaultTransition(current, in, night, excess, targetReached, hwsOn)
	return Decision{
		NextState: next,
		Reason:    reason,
		LogType:   model.LogStateChange,
		Priority:  model.PriorityNormal,
		LogMsg:    reason,
	}, r.entries
}

func (e *Engine) debounceDecision(res requestResult) Decision {
	if res.approved {
		return Decision{
			NextState: res.state,
			Reason:    res.reason,
			LogType:   model.LogDebounce,
			Priority:  model.PriorityNormal,
			LogMsg:    res.reason,
		}
	}
	return Decision{
		NextState: res.state,
		Reason:    res.reason,
		LogType:   model.LogDebounce,
		Priority:  model.PriorityLow,
		LogMsg:    res.reason,
	}
}

func (e *Engine) defaultTransition(current model.State, in model.TickInput, night bool, excess float64, targetReached bool, hwsOn bool) (model.State, string) {
	switch current {
	case model.StateExportPriority:
		if targetReached {
			return model.StateBatteryStorage, "daily export target reached"
		}
		if in.GenerationW < 500 && in.BatterySoCPct > e.t.EveningSelfConsumeSoCThreshold && !in.Charging() {
			return model.StateSelfConsume, "low generation, healthy soc, not charging"
		}
		return current, "no default transition matched"

	case model.StateBatteryStorage:
		if in.BatterySoCPct >= e.t.MaxSoCThreshold && excess > 0.8*e.t.HWSPowerRating {
			return model.StateLoadManagement, "battery full and excess generation available for controlled load"
		}
		if in.BatterySoCPct <= e.t.MinSoCThreshold && !in.Charging() {
			return model.StateSelfConsume, "soc at minimum and not charging"
		}
		if in.Discharging() {
			return model.StateSelfConsume, "battery discharging"
		}
		return current, "no default transition matched"

	case model.StateLoadManagement:
		if hwsOn && (in.BatterySoCPct <= e.t.MaxSoCThreshold-e.t.HWSSoCDropThreshold || in.GenerationW < e.t.HWSGenerationDropThreshold) {
			if in.BatterySoCPct <= e.t.MinSoCThreshold {
				return model.StateSelfConsume, "controlled load conditions lapsed and soc low"
			}
			return model.StateBatteryStorage, "controlled load conditions lapsed"
		}
		return current, "no default transition matched"

	case model.StateSelfConsume:
		if in.Charging() {
			if !targetReached {
				return model.StateExportPriority, "charging and target not reached"
			}
			return model.StateBatteryStorage, "charging and target reached"
		}
		return current, "no default transition matched"

	default:
		return model.StateSafeMode, "unknown current state"
	}
}
