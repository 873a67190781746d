// Package validator implements bounds-checking for tick input telemetry.
package validator

import (
	"fmt"

	"energy_controller/internal/model"
)

// Result is either Valid (Err == nil) or Invalid.
type Result struct {
	Err error
}

// Validate bounds-checks a tick input. Bounds: soc in [-5, 105];
// |generation|, |grid_power|, |battery_power| <= 50000; daily export kwh in
// [0, 200].
func Validate(in model.TickInput) Result {
	switch {
	case in.BatterySoCPct < -5 || in.BatterySoCPct > 105:
		return Result{Err: fmt.Errorf("%w: battery_soc_pct=%.2f out of [-5,105]", model.ErrValidation, in.BatterySoCPct)}
	case abs(in.GenerationW) > 50000:
		return Result{Err: fmt.Errorf("%w: generation_w=%.2f exceeds 50000", model.ErrValidation, in.GenerationW)}
	case abs(in.GridPowerW) > 50000:
		return Result{Err: fmt.Errorf("%w: grid_power_w=%.2f exceeds 50000", model.ErrValidation, in.GridPowerW)}
	case abs(in.BatteryPowerW) > 50000:
		return Result{Err: fmt.Errorf("%w: battery_power_w=%.2f exceeds 50000", model.ErrValidation, in.BatteryPowerW)}
	case in.DailyExportKWh() < 0 || in.DailyExportKWh() > 200:
		return Result{Err: fmt.Errorf("%w: daily_export_kwh=%.2f out of [0,200]", model.ErrValidation, in.DailyExportKWh())}
	default:
		return Result{}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
