// Package target implements the rolling-window adaptive export target
// calculator: a 30-day rolling mean compared against the static monthly
// target, with piecewise catch-up/cooldown adjustment.
package target

import (
	"fmt"

	"energy_controller/internal/model"
)

// Calculator computes AdaptiveTargetResult from export history.
type Calculator struct {
	CatchupDays            int
	CatchupAggressiveness  float64
}

// New builds a Calculator. aggressiveness defaults to 1.0 (no effect on the
// deficit-over-catchup_days formula) when zero.
func New(catchupDays int, aggressiveness float64) *Calculator {
	if aggressiveness == 0 {
		aggressiveness = 1.0
	}
	return &Calculator{CatchupDays: catchupDays, CatchupAggressiveness: aggressiveness}
}

// Evaluate computes the adaptive target for the window ending at the most
// recent entry of history, against the static monthly target staticTarget
// for the current month. When history has fewer than 3 entries it returns
// the static target unmodified with writeCache=false.
func (c *Calculator) Evaluate(history []model.DailyRecord, staticTarget float64) (model.AdaptiveTargetResult, bool) {
	n := len(history)
	if n > 30 {
		history = history[n-30:]
		n = 30
	}

	if n < 3 {
		return model.AdaptiveTargetResult{
			BaseTarget:          staticTarget,
			StaticMonthlyTarget: staticTarget,
			PerformanceRatio:    1.0,
			AdjustedTarget:      staticTarget,
			AdjustmentReason:    "insufficient-history",
		}, false
	}

	var sum float64
	months := map[int]bool{}
	for _, r := range history {
		sum += r.ExportKWh
		if m, err := monthOf(r.Date); err == nil {
			months[m] = true
		}
	}
	baseTarget := sum / float64(n)
	ratio := baseTarget / staticTarget

	var adjusted float64
	var reason string
	switch {
	case ratio < 0.9:
		totalDeficit := staticTarget*float64(n) - sum
		catchupPerDay := (totalDeficit / float64(c.CatchupDays)) * c.CatchupAggressiveness
		adjusted = staticTarget + catchupPerDay
		if cap := 2 * staticTarget; adjusted > cap {
			adjusted = cap
		}
		reason = "under-performing: catch-up applied"
	case ratio > 1.1:
		cooldown := (baseTarget - staticTarget) * 0.3
		adjusted = staticTarget - cooldown
		if floor := 0.8 * staticTarget; adjusted < floor {
			adjusted = floor
		}
		reason = "over-performing: cooldown applied"
	default:
		adjusted = staticTarget
		reason = "on-target"
	}

	return model.AdaptiveTargetResult{
		BaseTarget:          baseTarget,
		StaticMonthlyTarget: staticTarget,
		PerformanceRatio:    ratio,
		AdjustedTarget:      adjusted,
		HasMixedMonths:      len(months) > 1,
		RollingDays:         n,
		RollingExportTotal:  sum,
		AdjustmentReason:    reason,
	}, true
}

func monthOf(date string) (int, error) {
	var y, m, d int
	if _, err := fmt.Sscanf(date, "%d-%d-%d", &y, &m, &d); err != nil {
		return 0, err
	}
	return m, nil
}
