package transition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_controller/internal/model"
)

func baseThresholds() Thresholds {
	return Thresholds{
		MaxSoCThreshold:                99,
		MinSoCThreshold:                25,
		HWSPowerRating:                 3000,
		ExportTargetPercentage:         40,
		BatteryChargingThreshold:       50,
		StrongChargingThreshold:        1000,
		MinGenerationForExport:         500,
		MinGenerationToStayExport:      300,
		EveningSelfConsumeSoCThreshold: 30,
		StateChangeDebounceTime:        5 * time.Minute,
		SignificantExportThreshold:     2000,
		NightStartHour:                 21,
		NightEndHour:                   6,
		HWSSoCDropThreshold:            5,
		HWSGenerationDropThreshold:     1500,
	}
}

func noonInput() model.TickInput {
	return model.TickInput{
		Now:           time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC),
		GenerationW:   3000,
		GridPowerW:    -1500,
		BatterySoCPct: 60,
		BatteryPowerW: 0,
		Enabled:       true,
	}
}

func nightInput() model.TickInput {
	in := noonInput()
	in.Now = time.Date(2026, 8, 6, 23, 0, 0, 0, time.UTC)
	in.GenerationW = 0
	return in
}

func TestEvaluate_Rule1_StaleGenerationProtection(t *testing.T) {
	e := New(baseThresholds())
	in := noonInput()
	in.GridPowerW = -2500
	in.GenerationW = 100

	decision, _ := e.Evaluate(model.StateExportPriority, in, nil, 25.0, false)

	assert.Equal(t, model.StateExportPriority, decision.NextState)
	assert.Equal(t, model.LogDataProtection, decision.LogType)
}

func TestEvaluate_Rule2_BatteryProtectionBypassesDebounce(t *testing.T) {
	e := New(baseThresholds())
	in := noonInput()
	in.BatterySoCPct = 20
	in.BatteryPowerW = -500

	reg := map[string]int64{"EXPORT_PRIORITY_to_SELF_CONSUME": time.Now().UnixMilli()}
	decision, newReg := e.Evaluate(model.StateBatteryStorage, in, reg, 25.0, false)

	assert.Equal(t, model.StateExportPriority, decision.NextState)
	assert.True(t, decision.BypassedDebounce)
	assert.Equal(t, model.LogBatteryProtection, decision.LogType)
	assert.Empty(t, newReg, "battery protection clears the entire registry")
}

func TestEvaluate_Rule3_UnderTargetResetStartsDebounce(t *testing.T) {
	e := New(baseThresholds())
	in := noonInput()

	decision, reg := e.Evaluate(model.StateSelfConsume, in, nil, 25.0, false)

	assert.Equal(t, model.StateSelfConsume, decision.NextState, "first request is pending, state unchanged")
	assert.Equal(t, model.LogDebounce, decision.LogType)
	assert.NotEmpty(t, reg["SELF_CONSUME_to_EXPORT_PRIORITY"])
}

func TestEvaluate_Rule3_ApprovesAfterDebounceElapses(t *testing.T) {
	e := New(baseThresholds())
	in := noonInput()

	first, reg := e.Evaluate(model.StateSelfConsume, in, nil, 25.0, false)
	require.Equal(t, model.StateSelfConsume, first.NextState)

	later := in
	later.Now = in.Now.Add(6 * time.Minute)
	second, reg2 := e.Evaluate(model.StateSelfConsume, later, reg, 25.0, false)

	assert.Equal(t, model.StateExportPriority, second.NextState)
	assert.Empty(t, reg2, "approval clears the whole registry")
}

func TestEvaluate_Rule5_HysteresisExitFromExportPriority(t *testing.T) {
	e := New(baseThresholds())
	in := noonInput()
	in.GenerationW = 100 // below MinGenerationToStayExport
	in.BatteryPowerW = 0
	in.BatterySoCPct = 60

	decision, _ := e.Evaluate(model.StateExportPriority, in, nil, 25.0, false)

	assert.Equal(t, model.StateExportPriority, decision.NextState, "first request pending")
	assert.Equal(t, model.LogDebounce, decision.LogType)
}

func TestEvaluate_Rule5_DoesNotFireAtNight(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()
	in.BatterySoCPct = 28 // above the 25% minimum, so only the night check
	// keeps rule 5 from firing, and below the 30% evening self-consume
	// threshold, so the default table's low-generation fallback doesn't match.

	decision, _ := e.Evaluate(model.StateExportPriority, in, nil, 25.0, false)

	// night suppresses rules 3/4/5, falls through to the default table,
	// which has no transition for EXPORT_PRIORITY with these readings.
	assert.Equal(t, model.StateExportPriority, decision.NextState)
	assert.Equal(t, model.LogStateChange, decision.LogType)
}

func TestDefaultTransition_ExportPriorityToSelfConsumeOnLowGeneration(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput() // generation 0; night suppresses rules 3/4/5
	in.BatterySoCPct = 50

	decision, _ := e.Evaluate(model.StateExportPriority, in, nil, 100.0, false) // huge target so targetReached=false but night suppresses rules

	// target not reached but night=true suppresses rule3, and rule5 requires !night too.
	assert.Equal(t, model.StateSelfConsume, decision.NextState)
}

func TestDefaultTransition_ExportPriorityReachesTarget(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()
	in.DailyExportWh = 30000 // 30kWh

	decision, _ := e.Evaluate(model.StateExportPriority, in, nil, 25.0, false)

	assert.Equal(t, model.StateBatteryStorage, decision.NextState)
}

func TestDefaultTransition_BatteryStorageToLoadManagement(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()
	in.BatterySoCPct = 99
	in.GridPowerW = -2800 // excess 2800 > 0.8*3000=2400

	decision, _ := e.Evaluate(model.StateBatteryStorage, in, nil, 25.0, false)

	assert.Equal(t, model.StateLoadManagement, decision.NextState)
}

func TestDefaultTransition_BatteryStorageToSelfConsumeWhenDischarging(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()
	in.BatterySoCPct = 60
	in.BatteryPowerW = -200

	decision, _ := e.Evaluate(model.StateBatteryStorage, in, nil, 25.0, false)

	assert.Equal(t, model.StateSelfConsume, decision.NextState)
}

func TestDefaultTransition_LoadManagementExitsOnSoCDrop(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()
	in.BatterySoCPct = 80 // <= 99-5=94
	in.GenerationW = 0

	decision, _ := e.Evaluate(model.StateLoadManagement, in, nil, 25.0, true)

	assert.Equal(t, model.StateBatteryStorage, decision.NextState)
}

func TestDefaultTransition_LoadManagementExitsToSelfConsumeWhenSoCLow(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()
	in.BatterySoCPct = 20
	in.GenerationW = 0

	decision, _ := e.Evaluate(model.StateLoadManagement, in, nil, 25.0, true)

	assert.Equal(t, model.StateSelfConsume, decision.NextState)
}

func TestDefaultTransition_LoadManagementHoldsWhenHWSNeverEngaged(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()
	in.BatterySoCPct = 20 // would otherwise exit to SELF_CONSUME
	in.GenerationW = 0

	decision, _ := e.Evaluate(model.StateLoadManagement, in, nil, 25.0, false)

	assert.Equal(t, model.StateLoadManagement, decision.NextState, "soc/generation drop only exits LOAD_MANAGEMENT if the load was actually on")
}

func TestDefaultTransition_SelfConsumeToExportPriorityWhenChargingAndTargetUnmet(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()
	in.BatteryPowerW = 800

	decision, _ := e.Evaluate(model.StateSelfConsume, in, nil, 100.0, false)

	assert.Equal(t, model.StateExportPriority, decision.NextState)
}

func TestDefaultTransition_UnknownStateFallsBackToSafeMode(t *testing.T) {
	e := New(baseThresholds())
	in := nightInput()

	decision, _ := e.Evaluate(model.State("BOGUS"), in, nil, 25.0, false)

	assert.Equal(t, model.StateSafeMode, decision.NextState)
}
