package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_controller/internal/model"
)

func validInput() model.TickInput {
	return model.TickInput{
		BatterySoCPct: 60,
		GenerationW:   2000,
		GridPowerW:    -500,
		BatteryPowerW: 100,
		DailyExportWh: 5000,
	}
}

func TestValidate_AcceptsInRangeInput(t *testing.T) {
	res := Validate(validInput())
	assert.NoError(t, res.Err)
}

func TestValidate_RejectsSoCOutOfRange(t *testing.T) {
	in := validInput()
	in.BatterySoCPct = 200

	res := Validate(in)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, model.ErrValidation)
}

func TestValidate_AcceptsSoCBoundaries(t *testing.T) {
	in := validInput()
	in.BatterySoCPct = -5
	assert.NoError(t, Validate(in).Err)

	in.BatterySoCPct = 105
	assert.NoError(t, Validate(in).Err)
}

func TestValidate_RejectsExcessiveGeneration(t *testing.T) {
	in := validInput()
	in.GenerationW = 60000
	assert.ErrorIs(t, Validate(in).Err, model.ErrValidation)
}

func TestValidate_RejectsExcessiveGridPower(t *testing.T) {
	in := validInput()
	in.GridPowerW = -60000
	assert.ErrorIs(t, Validate(in).Err, model.ErrValidation)
}

func TestValidate_RejectsExcessiveBatteryPower(t *testing.T) {
	in := validInput()
	in.BatteryPowerW = 50001
	assert.ErrorIs(t, Validate(in).Err, model.ErrValidation)
}

func TestValidate_RejectsNegativeDailyExport(t *testing.T) {
	in := validInput()
	in.DailyExportWh = -1
	assert.ErrorIs(t, Validate(in).Err, model.ErrValidation)
}

func TestValidate_RejectsExcessiveDailyExport(t *testing.T) {
	in := validInput()
	in.DailyExportWh = 200001
	assert.ErrorIs(t, Validate(in).Err, model.ErrValidation)
}
