package model

import "time"

// Command is the output command record returned to the actuation transport
// each tick.
type Command struct {
	Timestamp    time.Time `json:"timestamp"`
	CurrentState State     `json:"current_state"`
	Actions      Actions   `json:"actions"`
	Status       Status    `json:"status"`
	Debug        Debug     `json:"debug"`
}

// Actions are the actuation outputs.
type Actions struct {
	SetESSMode   bool         `json:"set_ess_mode"`
	GridSetpoint *int         `json:"grid_setpoint"`
	EnableHWS    bool         `json:"enable_hws"`
	InverterMode InverterMode `json:"inverter_mode"`
}

// Status is the observability snapshot attached to every command.
type Status struct {
	ExportTarget            float64 `json:"export_target"`
	DailyExport             float64 `json:"daily_export"`
	TargetReached           bool    `json:"target_reached"`
	BatterySoC              float64 `json:"battery_soc"`
	ExcessGeneration        float64 `json:"excess_generation"`
	BatteryPower            float64 `json:"battery_power"`
	BatteryProtectionActive bool    `json:"battery_protection_active"`
}

// Debug carries the human-readable reason for the tick's decision.
type Debug struct {
	StateReason string    `json:"state_reason"`
	NextCheck   time.Time `json:"next_check"`
}

// GridSetpoint builds an *int grid setpoint, or nil for "none".
func GridSetpoint(w int) *int {
	v := w
	return &v
}
