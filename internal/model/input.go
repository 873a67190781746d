package model

import "time"

// InverterMode mirrors the opaque integer mode reported by and sent to the
// inverter. The engine only ever reads/writes two of its values.
type InverterMode int

const (
	InverterModeOn  InverterMode = 3
	InverterModeOff InverterMode = 4
)

// TickInput is the validated snapshot of telemetry consumed by one tick.
// It is read once at the top of a tick and never re-read.
type TickInput struct {
	DailyExportWh  float64
	GridPowerW     float64
	GenerationW    float64
	BatterySoCPct  float64
	BatteryPowerW  float64
	InverterMode   InverterMode
	Enabled        bool
	Now            time.Time
}

// DailyExportKWh is a convenience conversion used throughout target/transition math.
func (t TickInput) DailyExportKWh() float64 {
	return t.DailyExportWh / 1000.0
}

// Charging reports whether the battery is currently being charged.
func (t TickInput) Charging() bool {
	return t.BatteryPowerW > 0
}

// Discharging reports whether the battery is currently being discharged.
func (t TickInput) Discharging() bool {
	return t.BatteryPowerW < 0
}

// ExcessGeneration is max(0, -grid_power_w): generation beyond what the
// house and battery are currently absorbing.
func (t TickInput) ExcessGeneration() float64 {
	if t.GridPowerW < 0 {
		return -t.GridPowerW
	}
	return 0
}
