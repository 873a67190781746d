// Package config loads the engine and daemon configuration from defaults,
// an optional YAML file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Config mirrors the recognized option list.
type Config struct {
	MaxSoCThreshold                 float64            `mapstructure:"max_soc_threshold"`
	MinSoCThreshold                 float64            `mapstructure:"min_soc_threshold"`
	HWSPowerRating                  float64            `mapstructure:"hws_power_rating"`
	HWSSoCDropThreshold             float64            `mapstructure:"hws_soc_drop_threshold"`
	HWSGenerationDropThreshold      float64            `mapstructure:"hws_generation_drop_threshold"`
	HWSCooldownPeriodMin            int                `mapstructure:"hws_cooldown_period"`
	ExportTargetPercentage          float64            `mapstructure:"export_target_percentage"`
	BatteryChargingThreshold        float64            `mapstructure:"battery_charging_threshold"`
	StrongChargingThreshold         float64            `mapstructure:"strong_charging_threshold"`
	MinGenerationForExport          float64            `mapstructure:"min_generation_for_export"`
	MinGenerationToStayExport       float64            `mapstructure:"min_generation_to_stay_export"`
	EveningSelfConsumeSoCThreshold  float64            `mapstructure:"evening_self_consume_soc_threshold"`
	StateChangeDebounceTimeMin      float64            `mapstructure:"state_change_debounce_time"`
	SignificantExportThreshold      float64            `mapstructure:"significant_export_threshold"`
	NightStartHour                  int                `mapstructure:"night_start_hour"`
	NightEndHour                    int                `mapstructure:"night_end_hour"`
	CatchupDays                     int                `mapstructure:"catchup_days"`
	CatchupAggressiveness           float64            `mapstructure:"catchup_aggressiveness"`
	MaxLogEntries                   int                `mapstructure:"max_log_entries"`
	LogMaxAgeDays                   int                `mapstructure:"log_max_age_days"`
	LogCleanupIntervalHours         int                `mapstructure:"log_cleanup_interval_hours"`
	MonthlyTargets                  map[string]float64 `mapstructure:"monthly_targets"`
	LocalOffsetHours                int                `mapstructure:"local_offset_hours"`

	// Daemon wiring, not engine semantics.
	StoreDBPath    string `mapstructure:"store_db_path"`
	HTTPAddr       string `mapstructure:"http_addr"`
	MQTTBroker     string `mapstructure:"mqtt_broker"`
	MQTTTelemetryTopic string `mapstructure:"mqtt_telemetry_topic"`
	MQTTCommandTopic   string `mapstructure:"mqtt_command_topic"`
	TickIntervalSec    int    `mapstructure:"tick_interval_seconds"`
	LogPretty          bool   `mapstructure:"log_pretty"`
}

// DefaultMonthlyTargets is the fallback seasonal kWh/day table used when a
// deployment does not supply its own.
func DefaultMonthlyTargets() map[string]float64 {
	return map[string]float64{
		"1": 18, "2": 20, "3": 23, "4": 25, "5": 27, "6": 25,
		"7": 23.5, "8": 24, "9": 23, "10": 21, "11": 18, "12": 17,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_soc_threshold", 99.0)
	v.SetDefault("min_soc_threshold", 25.0)
	v.SetDefault("hws_power_rating", 3000.0)
	v.SetDefault("hws_soc_drop_threshold", 5.0)
	v.SetDefault("hws_generation_drop_threshold", 1500.0)
	v.SetDefault("hws_cooldown_period", 30)
	v.SetDefault("export_target_percentage", 40.0)
	v.SetDefault("battery_charging_threshold", 50.0)
	v.SetDefault("strong_charging_threshold", 1000.0)
	v.SetDefault("min_generation_for_export", 500.0)
	v.SetDefault("min_generation_to_stay_export", 300.0)
	v.SetDefault("evening_self_consume_soc_threshold", 30.0)
	v.SetDefault("state_change_debounce_time", 5.0)
	v.SetDefault("significant_export_threshold", 2000.0)
	v.SetDefault("night_start_hour", 21)
	v.SetDefault("night_end_hour", 6)
	v.SetDefault("catchup_days", 5)
	v.SetDefault("catchup_aggressiveness", 1.0)
	v.SetDefault("max_log_entries", 500)
	v.SetDefault("log_max_age_days", 30)
	v.SetDefault("log_cleanup_interval_hours", 24)
	v.SetDefault("monthly_targets", DefaultMonthlyTargets())
	v.SetDefault("local_offset_hours", 10)

	v.SetDefault("store_db_path", "controller.db")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("mqtt_broker", "tcp://localhost:1883")
	v.SetDefault("mqtt_telemetry_topic", "energy/controller/telemetry")
	v.SetDefault("mqtt_command_topic", "energy/controller/commands")
	v.SetDefault("tick_interval_seconds", 5)
	v.SetDefault("log_pretty", false)
}

// Load builds a Config from defaults, an optional YAML file at path (skipped
// if empty or missing), and CTRL_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CTRL")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// An explicit path that does not exist surfaces as an fs error
			// rather than viper.ConfigFileNotFoundError.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// MonthlyTarget returns the configured target for month m (1..12), falling
// back to 25.0 kWh/day for a month with no configured entry.
func (c *Config) MonthlyTarget(month int) float64 {
	key := fmt.Sprintf("%d", month)
	if v, ok := c.MonthlyTargets[key]; ok {
		return v
	}
	return 25.0
}
