// Package mqtt implements the telemetry ingestion / actuation transport
// over MQTT, using the paho client-setup and QoS-differentiated publish
// pattern common in this domain.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"energy_controller/internal/model"
)

// Telemetry mirrors the wire shape of the inbound telemetry payload.
type Telemetry struct {
	ExportDaily float64 `json:"export_daily"`
	GridPower   float64 `json:"grid_power"`
	Generation  float64 `json:"generation"`
	BatteryPower float64 `json:"battery_power"`
	VictronSoC  float64 `json:"victron_soc"`
	VictronMode int     `json:"victron_mode"`
	Enabled     bool    `json:"energy_management_enabled"`
}

// ToTickInput converts a wire Telemetry payload into a model.TickInput.
// Now is left zero; the engine stamps it.
func (t Telemetry) ToTickInput() model.TickInput {
	return model.TickInput{
		DailyExportWh: t.ExportDaily,
		GridPowerW:    t.GridPower,
		GenerationW:   t.Generation,
		BatterySoCPct: t.VictronSoC,
		BatteryPowerW: t.BatteryPower,
		InverterMode:  model.InverterMode(t.VictronMode),
		Enabled:       t.Enabled,
	}
}

// Transport subscribes to the telemetry topic and publishes the output
// command record after every tick.
type Transport struct {
	client         paho.Client
	telemetryTopic string
	commandTopic   string
}

// New connects to broker and subscribes to telemetryTopic, delivering each
// decoded Telemetry message to onTelemetry. Connection and subscription
// both block (with timeouts) so New returns only once the transport is
// actually receiving.
func New(broker, clientID, telemetryTopic, commandTopic string, onTelemetry func(Telemetry)) (*Transport, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	t := &Transport{client: client, telemetryTopic: telemetryTopic, commandTopic: commandTopic}

	subToken := client.Subscribe(telemetryTopic, 0, func(_ paho.Client, msg paho.Message) {
		var payload Telemetry
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			return
		}
		onTelemetry(payload)
	})
	if !subToken.WaitTimeout(10 * time.Second) {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscribe timeout")
	}
	if err := subToken.Error(); err != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscribe to %s: %w", telemetryTopic, err)
	}

	return t, nil
}

// PublishCommand sends the output command record. QoS 1 (at-least-once):
// actuation commands, unlike telemetry, must not be silently dropped.
func (t *Transport) PublishCommand(cmd model.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	token := t.client.Publish(t.commandTopic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish command: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (t *Transport) Close() {
	t.client.Disconnect(1000)
}
