package actuator

import "time"

// HWSConfig configures the controlled-load (hot water system) sub-controller,
// mirroring the small config-struct-plus-Process shape a stateful per-tick
// sub-controller takes in this codebase.
type HWSConfig struct {
	MaxSoCThreshold            float64
	HWSSoCDropThreshold        float64
	HWSGenerationDropThreshold float64
	CooldownPeriod             time.Duration
}

// HWSController decides the hot-water-system on/off command.
type HWSController struct {
	cfg HWSConfig
}

// NewHWSController builds a controller for the given configuration.
func NewHWSController(cfg HWSConfig) *HWSController {
	return &HWSController{cfg: cfg}
}

// HWSDecision is the outcome of one Process call.
type HWSDecision struct {
	On              bool
	TurnedOn        bool
	TurnedOff       bool
	LastOffEpochMs  int64
}

// Process evaluates the on/off/hold decision for the controlled load given
// the current soc/generation, the prior commanded state, and the last
// deactivation time. now and lastOffEpochMs are both epoch milliseconds.
func (h *HWSController) Process(soc, generationW float64, priorOn bool, nowMs, lastOffEpochMs int64) HWSDecision {
	cooldownExpired := lastOffEpochMs == 0 || time.Duration(nowMs-lastOffEpochMs)*time.Millisecond >= h.cfg.CooldownPeriod
	socHealthy := soc > h.cfg.MaxSoCThreshold-h.cfg.HWSSoCDropThreshold
	genSufficient := generationW >= h.cfg.HWSGenerationDropThreshold

	switch {
	case !priorOn && cooldownExpired && socHealthy && genSufficient:
		return HWSDecision{On: true, TurnedOn: true, LastOffEpochMs: lastOffEpochMs}
	case priorOn && (!socHealthy || !genSufficient):
		return HWSDecision{On: false, TurnedOff: true, LastOffEpochMs: nowMs}
	default:
		return HWSDecision{On: priorOn, LastOffEpochMs: lastOffEpochMs}
	}
}

// Reset is a no-op: HWSController holds only static configuration, and all
// dynamic state (priorOn, lastOffEpochMs) is owned by the engine's
// persisted EngineState.
func (h *HWSController) Reset() {}
