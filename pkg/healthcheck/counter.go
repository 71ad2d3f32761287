// Package healthcheck implements the active probing loop scoped to a
// target's configured healthcheck block: per-instance counters, status
// transitions and alert fan-out.
package healthcheck

import "github.com/masallsome/gwsyncer/pkg/model"

// Outcome is exactly one of the three probe results §4.7 describes.
type Outcome int

const (
	Success Outcome = iota
	Failure
	Timeout
)

// ApplyOutcome mutates inst per the clamp rule: a success zeroes both
// failure counters (and vice versa), all three capped at [0,256].
func ApplyOutcome(inst *model.DiscoveryInstance, outcome Outcome) {
	switch outcome {
	case Success:
		inst.Successes++
		inst.Failures = 0
		inst.Timeouts = 0
	case Failure:
		inst.Failures++
		inst.Successes = 0
	case Timeout:
		inst.Timeouts++
		inst.Successes = 0
	}
	inst.ClampCounters()
}

// NextStatus computes the transition for inst given the configured
// thresholds, defaulting every threshold to 1 when unset.
func NextStatus(inst model.DiscoveryInstance, cfg model.HealthCheckConfig) model.HealthyStatus {
	healthySuccesses := orDefault(cfg.Healthy.Successes, 1)
	unhealthyFailures := orDefault(cfg.Unhealthy.Failures, 1)
	unhealthyTimeouts := orDefault(cfg.Unhealthy.Timeouts, 1)

	if inst.Failures >= unhealthyFailures || inst.Timeouts >= unhealthyTimeouts {
		return model.HealthUnhealthy
	}
	if inst.Successes >= healthySuccesses {
		return model.HealthHealthy
	}
	return inst.Status
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
