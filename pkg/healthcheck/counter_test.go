package healthcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/masallsome/gwsyncer/pkg/model"
)

func TestApplyOutcomeSuccessZeroesFailures(t *testing.T) {
	inst := model.DiscoveryInstance{Failures: 3, Timeouts: 2}
	ApplyOutcome(&inst, Success)
	assert.Equal(t, 1, inst.Successes)
	assert.Equal(t, 0, inst.Failures)
	assert.Equal(t, 0, inst.Timeouts)
}

func TestApplyOutcomeFailureZeroesSuccesses(t *testing.T) {
	inst := model.DiscoveryInstance{Successes: 5}
	ApplyOutcome(&inst, Failure)
	assert.Equal(t, 0, inst.Successes)
	assert.Equal(t, 1, inst.Failures)
}

func TestApplyOutcomeClampsAt256(t *testing.T) {
	inst := model.DiscoveryInstance{Successes: 256}
	ApplyOutcome(&inst, Success)
	assert.Equal(t, 256, inst.Successes)
}

func TestNextStatusDefaultsToOne(t *testing.T) {
	inst := model.DiscoveryInstance{Failures: 1}
	assert.Equal(t, model.HealthUnhealthy, NextStatus(inst, model.HealthCheckConfig{}))

	inst = model.DiscoveryInstance{Successes: 1}
	assert.Equal(t, model.HealthHealthy, NextStatus(inst, model.HealthCheckConfig{}))
}

func TestStatusMatchesFamily(t *testing.T) {
	assert.True(t, statusMatches(503, []string{"5xx"}))
	assert.True(t, statusMatches(200, []string{"2XX"}))
	assert.True(t, statusMatches(404, []string{"404"}))
	assert.False(t, statusMatches(404, []string{"5xx"}))
}
