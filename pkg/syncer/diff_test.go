package syncer

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masallsome/gwsyncer/pkg/model"
)

func byKey(instances []model.Instance) []model.Instance {
	sort.Slice(instances, func(i, j int) bool { return instances[i].Key() < instances[j].Key() })
	return instances
}

func TestDiffDriftAddition(t *testing.T) {
	discovery := []model.Instance{{IP: "10.0.0.1", Port: 8080, Weight: 1}, {IP: "10.0.0.2", Port: 8080, Weight: 1}}
	gatewayIns := []model.Instance{{IP: "10.0.0.1", Port: 8080, Weight: 1}}

	diff := byKey(Diff(discovery, gatewayIns))
	require.Len(t, diff, 1)
	assert.Equal(t, "10.0.0.2:8080", diff[0].Key())
	assert.True(t, diff[0].Change)
	assert.True(t, diff[0].Enabled)
}

func TestDiffDriftRemoval(t *testing.T) {
	discovery := []model.Instance{{IP: "10.0.0.1", Port: 8080, Weight: 1}}
	gatewayIns := []model.Instance{{IP: "10.0.0.1", Port: 8080, Weight: 1}, {IP: "10.0.0.9", Port: 9000, Weight: 1}}

	diff := byKey(Diff(discovery, gatewayIns))
	require.Len(t, diff, 1)
	assert.Equal(t, "10.0.0.9:9000", diff[0].Key())
	assert.False(t, diff[0].Enabled)
}

func TestDiffWeightChange(t *testing.T) {
	discovery := []model.Instance{{IP: "10.0.0.1", Port: 8080, Weight: 5}}
	gatewayIns := []model.Instance{{IP: "10.0.0.1", Port: 8080, Weight: 1}}

	diff := Diff(discovery, gatewayIns)
	require.Len(t, diff, 1)
	assert.Equal(t, 5, diff[0].Weight)
	assert.True(t, diff[0].Change)
	assert.True(t, diff[0].Enabled)
}

func TestDiffNoChangeWhenEqual(t *testing.T) {
	discovery := []model.Instance{{IP: "10.0.0.1", Port: 8080, Weight: 1}}
	gatewayIns := []model.Instance{{IP: "10.0.0.1", Port: 8080, Weight: 1}}
	assert.Empty(t, Diff(discovery, gatewayIns))
}
