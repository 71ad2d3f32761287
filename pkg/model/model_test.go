package model

import "testing"

import "github.com/stretchr/testify/assert"

func TestInstanceKey(t *testing.T) {
	i := Instance{IP: "10.0.0.1", Port: 8080}
	assert.Equal(t, "10.0.0.1:8080", i.Key())
}

func TestInstanceCloneIsolatesMaps(t *testing.T) {
	i := Instance{IP: "10.0.0.1", Port: 8080, Metadata: map[string]string{"a": "b"}}
	c := i.Clone()
	c.Metadata["a"] = "z"
	assert.Equal(t, "b", i.Metadata["a"])
}

func TestClampCountersBoundsToRange(t *testing.T) {
	d := &DiscoveryInstance{Successes: 300, Failures: -5, Timeouts: 257}
	d.ClampCounters()
	assert.Equal(t, 256, d.Successes)
	assert.Equal(t, 0, d.Failures)
	assert.Equal(t, 256, d.Timeouts)
}
