package apisix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodesFromValueList(t *testing.T) {
	value := map[string]any{
		"nodes": []any{
			map[string]any{"host": "10.0.0.1", "port": float64(8080), "weight": float64(1)},
		},
	}
	instances := nodesFromValue(value)
	require.Len(t, instances, 1)
	assert.Equal(t, "10.0.0.1", instances[0].IP)
	assert.Equal(t, 8080, instances[0].Port)
}

func TestNodesFromValueDictShape(t *testing.T) {
	value := map[string]any{
		"nodes": map[string]any{"10.0.0.2:9000": float64(2)},
	}
	instances := nodesFromValue(value)
	require.Len(t, instances, 1)
	assert.Equal(t, "10.0.0.2", instances[0].IP)
	assert.Equal(t, 9000, instances[0].Port)
	assert.Equal(t, 2, instances[0].Weight)
}

func TestListOrSelfWrapsBareValue(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"id": "1"})
	resp := apisixResponse{Value: raw}
	items := listOrSelf(resp)
	require.Len(t, items, 1)
}

func TestSubstituteTemplate(t *testing.T) {
	out := substitute(defaultUpstreamTemplate, map[string]string{"name": "svc-a", "nodes": "[]"})
	assert.Contains(t, out, `"id": "svc-a"`)
	assert.Contains(t, out, `"nodes": []`)
}

func TestNewRequiresAdminURL(t *testing.T) {
	_, err := New(map[string]any{})
	assert.Error(t, err)
}

func TestResourceKeyPrefersID(t *testing.T) {
	assert.Equal(t, "r1", resourceKey(map[string]any{"id": "r1", "name": "r1-name"}))
}

func TestResourceKeyFallsBackToUsernameForConsumers(t *testing.T) {
	assert.Equal(t, "alice", resourceKey(map[string]any{"username": "alice"}))
}

func TestResourceKeyFallsBackToNameForPluginMetadata(t *testing.T) {
	assert.Equal(t, "limit-count", resourceKey(map[string]any{"name": "limit-count"}))
}

func TestResourceKeyEmptyWhenNeitherPresent(t *testing.T) {
	assert.Equal(t, "", resourceKey(map[string]any{}))
}
