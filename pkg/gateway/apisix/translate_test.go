package apisix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateIdentityWhenVersionsMatch(t *testing.T) {
	data := map[string]any{"plugins": map[string]any{"limit-req": map[string]any{"rate": 10}}}
	got := translate(V2, V2, data)
	assert.Equal(t, data, got)
}

func TestTranslateV2ToV3PluginDisableInversion(t *testing.T) {
	data := map[string]any{
		"plugins": map[string]any{
			"limit-req": map[string]any{"enable": false, "rate": 10},
		},
	}
	got := translate(V2, V3, data)
	plugin := got["plugins"].(map[string]any)["limit-req"].(map[string]any)
	meta := plugin["_meta"].(map[string]any)
	require.Equal(t, true, meta["disable"])
	_, hasEnable := plugin["enable"]
	assert.False(t, hasEnable)
	assert.Equal(t, 10, plugin["rate"])
}

func TestTranslateV2ToV3ServiceProtocolMove(t *testing.T) {
	data := map[string]any{
		"service_protocol": "grpc",
		"upstream":         map[string]any{"nodes": []any{}},
	}
	got := translate(V2, V3, data)
	upstream := got["upstream"].(map[string]any)
	assert.Equal(t, "grpc", upstream["scheme"])
	_, hasProto := got["service_protocol"]
	assert.False(t, hasProto)
}

func TestTranslateV3ToV2OnlyPromotesGRPC(t *testing.T) {
	data := map[string]any{
		"upstream": map[string]any{"scheme": "https"},
	}
	got := translate(V3, V2, data)
	_, hasServiceProtocol := got["service_protocol"]
	assert.False(t, hasServiceProtocol)
}

func TestTranslateV3ToV2PromotesGRPC(t *testing.T) {
	data := map[string]any{
		"upstream": map[string]any{"scheme": "grpcs"},
	}
	got := translate(V3, V2, data)
	assert.Equal(t, "grpc", got["service_protocol"])
}

func TestTranslateRoundTripPreservesPluginEnable(t *testing.T) {
	original := map[string]any{
		"plugins": map[string]any{"limit-req": map[string]any{"enable": true, "rate": 5}},
	}
	toV3 := translate(V2, V3, original)
	backToV2 := translate(V3, V2, toV3)
	plugin := backToV2["plugins"].(map[string]any)["limit-req"].(map[string]any)
	assert.Equal(t, true, plugin["enable"])
}
