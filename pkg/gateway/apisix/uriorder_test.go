package apisix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedBucketsNonDecreasing(t *testing.T) {
	buckets := orderedBuckets()
	require.Len(t, buckets, 4)
	assert.Contains(t, buckets[1], "consumers")
	assert.Contains(t, buckets[2], "upstreams")
	assert.Contains(t, buckets[2], "services")
	assert.Contains(t, buckets[3], "routes")
	assert.Contains(t, buckets[0], "ssl")
	assert.Contains(t, buckets[0], "plugins/list")
}

func TestAliasURIsRoundTrip(t *testing.T) {
	assert.Equal(t, "ssls", aliasFor("ssl"))
	assert.Equal(t, "ssl", aliasFor("ssls"))
	assert.Equal(t, "routes", aliasFor("routes"))
}

func TestIgnoreURIsExcludesPluginsList(t *testing.T) {
	assert.True(t, ignoreURIs["plugins/list"])
	assert.False(t, ignoreURIs["routes"])
}
