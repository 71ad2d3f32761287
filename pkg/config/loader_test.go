package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
api_key: a-long-enough-key
discovery_servers:
  nacos1:
    type: nacos
    config:
      host: http://127.0.0.1:8848
gateway_servers:
  apisix1:
    type: apisix
    config:
      admin_url: http://127.0.0.1:9180
targets:
  - discovery: nacos1
    gateway: apisix1
    name: demo
    enabled: true
    fetch_interval: "@every 30s"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAssignsTargetIDs(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "0-apisix1-nacos1", cfg.Targets[0].ID)
}

func TestLoadConfigRejectsWeakAPIKey(t *testing.T) {
	path := writeTempConfig(t, `
api_key: short
targets: []
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownDriverReference(t *testing.T) {
	path := writeTempConfig(t, `
api_key: a-long-enough-key
discovery_servers: {}
gateway_servers: {}
targets:
  - discovery: missing
    gateway: missing
    enabled: true
    fetch_interval: "@every 30s"
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadSchedule(t *testing.T) {
	path := writeTempConfig(t, `
api_key: a-long-enough-key
discovery_servers:
  d1: {type: nacos, config: {}}
gateway_servers:
  g1: {type: apisix, config: {}}
targets:
  - discovery: d1
    gateway: g1
    enabled: true
    fetch_interval: "not a schedule"
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
