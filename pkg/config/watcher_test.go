package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherPublishesOnFileChange(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	w, err := NewWatcher(path)
	require.NoError(t, err)

	go func() { _ = w.Start() }()

	select {
	case cfg := <-w.Updates():
		require.Len(t, cfg.Targets, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial config load")
	}

	updated := validYAML + "  - discovery: nacos1\n    gateway: apisix1\n    name: demo2\n    enabled: true\n    fetch_interval: \"@every 30s\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-w.Updates():
		assert.Len(t, cfg.Targets, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload after file write")
	}
}
