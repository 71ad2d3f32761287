package config

import (
	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/scheduler"
)

// minAPIKeyLength rejects an obviously-too-weak SYNCER-API-KEY at load time
// rather than letting every request silently 401 against an empty key.
const minAPIKeyLength = 8

// Validate fails fast on load-time configuration errors: a weak API key,
// targets referencing undeclared drivers, or a schedule expression the
// scheduler's parser rejects.
func Validate(cfg *Config) error {
	if cfg.APIKey != "" && len(cfg.APIKey) < minAPIKeyLength {
		return gwerrors.Configuration("api_key must be at least %d characters", minAPIKeyLength)
	}

	for _, t := range cfg.Targets {
		if !t.Enabled {
			continue
		}
		if _, ok := cfg.DiscoveryServers[t.Discovery]; !ok {
			return gwerrors.Configuration("target %s references unknown discovery %q", t.ID, t.Discovery)
		}
		if _, ok := cfg.GatewayServers[t.Gateway]; !ok {
			return gwerrors.Configuration("target %s references unknown gateway %q", t.ID, t.Gateway)
		}
		if _, _, err := scheduler.ParseSchedule(t.FetchInterval); err != nil {
			return err
		}
	}
	return nil
}
