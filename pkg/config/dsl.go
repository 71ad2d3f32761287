// Package config loads, validates and hot-reloads the YAML configuration
// file: the list of Targets plus named discovery/gateway driver blocks.
package config

import (
	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/model"
)

// Config is the root of the configuration file.
type Config struct {
	APIKey          string                  `yaml:"api_key"`
	Logging         logging.Config          `yaml:"logging"`
	DiscoveryServers map[string]DriverConfig `yaml:"discovery_servers"`
	GatewayServers   map[string]DriverConfig `yaml:"gateway_servers"`
	Targets          []model.Target          `yaml:"targets"`
}

// DriverConfig names a driver's kind (e.g. "nacos", "apisix") and carries
// its opaque configuration block.
type DriverConfig struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}
