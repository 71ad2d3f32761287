// Package model holds the canonical data types the reconciliation engine and
// every driver exchange: Instance, Service, Target, Registration, and the two
// persisted rows (DiscoveryInstance, Job).
package model

import "strconv"

// Instance is the canonical unit of a backend endpoint, as seen by either a
// discovery registry or a gateway upstream.
type Instance struct {
	IP       string            `json:"ip"`
	Port     int               `json:"port"`
	Weight   int               `json:"weight"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Enabled  bool              `json:"enabled"`
	// Change is a transient marker meaning "this instance should be pushed
	// this cycle"; it never persists across a cycle.
	Change bool `json:"-"`
	// Ext carries driver-private round-trip data (Eureka instanceId, Nacos
	// clusterName/namespaceId/ephemeral, ...). The engine treats it as opaque.
	Ext map[string]any `json:"ext,omitempty"`
}

// Key returns the ip:port identity used to match instances across sides.
func (i Instance) Key() string {
	return i.IP + ":" + strconv.Itoa(i.Port)
}

// Clone returns a shallow copy suitable for mutating Change/Enabled without
// aliasing the original slice element.
func (i Instance) Clone() Instance {
	c := i
	if i.Metadata != nil {
		c.Metadata = make(map[string]string, len(i.Metadata))
		for k, v := range i.Metadata {
			c.Metadata[k] = v
		}
	}
	if i.Ext != nil {
		c.Ext = make(map[string]any, len(i.Ext))
		for k, v := range i.Ext {
			c.Ext[k] = v
		}
	}
	return c
}

// Service is a named collection of instances as reported by a discovery
// backend; LastTime is a registry hint (epoch seconds, -1 if unavailable).
type Service struct {
	Name      string     `json:"name"`
	LastTime  int64      `json:"last_time"`
	Instances []Instance `json:"instances,omitempty"`
}

// Target is a configured (discovery, gateway) reconciliation pair with a
// schedule. ID is assigned at reload time as "{index}-{gateway}-{discovery}".
type Target struct {
	ID                 string            `yaml:"id" json:"id"`
	Discovery          string            `yaml:"discovery" json:"discovery"`
	Gateway            string            `yaml:"gateway" json:"gateway"`
	Name               string            `yaml:"name" json:"name"`
	Enabled            bool              `yaml:"enabled" json:"enabled"`
	ExcludeService     []string          `yaml:"exclude_service" json:"exclude_service,omitempty"`
	UpstreamPrefix     string            `yaml:"upstream_prefix" json:"upstream_prefix,omitempty"`
	FetchInterval      string            `yaml:"fetch_interval" json:"fetch_interval"`
	MaximumIntervalSec int64             `yaml:"maximum_interval_sec" json:"maximum_interval_sec"`
	Config             TargetConfig      `yaml:"config" json:"config"`
}

// TargetConfig is the opaque per-driver mapping attached to a Target: an
// optional upstream-body template, the APISIX/Kong version hint and a nested
// healthcheck block.
type TargetConfig struct {
	Template    string             `yaml:"template,omitempty" json:"template,omitempty"`
	Version     string             `yaml:"version,omitempty" json:"version,omitempty"`
	Extra       map[string]any     `yaml:"extra,omitempty" json:"extra,omitempty"`
	HealthCheck *HealthCheckConfig `yaml:"healthcheck,omitempty" json:"healthcheck,omitempty"`
}

// HealthCheckConfig scopes the active-probing loop to a target, per spec §4.7.
type HealthCheckConfig struct {
	Type      string        `yaml:"type" json:"type"` // http|https
	Method    string        `yaml:"method" json:"method"`
	URI       string        `yaml:"uri" json:"uri"`
	TimeoutSec int          `yaml:"timeout_sec" json:"timeout_sec"`
	Healthy   HealthRule    `yaml:"healthy" json:"healthy"`
	Unhealthy HealthRule    `yaml:"unhealthy" json:"unhealthy"`
	Alert     AlertConfig   `yaml:"alert" json:"alert"`
	MinHosts  int           `yaml:"min-hosts" json:"min_hosts"`
}

// HealthRule names the HTTP-status families/exact codes and counter
// thresholds that drive a status transition.
type HealthRule struct {
	HTTPStatuses []string `yaml:"http_statuses" json:"http_statuses"`
	Successes    int      `yaml:"successes" json:"successes"`
	Failures     int      `yaml:"failures" json:"failures"`
	Timeouts     int      `yaml:"timeouts" json:"timeouts"`
}

// AlertConfig is the optional fan-out target on a health-status transition.
type AlertConfig struct {
	URL    string `yaml:"url" json:"url"`
	Method string `yaml:"method" json:"method"`
}

// RegistrationType selects how Registration.RegexpStr is matched.
type RegistrationType string

const (
	RegistrationTypeIP       RegistrationType = "IP"
	RegistrationTypeMetadata RegistrationType = "METADATA"
)

// RegistrationStatus is the desired enabled-state action.
type RegistrationStatus string

const (
	StatusUP     RegistrationStatus = "UP"
	StatusDOWN   RegistrationStatus = "DOWN"
	StatusOrigin RegistrationStatus = "ORIGIN"
)

// Registration is the instruction body for the manual enable/disable endpoint.
type Registration struct {
	Type         RegistrationType   `json:"type"`
	RegexpStr    string             `json:"regexp_str"`
	MetadataKey  string             `json:"metadata_key,omitempty"`
	Status       RegistrationStatus `json:"status"`
	OtherStatus  RegistrationStatus `json:"other_status"`
	ServiceName  string             `json:"service_name"`
	ExtData      map[string]any     `json:"ext_data,omitempty"`
}

// HealthyStatus ∈ {unknown, healthy, unhealthy}, the transitional state
// tracked per (target, service, instance) by the health-check subsystem.
type HealthyStatus string

const (
	HealthUnknown   HealthyStatus = "unknown"
	HealthHealthy   HealthyStatus = "healthy"
	HealthUnhealthy HealthyStatus = "unhealthy"
)

// DiscoveryInstance is the persisted health-counter row. Successes, Failures
// and Timeouts are always clamped to [0, 256].
type DiscoveryInstance struct {
	ID         string        `json:"id"`
	TargetID   string        `json:"target_id"`
	Service    string        `json:"service"`
	Instance   string        `json:"instance"` // "ip:port"
	Successes  int           `json:"successes"`
	Failures   int           `json:"failures"`
	Timeouts   int           `json:"timeouts"`
	Status     HealthyStatus `json:"status"`
	CreateTime int64         `json:"create_time"`
	LastTime   int64         `json:"last_time"`
}

const counterClamp = 256

// ClampCounters bounds Successes, Failures and Timeouts to [0, 256]. The
// rule that a success zeroes both failure counters (and vice versa) is
// applied by healthcheck.ApplyOutcome, not here.
func (d *DiscoveryInstance) ClampCounters() {
	if d.Successes > counterClamp {
		d.Successes = counterClamp
	}
	if d.Failures > counterClamp {
		d.Failures = counterClamp
	}
	if d.Timeouts > counterClamp {
		d.Timeouts = counterClamp
	}
	if d.Successes < 0 {
		d.Successes = 0
	}
	if d.Failures < 0 {
		d.Failures = 0
	}
	if d.Timeouts < 0 {
		d.Timeouts = 0
	}
}

// Job is the persisted per-target bookkeeping row, refreshed whenever a
// successful syncer pass completes.
type Job struct {
	TargetID           string `json:"target_id"`
	Description        string `json:"description"`
	Discovery          string `json:"discovery"`
	Gateway            string `json:"gateway"`
	MaximumIntervalSec int64  `json:"maximum_interval_sec"`
	Enabled            bool   `json:"enabled"`
	LastTime           int64  `json:"last_time"`
}
