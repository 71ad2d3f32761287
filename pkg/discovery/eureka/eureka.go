// Package eureka implements the Discovery contract against Eureka's REST API
// (/apps, /apps/{name}).
package eureka

import (
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/masallsome/gwsyncer/pkg/discovery"
	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/httpclient"
	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/model"
)

func init() {
	discovery.Register("eureka", func(config map[string]any) (discovery.Discovery, error) {
		return New(config)
	})
}

// statusEnabled is the forward Eureka-status -> enabled translation table;
// only UP and OUT_OF_SERVICE are used by the reverse mapping.
var statusEnabled = map[string]bool{
	"UP":             true,
	"DOWN":           false,
	"OUT_OF_SERVICE": false,
	"UNKNOWN":        false,
}

func reverseStatus(enabled bool) string {
	if enabled {
		return "UP"
	}
	return "OUT_OF_SERVICE"
}

// Config is Eureka's named-driver configuration block.
type Config struct {
	Host   string
	Prefix string // defaults to "/eureka/v2/"
	Weight int    // Eureka carries no per-instance weight; always the driver default
}

// Eureka talks to a Eureka REST registry.
type Eureka struct {
	cfg    Config
	client *resty.Client
}

func configFromMap(m map[string]any) Config {
	c := Config{Prefix: "/eureka/v2/", Weight: 100}
	if v, ok := m["host"].(string); ok {
		c.Host = v
	}
	if v, ok := m["prefix"].(string); ok && v != "" {
		c.Prefix = v
	}
	if v, ok := m["weight"].(int); ok && v > 0 {
		c.Weight = v
	}
	return c
}

// New builds a Eureka driver from its configuration map.
func New(config map[string]any) (*Eureka, error) {
	cfg := configFromMap(config)
	if cfg.Host == "" {
		return nil, gwerrors.Configuration("eureka driver requires a host")
	}
	log := logging.NewDefault("discovery.eureka")
	return &Eureka{cfg: cfg, client: httpclient.New(log)}, nil
}

type eurekaPort struct {
	Value string `json:"$"`
}

type eurekaLeaseInfo struct {
	ServiceUpTimestamp int64 `json:"serviceUpTimestamp"`
}

type eurekaInstance struct {
	InstanceID string            `json:"instanceId"`
	IPAddr     string            `json:"ipAddr"`
	Port       eurekaPort        `json:"port"`
	Status     string            `json:"status"`
	Metadata   map[string]string `json:"metadata"`
	LeaseInfo  eurekaLeaseInfo   `json:"leaseInfo"`
}

type eurekaApplication struct {
	Name     string           `json:"name"`
	Instance []eurekaInstance `json:"instance"`
}

// GetAllService fetches "/apps" and returns every application as a Service.
func (e *Eureka) GetAllService(config map[string]any, enabledOnly bool) ([]model.Service, error) {
	var resp struct {
		Applications struct {
			Application []eurekaApplication `json:"application"`
		} `json:"applications"`
	}
	if err := e.get("", &resp); err != nil {
		return nil, err
	}

	services := make([]model.Service, 0, len(resp.Applications.Application))
	for _, app := range resp.Applications.Application {
		instances := e.toInstances(app.Instance, enabledOnly)
		lastTime := int64(-1)
		if len(instances) > 0 {
			if v, ok := instances[0].Ext["serviceUpTimestamp"].(int64); ok {
				lastTime = v
			}
		}
		services = append(services, model.Service{Name: app.Name, LastTime: lastTime, Instances: instances})
	}
	return services, nil
}

// GetServiceAllInstances fetches "/apps/{name}" for one service. last_time is
// taken from the first instance's serviceUpTimestamp, else -1.
func (e *Eureka) GetServiceAllInstances(serviceName string, extData map[string]any, enabledOnly bool) ([]model.Instance, int64, error) {
	var resp struct {
		Application eurekaApplication `json:"application"`
	}
	if err := e.get("/"+serviceName, &resp); err != nil {
		return nil, -1, err
	}

	instances := e.toInstances(resp.Application.Instance, enabledOnly)
	lastTime := int64(-1)
	if len(instances) > 0 {
		if v, ok := instances[0].Ext["serviceUpTimestamp"].(int64); ok {
			lastTime = v
		}
	}
	return instances, lastTime, nil
}

// ModifyRegistration PUTs /apps/{appID}/{instanceID}/status?value=... for
// every instance whose Change flag is set. ext.instanceId is required.
func (e *Eureka) ModifyRegistration(reg model.Registration, instances []model.Instance) error {
	for _, inst := range instances {
		if !inst.Change {
			continue
		}
		instanceID, _ := inst.Ext["instanceId"].(string)
		uri := fmt.Sprintf("/%s/%s/status", reg.ServiceName, instanceID)
		_, err := e.client.R().
			SetQueryParam("value", reverseStatus(inst.Enabled)).
			Put(e.cfg.Host + e.cfg.Prefix + "apps" + uri)
		if err != nil {
			return gwerrors.Remote("eureka", err)
		}
	}
	return nil
}

func (e *Eureka) toInstances(raw []eurekaInstance, enabledOnly bool) []model.Instance {
	instances := make([]model.Instance, 0, len(raw))
	for _, ri := range raw {
		enabled := statusEnabled[ri.Status]
		if enabledOnly && !enabled {
			continue
		}
		port, _ := strconv.Atoi(ri.Port.Value)
		instances = append(instances, model.Instance{
			IP:       ri.IPAddr,
			Port:     port,
			Weight:   e.cfg.Weight,
			Metadata: ri.Metadata,
			Enabled:  enabled,
			Ext: map[string]any{
				"instanceId":         ri.InstanceID,
				"serviceUpTimestamp": ri.LeaseInfo.ServiceUpTimestamp / 1000,
			},
		})
	}
	return instances
}

func (e *Eureka) get(uri string, out any) error {
	resp, err := e.client.R().SetResult(out).Get(e.cfg.Host + e.cfg.Prefix + "apps" + uri)
	if err != nil {
		return gwerrors.Remote("eureka", err)
	}
	if resp.StatusCode() == 404 {
		return nil
	}
	if resp.IsError() {
		return gwerrors.Remote("eureka", fmt.Errorf("status %d", resp.StatusCode()))
	}
	return nil
}
