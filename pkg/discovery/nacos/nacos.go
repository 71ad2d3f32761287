// Package nacos implements the Discovery contract against Nacos's catalog
// admin API (ns/catalog/...).
package nacos

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/masallsome/gwsyncer/pkg/discovery"
	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/httpclient"
	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/model"
)

func init() {
	discovery.Register("nacos", func(config map[string]any) (discovery.Discovery, error) {
		return New(config)
	})
}

// Config is Nacos's named-driver configuration block.
type Config struct {
	Host   string
	Prefix string // defaults to "/nacos/v1/"
	Weight int    // fallback per-instance weight when Nacos omits one
}

// Nacos talks to a Nacos catalog admin API.
type Nacos struct {
	cfg    Config
	client *resty.Client
}

func configFromMap(m map[string]any) Config {
	c := Config{Prefix: "/nacos/v1/", Weight: 100}
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

// New builds a Nacos driver from its configuration map.
func New(config map[string]any) (*Nacos, error) {
	cfg := configFromMap(config)
	if cfg.Host == "" {
		return nil, gwerrors.Configuration("nacos driver requires a host")
	}
	log := logging.NewDefault("discovery.nacos")
	return &Nacos{cfg: cfg, client: httpclient.New(log)}, nil
}

// nacosServiceItem is one entry of ns/catalog/services' bare-array response:
// the per-service envelope carrying a clusterName-keyed map of host lists.
type nacosServiceItem struct {
	ServiceName string `json:"serviceName"`
	GroupName   string `json:"groupName"`
	Ephemeral   bool   `json:"ephemeral"`
	ClusterMap  map[string]struct {
		Hosts []nacosHost `json:"hosts"`
	} `json:"clusterMap"`
}

// GetAllService queries ns/catalog/services?withInstances=true, dropping the
// opaque upstream-body "template" key from the query map before forwarding
// it. The endpoint's response body is a bare JSON array of service entries,
// not an envelope object.
func (n *Nacos) GetAllService(config map[string]any, enabledOnly bool) ([]model.Service, error) {
	params := stripTemplate(config)
	params["withInstances"] = "true"

	var items []nacosServiceItem
	if err := n.get("ns/catalog/services", toStringMap(params), &items); err != nil {
		return nil, err
	}

	services := make([]model.Service, 0, len(items))
	for _, item := range items {
		var instances []model.Instance
		for cluster, v := range item.ClusterMap {
			for _, h := range v.Hosts {
				if enabledOnly && !h.Enabled() {
					continue
				}
				inst := h.toInstance(n.cfg.Weight)
				inst.Ext["serviceName"] = item.ServiceName
				inst.Ext["groupName"] = item.GroupName
				inst.Ext["clusterName"] = cluster
				inst.Ext["ephemeral"] = item.Ephemeral
				instances = append(instances, inst)
			}
		}
		services = append(services, model.Service{Name: item.ServiceName, LastTime: time.Now().Unix(), Instances: instances})
	}
	return services, nil
}

// GetServiceAllInstances fetches ns/catalog/instances for a single service;
// the endpoint wraps its host array under a top-level "list" key, not
// "hosts" (only the services endpoint's per-cluster envelope uses "hosts").
// Nacos reports no update timestamp so last_time is the current wall clock.
func (n *Nacos) GetServiceAllInstances(serviceName string, extData map[string]any, enabledOnly bool) ([]model.Instance, int64, error) {
	params := stripTemplate(extData)
	params["serviceName"] = serviceName

	var resp struct {
		List []nacosHost `json:"list"`
	}
	if err := n.get("ns/catalog/instances", toStringMap(params), &resp); err != nil {
		return nil, -1, err
	}

	instances := make([]model.Instance, 0, len(resp.List))
	for _, h := range resp.List {
		if enabledOnly && !h.Enabled() {
			continue
		}
		instances = append(instances, h.toInstance(n.cfg.Weight))
	}
	return instances, time.Now().Unix(), nil
}

// ModifyRegistration PUTs ns/instance for every changed instance, merging
// instance.ext and registration.ext_data over the base fields (ext_data wins).
func (n *Nacos) ModifyRegistration(reg model.Registration, instances []model.Instance) error {
	for _, inst := range instances {
		if !inst.Change {
			continue
		}
		body := map[string]any{
			"ip":      inst.IP,
			"port":    inst.Port,
			"weight":  inst.Weight,
			"enabled": inst.Enabled,
		}
		for k, v := range inst.Ext {
			body[k] = v
		}
		for k, v := range reg.ExtData {
			body[k] = v
		}
		body["serviceName"] = reg.ServiceName
		if _, err := n.client.R().SetBody(body).
			Put(fmt.Sprintf("%s%sns/instance", n.cfg.Host, n.cfg.Prefix)); err != nil {
			return gwerrors.Remote("nacos", err)
		}
	}
	return nil
}

func (n *Nacos) get(uri string, params map[string]string, out any) error {
	resp, err := n.client.R().SetQueryParams(params).SetResult(out).
		Get(n.cfg.Host + n.cfg.Prefix + uri)
	if err != nil {
		return gwerrors.Remote("nacos", err)
	}
	if resp.IsError() {
		return gwerrors.Remote("nacos", fmt.Errorf("status %d", resp.StatusCode()))
	}
	return nil
}

// nacosHost is the wire shape of one entry in ns/catalog/{services,instances}.
type nacosHost struct {
	IP          string            `json:"ip"`
	Port        int               `json:"port"`
	Weight      float64           `json:"weight"`
	Healthy     bool              `json:"healthy"`
	Enabled_    bool              `json:"enabled"`
	Metadata    map[string]string `json:"metadata"`
	ServiceName string            `json:"serviceName"`
	GroupName   string            `json:"groupName"`
	ClusterName string            `json:"clusterName"`
	NamespaceID string            `json:"namespaceId"`
	Ephemeral   bool              `json:"ephemeral"`
}

func (h nacosHost) Enabled() bool { return h.Healthy && h.Enabled_ }

func (h nacosHost) toInstance(defaultWeight int) model.Instance {
	weight := int(h.Weight)
	if weight <= 0 {
		weight = defaultWeight
	}
	return model.Instance{
		IP:       h.IP,
		Port:     h.Port,
		Weight:   weight,
		Metadata: h.Metadata,
		Enabled:  h.Enabled(),
		Ext: map[string]any{
			"serviceName": h.ServiceName,
			"groupName":   h.GroupName,
			"clusterName": h.ClusterName,
			"namespaceId": h.NamespaceID,
			"ephemeral":   h.Ephemeral,
		},
	}
}

// stripTemplate copies m (possibly nil) dropping the "template" key, which is
// an upstream-body template meant for the gateway side, not a Nacos param.
func stripTemplate(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "template" {
			continue
		}
		out[k] = v
	}
	return out
}

func toStringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
