// Package apisix implements the Gateway contract against the APISIX admin
// API, including v2/v3 declarative export, restore and migrate.
package apisix

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/gateway"
	"github.com/masallsome/gwsyncer/pkg/httpclient"
	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/model"
)

func init() {
	gateway.Register("apisix", func(config map[string]any) (gateway.Gateway, error) {
		return New(config)
	})
}

const (
	V2 = "v2"
	V3 = "v3"

	fetchAllUpstream = "upstreams"
)

// defaultUpstreamTemplate is substituted with $name/$nodes when no
// target-specific template is configured.
const defaultUpstreamTemplate = `{
    "id": "$name",
    "name": "$name",
    "nodes": $nodes,
    "timeout": {
        "connect": 30,
        "send": 30,
        "read": 30
    },
    "type": "roundrobin"
}`

// Config is APISIX's named-driver configuration block.
type Config struct {
	AdminURL string
	Prefix   string // defaults to "/apisix/admin/"
	APIKey   string
	Version  string // V2 or V3, defaults to V2
}

func configFromMap(m map[string]any) Config {
	c := Config{Prefix: "/apisix/admin/", Version: V2}
	if v, ok := m["admin_url"].(string); ok {
		c.AdminURL = v
	}
	if v, ok := m["prefix"].(string); ok && v != "" {
		c.Prefix = v
	}
	if v, ok := m["X-API-KEY"].(string); ok {
		c.APIKey = v
	}
	if v, ok := m["version"].(string); ok && v != "" {
		c.Version = v
	}
	return c
}

// Apisix talks to an APISIX admin API and implements the full declarative
// export/restore/migrate path on top of it.
type Apisix struct {
	cfg    Config
	client *resty.Client

	mu             sync.Mutex
	serviceNameMap map[string]string // upstream name -> "upstreams/{id}"
}

// New builds an APISIX driver from its configuration map.
func New(config map[string]any) (*Apisix, error) {
	cfg := configFromMap(config)
	if cfg.AdminURL == "" {
		return nil, gwerrors.Configuration("apisix driver requires admin_url")
	}
	log := logging.NewDefault("gateway.apisix")
	return &Apisix{
		cfg:            cfg,
		client:         httpclient.New(log, httpclient.WithHeader("X-API-KEY", cfg.APIKey)),
		serviceNameMap: map[string]string{},
	}, nil
}

// apisixResponse is the etcd-style admin-API envelope: either {"value":...}
// per item or {"list":[{"value":...}, ...]} for a collection.
type apisixResponse struct {
	Value json.RawMessage   `json:"value"`
	List  []json.RawMessage `json:"list"`
}

type apisixItem struct {
	Value map[string]any `json:"value"`
}

// GetServiceAllInstances resolves the upstream by name (using the cached
// upstreams/{id} URI when known) and normalizes both node-representations
// APISIX may return: a list of {host,port,weight} or a map "ip:port"->weight.
func (a *Apisix) GetServiceAllInstances(target model.Target, upstreamName string) ([]model.Instance, error) {
	name := gateway.UpstreamName(target.UpstreamPrefix, upstreamName)

	a.mu.Lock()
	uri := a.serviceNameMap[name]
	a.mu.Unlock()
	if uri == "" {
		uri = fetchAllUpstream
	}

	resp, err := a.execute("GET", uri, nil, nil)
	if err != nil {
		return nil, err
	}

	items := listOrSelf(resp)
	var instances []model.Instance
	for _, raw := range items {
		var it apisixItem
		if err := json.Unmarshal(raw, &it); err != nil {
			continue
		}
		itemName, _ := it.Value["name"].(string)
		id, _ := it.Value["id"].(string)
		a.mu.Lock()
		a.serviceNameMap[itemName] = fmt.Sprintf("%s/%s", fetchAllUpstream, id)
		a.mu.Unlock()
		if itemName != name {
			continue
		}
		instances = append(instances, nodesFromValue(it.Value)...)
		break
	}
	return instances, nil
}

// SyncInstances ignores diff — APISIX cannot update nodes incrementally, so
// the full node set is always PATCHed (or PUT, on first sight of an upstream).
func (a *Apisix) SyncInstances(target model.Target, upstreamName string, diff, full []model.Instance) error {
	if len(diff) == 0 && len(full) == 0 {
		return nil
	}
	name := gateway.UpstreamName(target.UpstreamPrefix, upstreamName)

	nodes := make([]map[string]any, 0, len(full))
	for _, inst := range full {
		nodes = append(nodes, map[string]any{"host": inst.IP, "port": inst.Port, "weight": inst.Weight})
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return err
	}

	a.mu.Lock()
	uri := a.serviceNameMap[name]
	a.mu.Unlock()

	method, path, body := "PUT", fetchAllUpstream+"/"+name, ""
	if uri != "" {
		method, path = "PATCH", uri+"/nodes"
		body = string(nodesJSON)
	} else {
		tpl := target.Config.Template
		if tpl == "" {
			tpl = defaultUpstreamTemplate
		}
		body = substitute(tpl, map[string]string{"name": name, "nodes": string(nodesJSON)})
	}

	_, err = a.execute(method, path, nil, []byte(body))
	return err
}

// MigrateTo is implemented in migrate.go.
func (a *Apisix) MigrateTo(target gateway.Gateway) error { return a.migrateTo(target) }

// FetchAdminAPIToFile is implemented in export.go.
func (a *Apisix) FetchAdminAPIToFile(fileName string) (string, string, error) {
	return a.fetchAdminAPIToFile(fileName)
}

// RestoreGateway is implemented in restore.go.
func (a *Apisix) RestoreGateway(body []byte) error { return a.restoreGateway(body) }

// execute performs one admin-API call, applying the two lenient-decode
// quirks the admin API exhibits: an {"error_msg":...} body is treated as an
// empty list, and plugins/list's bare string array is wrapped to look like a
// normal collection response.
func (a *Apisix) execute(method, uri string, params map[string]string, body []byte) (apisixResponse, error) {
	req := a.client.R()
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	if body != nil {
		req.SetBody(body)
	}
	res, err := req.Execute(method, a.cfg.AdminURL+a.cfg.Prefix+uri)
	if err != nil {
		return apisixResponse{}, gwerrors.Remote("apisix", err)
	}

	if uri == "plugins/list" {
		var names []string
		if err := json.Unmarshal(res.Body(), &names); err == nil {
			items := make([]json.RawMessage, 0, len(names))
			for _, n := range names {
				raw, _ := json.Marshal(apisixItem{Value: map[string]any{"name": n}})
				items = append(items, raw)
			}
			return apisixResponse{List: items}, nil
		}
	}

	var generic map[string]any
	if err := json.Unmarshal(res.Body(), &generic); err == nil {
		if _, hasErr := generic["error_msg"]; hasErr {
			return apisixResponse{}, nil
		}
	}

	var resp apisixResponse
	if err := json.Unmarshal(res.Body(), &resp); err != nil {
		return apisixResponse{}, gwerrors.Remote("apisix", err)
	}
	return resp, nil
}

// listOrSelf returns resp.List, or a single-element list built from
// resp.Value when the admin API answered with one bare item.
func listOrSelf(resp apisixResponse) []json.RawMessage {
	if len(resp.List) > 0 {
		return resp.List
	}
	if len(resp.Value) > 0 {
		raw, _ := json.Marshal(map[string]json.RawMessage{"value": resp.Value})
		return []json.RawMessage{raw}
	}
	return nil
}

func nodesFromValue(value map[string]any) []model.Instance {
	var instances []model.Instance
	switch nodes := value["nodes"].(type) {
	case []any:
		for _, n := range nodes {
			node, ok := n.(map[string]any)
			if !ok {
				continue
			}
			host, _ := node["host"].(string)
			instances = append(instances, model.Instance{
				IP:     host,
				Port:   toInt(node["port"]),
				Weight: toInt(node["weight"]),
			})
		}
	case map[string]any:
		for addr, w := range nodes {
			host, port := splitAddr(addr)
			instances = append(instances, model.Instance{IP: host, Port: port, Weight: toInt(w)})
		}
	}
	return instances
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func splitAddr(addr string) (string, int) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return addr, 0
	}
	port, _ := strconv.Atoi(addr[idx+1:])
	return addr[:idx], port
}

// substitute does the Python string.Template-style "$key" replacement the
// original upstream template format relies on.
func substitute(tpl string, values map[string]string) string {
	out := tpl
	for k, v := range values {
		out = strings.ReplaceAll(out, "$"+k, v)
	}
	return out
}
