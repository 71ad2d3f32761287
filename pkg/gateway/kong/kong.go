// Package kong implements the Gateway contract against the Kong admin API.
// Export/restore/migrate are unimplemented upstream in Kong's admin API for
// this driver and are reported as unrealized operations.
package kong

import (
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
	gateway.Register("kong", func(config map[string]any) (gateway.Gateway, error) {
		return New(config)
	})
}

const defaultUpstreamTemplate = `{"name": "$name"}`
const defaultTargetTemplate = `{"target": "$target", "weight": $weight}`

// Config is Kong's named-driver configuration block.
type Config struct {
	AdminURL   string
	TargetsURI string // defaults to "upstreams/$upstream/targets"; "$upstream" is replaced by the upstream name
}

func configFromMap(m map[string]any) Config {
	c := Config{}
	if v, ok := m["admin_url"].(string); ok {
		c.AdminURL = v
	}
	if v, ok := m["targets_uri"].(string); ok {
		c.TargetsURI = v
	}
	return c
}

// Kong talks to a Kong admin API. Upstream auto-creation and per-target
// POST/DELETE are the only operations Kong supports; declarative
// export/restore/migrate are not (see FetchAdminAPIToFile etc. below).
type Kong struct {
	cfg    Config
	client *resty.Client

	mu      sync.Mutex
	known   map[string]bool // upstream name -> created
}

// New builds a Kong driver from its configuration map.
func New(config map[string]any) (*Kong, error) {
	cfg := configFromMap(config)
	if cfg.AdminURL == "" {
		return nil, gwerrors.Configuration("kong driver requires admin_url")
	}
	log := logging.NewDefault("gateway.kong")
	return &Kong{cfg: cfg, client: httpclient.New(log), known: map[string]bool{}}, nil
}

type kongTarget struct {
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// GetServiceAllInstances GETs {upstream}/targets, returning an empty slice
// on 404 rather than an error (upstream simply doesn't exist yet).
func (k *Kong) GetServiceAllInstances(target model.Target, upstreamName string) ([]model.Instance, error) {
	name := gateway.UpstreamName(target.UpstreamPrefix, upstreamName)
	uri := k.targetsURI(name)

	var resp struct {
		Data []kongTarget `json:"data"`
	}
	res, err := k.client.R().SetResult(&resp).Get(k.cfg.AdminURL + "/" + uri)
	if err != nil {
		return nil, gwerrors.Remote("kong", err)
	}
	if res.StatusCode() == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, gwerrors.Remote("kong", fmt.Errorf("status %d", res.StatusCode()))
	}

	k.mu.Lock()
	k.known[name] = true
	k.mu.Unlock()

	instances := make([]model.Instance, 0, len(resp.Data))
	for _, d := range resp.Data {
		ip, port := splitTarget(d.Target)
		instances = append(instances, model.Instance{IP: ip, Port: port, Weight: d.Weight, Enabled: true})
	}
	return instances, nil
}

// SyncInstances auto-creates the upstream (if unknown) before processing the
// diff set: POST a new target for each enabled instance, DELETE for each
// disabled one. Unlike APISIX, Kong consults diff, not full.
func (k *Kong) SyncInstances(target model.Target, upstreamName string, diff, full []model.Instance) error {
	if len(diff) == 0 {
		return nil
	}
	name := gateway.UpstreamName(target.UpstreamPrefix, upstreamName)

	k.mu.Lock()
	known := k.known[name]
	k.mu.Unlock()
	if !known {
		if err := k.createUpstream(target, name); err != nil {
			return err
		}
	}

	uri := k.targetsURI(name)
	for _, inst := range diff {
		addr := fmt.Sprintf("%s:%d", inst.IP, inst.Port)
		if inst.Enabled {
			tpl := target.Config.Template
			if tpl == "" {
				tpl = defaultTargetTemplate
			}
			body := substitute(tpl, addr, inst.Weight)
			if _, err := k.client.R().SetBody([]byte(body)).Post(k.cfg.AdminURL + "/" + uri); err != nil {
				return gwerrors.Remote("kong", err)
			}
		} else {
			if _, err := k.client.R().Delete(fmt.Sprintf("%s/%s/%s", k.cfg.AdminURL, uri, addr)); err != nil {
				return gwerrors.Remote("kong", err)
			}
		}
	}
	return nil
}

func (k *Kong) createUpstream(target model.Target, name string) error {
	tpl := defaultUpstreamTemplate
	body := strings.ReplaceAll(tpl, "$name", name)
	if _, err := k.client.R().SetBody([]byte(body)).Post(k.cfg.AdminURL + "/upstreams"); err != nil {
		return gwerrors.Remote("kong", err)
	}
	k.mu.Lock()
	k.known[name] = true
	k.mu.Unlock()
	return nil
}

// FetchAdminAPIToFile, MigrateTo and RestoreGateway are unrealized: Kong's
// admin API exposes no declarative-config endpoint equivalent to APISIX's.
func (k *Kong) FetchAdminAPIToFile(fileName string) (string, string, error) {
	return "", "", gwerrors.Unrealized("kong", "fetch_admin_api_to_file")
}

func (k *Kong) MigrateTo(target gateway.Gateway) error {
	return gwerrors.Unrealized("kong", "migrate_to")
}

func (k *Kong) RestoreGateway(body []byte) error {
	return gwerrors.Unrealized("kong", "restore_gateway")
}

func (k *Kong) targetsURI(upstream string) string {
	if k.cfg.TargetsURI != "" {
		return strings.ReplaceAll(k.cfg.TargetsURI, "$upstream", upstream)
	}
	return "upstreams/" + upstream + "/targets"
}

func splitTarget(target string) (string, int) {
	idx := strings.LastIndex(target, ":")
	if idx < 0 {
		return target, 0
	}
	port, _ := strconv.Atoi(target[idx+1:])
	return target[:idx], port
}

func substitute(tpl, target string, weight int) string {
	out := strings.ReplaceAll(tpl, "$target", target)
	out = strings.ReplaceAll(out, "$weight", strconv.Itoa(weight))
	return out
}
