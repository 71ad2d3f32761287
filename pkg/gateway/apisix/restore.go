package apisix

import (
	"encoding/json"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/logging"
)

var versionMarkerRE = regexp.MustCompile(`>>>\s*(\S+)\s*<<<`)

// restoreGateway parses a declarative file and PUTs every resource back,
// traversing uriTable in ascending Order: a bucket's writes fan out in
// parallel and are joined before the next (higher-order) bucket starts.
func (a *Apisix) restoreGateway(body []byte) error {
	log := logging.NewDefault("gateway.apisix.restore")

	if m := versionMarkerRE.FindSubmatch(body); m != nil {
		if string(m[1]) != a.cfg.Version {
			log.Warnf("declarative file version %q does not match driver version %q, proceeding anyway", m[1], a.cfg.Version)
		}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return gwerrors.Configuration("failed to parse declarative file: %v", err)
	}

	fieldToURI := map[string]string{}
	for uri, entry := range uriTable {
		fieldToURI[entry.Field] = uri
	}

	for _, bucket := range orderedBuckets() {
		var wg sync.WaitGroup
		errs := make([]error, len(bucket))
		for i, uri := range bucket {
			entry, ok := uriTable[uri]
			if !ok || !versionSupports(entry, a.cfg.Version) {
				continue
			}
			items, ok := doc[entry.Field].([]any)
			if !ok {
				continue
			}
			wg.Add(1)
			go func(i int, uri string, items []any) {
				defer wg.Done()
				errs[i] = a.restoreBucketItems(uri, items)
			}(i, uri, items)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Apisix) restoreBucketItems(uri string, items []any) error {
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		key := resourceKey(item)
		if key == "" {
			continue
		}
		payload, err := json.Marshal(item)
		if err != nil {
			continue
		}
		if _, err := a.execute("PUT", uri+"/"+key, nil, payload); err != nil {
			return err
		}
	}
	return nil
}

// resourceKey returns the identifier a resource is PUT back under: "id" for
// every id-keyed class (routes, services, upstreams, ...), falling back to
// "name" for the classes APISIX keys by name instead (consumers by username,
// plugin_metadata by plugin name) per §4.4's "{id|name}" restore contract.
func resourceKey(item map[string]any) string {
	if id, _ := item["id"].(string); id != "" {
		return id
	}
	if name, _ := item["username"].(string); name != "" {
		return name
	}
	if name, _ := item["name"].(string); name != "" {
		return name
	}
	return ""
}
