package apisix

import (
	"encoding/json"
	"sync"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/gateway"
)

// migrateTo copies every non-ignored resource class compatible with this
// driver's own version onto target, translating each item to the target's
// declarative version and aliasing version-specific URIs (ssl<->ssls,
// proto<->protos). Buckets are strictly ordered; writes within a bucket fan
// out in parallel, mirroring restoreGateway.
func (a *Apisix) migrateTo(target gateway.Gateway) error {
	dst, ok := target.(*Apisix)
	if !ok {
		return gwerrors.Unrealized("apisix", "migrate_to (target is not an apisix gateway)")
	}

	for _, bucket := range orderedBuckets() {
		var wg sync.WaitGroup
		errs := make([]error, len(bucket))
		for i, uri := range bucket {
			if ignoreURIs[uri] {
				continue
			}
			entry, ok := uriTable[uri]
			if !ok || !versionSupports(entry, a.cfg.Version) {
				continue
			}
			wg.Add(1)
			go func(i int, uri string) {
				defer wg.Done()
				errs[i] = a.migrateResource(dst, uri)
			}(i, uri)
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

func (a *Apisix) migrateResource(dst *Apisix, uri string) error {
	resp, err := a.execute("GET", uri, nil, nil)
	if err != nil {
		return err
	}
	items := listOrSelf(resp)
	alias := aliasFor(uri)

	for _, raw := range items {
		var it apisixItem
		if err := json.Unmarshal(raw, &it); err != nil {
			continue
		}
		key := resourceKey(it.Value)
		if key == "" {
			continue
		}
		value := stripTimestampsAndValidity(it.Value)
		value = translate(a.cfg.Version, dst.cfg.Version, value)

		payload, err := json.Marshal(value)
		if err != nil {
			continue
		}
		if _, err := dst.execute("PUT", alias+"/"+key, nil, payload); err != nil {
			return err
		}
	}
	return nil
}

// stripTimestampsAndValidity drops update_time/create_time from any
// resource, plus validity_start/validity_end for SSL objects, before
// translating and re-PUTting on the target gateway.
func stripTimestampsAndValidity(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		switch k {
		case "update_time", "create_time", "validity_start", "validity_end":
			continue
		}
		out[k] = val
	}
	return out
}
