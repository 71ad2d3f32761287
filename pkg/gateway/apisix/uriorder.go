package apisix

import "sort"

// uriEntry describes one admin-API resource class: which declarative-config
// versions expose it, the YAML field it collects into, and the ordered
// bucket restore/migrate must place it in.
type uriEntry struct {
	Versions []string
	Field    string
	Order    int
}

// uriTable mirrors the resource-order table: order-0 leaves (ssl/proto/
// secrets/plugin lists/global+stream routes/plugin configs+metadata),
// order-1 consumers, order-2 services/upstreams/consumer_groups, order-3
// routes last.
var uriTable = map[string]uriEntry{
	"ssl":             {Versions: []string{V2}, Field: "ssl", Order: 0},
	"ssls":            {Versions: []string{V3}, Field: "ssls", Order: 0},
	"proto":           {Versions: []string{V2}, Field: "proto", Order: 0},
	"protos":          {Versions: []string{V3}, Field: "protos", Order: 0},
	"secrets":         {Versions: []string{V3}, Field: "secrets", Order: 0},
	"plugins/list":    {Versions: []string{V2, V3}, Field: "plugins", Order: 0},
	"global_rules":    {Versions: []string{V2, V3}, Field: "global_rules", Order: 0},
	"stream_routes":   {Versions: []string{V2, V3}, Field: "stream_routes", Order: 0},
	"plugin_configs":  {Versions: []string{V2, V3}, Field: "plugin_configs", Order: 0},
	"plugin_metadata": {Versions: []string{V2, V3}, Field: "plugin_metadata", Order: 0},
	"consumers":       {Versions: []string{V2, V3}, Field: "consumers", Order: 1},
	"services":        {Versions: []string{V2, V3}, Field: "services", Order: 2},
	"upstreams":       {Versions: []string{V2, V3}, Field: "upstreams", Order: 2},
	"consumer_groups": {Versions: []string{V3}, Field: "consumer_groups", Order: 2},
	"routes":          {Versions: []string{V2, V3}, Field: "routes", Order: 3},
}

// ignoreURIs are never touched by migrate (read-only mirrors).
var ignoreURIs = map[string]bool{"plugins/list": true}

// aliasURIs remaps a v2 resource name onto its v3 counterpart and back, so
// data can be pushed to the opposite major version's endpoint.
var aliasURIs = map[string]string{
	"ssl": "ssls", "ssls": "ssl",
	"proto": "protos", "protos": "proto",
}

func aliasFor(uri string) string {
	if a, ok := aliasURIs[uri]; ok {
		return a
	}
	return uri
}

func versionSupports(e uriEntry, version string) bool {
	for _, v := range e.Versions {
		if v == version {
			return true
		}
	}
	return false
}

// orderedBuckets groups uriTable entries by Order ascending, for restore and
// migrate's "parallel within a bucket, buckets strictly sequential" fan-out.
func orderedBuckets() [][]string {
	byOrder := map[int][]string{}
	maxOrder := 0
	for uri, e := range uriTable {
		byOrder[e.Order] = append(byOrder[e.Order], uri)
		if e.Order > maxOrder {
			maxOrder = e.Order
		}
	}
	buckets := make([][]string, 0, maxOrder+1)
	for o := 0; o <= maxOrder; o++ {
		uris := byOrder[o]
		// deterministic order within a bucket so tests are reproducible;
		// concurrency, not ordering, is what the bucket guarantees.
		sort.Strings(uris)
		buckets = append(buckets, uris)
	}
	return buckets
}
