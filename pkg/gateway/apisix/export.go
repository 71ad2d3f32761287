package apisix

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
)

// declarativeTemplate wraps the YAML body with the preamble/version-marker/
// footer restore uses to detect the source version.
const declarativeTemplate = `# Auto generated by gwsyncer, don't modify by hand
#
# apisix 2.x: conf/config.yaml -> apisix.enable_admin=false, config_center=yaml
# apisix 3.x: conf/config.yaml -> deployment.role_data_plane.config_provider=yaml
#
# Notice!!! Generate apisix version is >>>  %s  <<<

%s
#END
`

// fetchAdminAPIToFile iterates uriTable in the driver's own declarative
// version, GETs each resource class, strips update_time/create_time and
// status=0 entries, and accumulates into one top-level YAML mapping.
func (a *Apisix) fetchAdminAPIToFile(fileName string) (string, string, error) {
	val := map[string]any{}

	for uri, entry := range uriTable {
		if !versionSupports(entry, a.cfg.Version) {
			continue
		}
		resp, err := a.execute("GET", uri, nil, nil)
		if err != nil {
			return "", "", err
		}
		items := listOrSelf(resp)
		field := make([]map[string]any, 0, len(items))
		for _, raw := range items {
			var it apisixItem
			if err := json.Unmarshal(raw, &it); err != nil {
				continue
			}
			v := it.Value
			if status, ok := v["status"]; ok {
				if f, ok := status.(float64); ok && f == 0 {
					continue
				}
			}
			delete(v, "update_time")
			delete(v, "create_time")
			field = append(field, v)
		}
		if len(field) > 0 {
			val[entry.Field] = field
		}
	}

	// yaml.v3 marshals map[string]any keys in sorted order, satisfying the
	// "stable (sorted) key order" requirement without extra bookkeeping.
	body, err := yaml.Marshal(val)
	if err != nil {
		return "", "", gwerrors.Configuration("failed to marshal declarative config: %v", err)
	}
	content := fmt.Sprintf(declarativeTemplate, a.cfg.Version, string(body))

	if fileName == "" {
		fileName = "apisix.yaml"
	}
	path := filepath.Join(os.TempDir(), fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", "", gwerrors.Configuration("failed to write declarative file: %v", err)
	}
	return content, path, nil
}
