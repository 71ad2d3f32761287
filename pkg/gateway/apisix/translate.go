package apisix

import "strings"

// translate converts a single declarative object between APISIX v2 and v3
// shapes. Identity when fromVersion == toVersion.
func translate(fromVersion, toVersion string, data map[string]any) map[string]any {
	if fromVersion == toVersion {
		return data
	}
	switch {
	case fromVersion == V2 && toVersion == V3:
		return v2ToV3(data)
	case fromVersion == V3 && toVersion == V2:
		return v3ToV2(data)
	default:
		return data
	}
}

// v2ToV3 moves plugin.enable to plugin._meta.disable and, when the object has
// an upstream block, moves service_protocol (whatever its value) into
// upstream.scheme.
func v2ToV3(data map[string]any) map[string]any {
	if plugins, ok := data["plugins"].(map[string]any); ok {
		for _, p := range plugins {
			plugin, ok := p.(map[string]any)
			if !ok {
				continue
			}
			enable, hasEnable := plugin["enable"].(bool)
			if !hasEnable {
				enable = true
			}
			plugin["_meta"] = map[string]any{"disable": !enable}
			delete(plugin, "enable")
		}
	}
	if upstream, ok := data["upstream"].(map[string]any); ok {
		if proto, ok := data["service_protocol"].(string); ok {
			upstream["scheme"] = proto
			delete(data, "service_protocol")
		}
	}
	return data
}

// v3ToV2 reverses plugin._meta.disable into plugin.enable, and promotes only
// a grpc upstream.scheme into the top-level service_protocol field — other
// schemes are left untouched in upstream, per the v3-to-v2 migration guide.
func v3ToV2(data map[string]any) map[string]any {
	if plugins, ok := data["plugins"].(map[string]any); ok {
		for _, p := range plugins {
			plugin, ok := p.(map[string]any)
			if !ok {
				continue
			}
			disable := true
			if meta, ok := plugin["_meta"].(map[string]any); ok {
				if d, ok := meta["disable"].(bool); ok {
					disable = d
				}
			}
			plugin["enable"] = !disable
			delete(plugin, "_meta")
		}
	}
	if upstream, ok := data["upstream"].(map[string]any); ok {
		if scheme, ok := upstream["scheme"].(string); ok && strings.Contains(scheme, "grpc") {
			data["service_protocol"] = "grpc"
		}
	}
	return data
}
