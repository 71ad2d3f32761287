// Package syncer implements the reconciliation engine: the scheduled,
// per-target loop that diffs discovery instances against gateway members
// and pushes the delta.
package syncer

import "github.com/masallsome/gwsyncer/pkg/model"

// Diff computes the per-service delta between discovery instances (dim) and
// gateway instances (gim), keyed by ip:port. A key present on only one side,
// or present on both with disagreeing weight, is in the diff set; each diff
// element is a clone with Change=true and Enabled=(key present in dim).
func Diff(discoveryInstances, gatewayInstances []model.Instance) []model.Instance {
	dim := indexByKey(discoveryInstances)
	gim := indexByKey(gatewayInstances)

	merged := make(map[string]model.Instance, len(dim)+len(gim))
	for k, v := range gim {
		merged[k] = v
	}
	for k, v := range dim {
		merged[k] = v
	}

	var diff []model.Instance
	for key, item := range merged {
		d, inD := dim[key]
		g, inG := gim[key]
		if !inD || !inG || d.Weight != g.Weight {
			clone := item.Clone()
			clone.Change = true
			clone.Enabled = inD
			diff = append(diff, clone)
		}
	}
	return diff
}

func indexByKey(instances []model.Instance) map[string]model.Instance {
	m := make(map[string]model.Instance, len(instances))
	for _, i := range instances {
		m[i.Key()] = i
	}
	return m
}
