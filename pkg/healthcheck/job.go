package healthcheck

import (
	"context"

	"github.com/masallsome/gwsyncer/pkg/discovery"
	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/model"
	"github.com/masallsome/gwsyncer/pkg/scheduler"
)

// Job is the per-target health-check tick: it lists a target's services and
// fans one probe per instance out through the scheduler's
// queue_instance_health_check queue, so a single slow or hanging backend
// never stalls the rest of the target's instances. Run itself is what the
// scheduler submits onto queue_health_check_job.
type Job struct {
	Discovery *discovery.Registry
	Prober    *Prober
	Instances *scheduler.Queue
	log       *logging.Logger
}

// NewJob builds a Job from its collaborators.
func NewJob(d *discovery.Registry, prober *Prober, instances *scheduler.Queue) *Job {
	return &Job{Discovery: d, Prober: prober, Instances: instances, log: logging.NewDefault("healthcheck.job")}
}

// Run lists target's services (bypassing the enabled filter, since a probe's
// whole purpose is to find instances discovery itself still calls healthy)
// and submits one probe per instance. A missing driver or listing failure is
// logged and treated as a no-op, mirroring Engine.Cycle's tolerance of a
// single target's failure.
func (j *Job) Run(ctx context.Context, target model.Target) error {
	if target.Config.HealthCheck == nil {
		return nil
	}
	d, ok := j.Discovery.Get(target.Discovery)
	if !ok {
		j.log.Warnf("no discovery driver named %q for target %s", target.Discovery, target.ID)
		return nil
	}

	services, err := d.GetAllService(target.Config.Extra, false)
	if err != nil {
		j.log.Warnf("target %s: failed to list services for health check: %v", target.ID, err)
		return nil
	}

	cfg := *target.Config.HealthCheck
	for _, service := range services {
		instances := service.Instances
		if len(instances) == 0 {
			instances, _, err = d.GetServiceAllInstances(service.Name, target.Config.Extra, false)
			if err != nil {
				j.log.Warnf("target %s service %s: failed to fetch instances for health check: %v", target.ID, service.Name, err)
				continue
			}
		}
		for _, inst := range instances {
			targetID, serviceName, instance := target.ID, service.Name, inst
			j.Instances.Submit(targetID+"/"+serviceName+"/"+instance.Key(), func(ctx context.Context) error {
				j.Prober.Probe(targetID, serviceName, instance, cfg)
				return nil
			})
		}
	}
	return nil
}
