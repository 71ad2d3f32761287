package healthcheck

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/metrics"
	"github.com/masallsome/gwsyncer/pkg/model"
	"github.com/masallsome/gwsyncer/pkg/store"
)

// Prober runs one HTTP probe per (target, service, instance) tick and
// records the outcome against the counter table, firing alerts on
// transition.
type Prober struct {
	store   store.Store
	client  *resty.Client
	log     *logging.Logger
	Metrics *metrics.Metrics // optional; nil disables instrumentation
}

// NewProber builds a Prober whose shared resty client is used for alert
// delivery; each probe builds its own short-lived client with the per-call
// timeout from the target's healthcheck config.
func NewProber(st store.Store) *Prober {
	return &Prober{store: st, client: resty.New(), log: logging.NewDefault("healthcheck")}
}

// Probe issues one HTTP request against inst per cfg, updates the counter
// row and returns the (possibly unchanged) status. Alert delivery failure
// never blocks the cycle — it is logged and swallowed.
func (p *Prober) Probe(targetID, service string, inst model.Instance, cfg model.HealthCheckConfig) model.HealthyStatus {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	scheme := "http"
	if strings.EqualFold(cfg.Type, "https") {
		scheme = "https"
	}
	method := cfg.Method
	if method == "" {
		method = "GET"
	}
	url := fmt.Sprintf("%s://%s:%d%s", scheme, inst.IP, inst.Port, cfg.URI)

	key := inst.Key()
	row, _ := p.store.GetInstance(targetID, service, key)
	if row.TargetID == "" {
		row = model.DiscoveryInstance{ID: uuid.NewString(), TargetID: targetID, Service: service, Instance: key, Status: model.HealthUnknown, CreateTime: time.Now().Unix()}
	}
	prevStatus := row.Status

	client := resty.New().SetTimeout(timeout)
	resp, err := client.R().Execute(method, url)
	outcome := classify(resp, err, cfg)

	if p.Metrics != nil {
		p.Metrics.ProbesTotal.WithLabelValues(targetID, outcomeLabel(outcome)).Inc()
	}

	ApplyOutcome(&row, outcome)
	row.Status = NextStatus(row, cfg)
	row.LastTime = time.Now().Unix()
	_ = p.store.UpsertInstance(row)

	if row.Status != prevStatus && cfg.Alert.URL != "" {
		p.fireAlert(cfg.Alert, targetID, service, row)
	}
	return row.Status
}

// groupedInstances returns every counter row for (targetID, service) as a
// map keyed by ip:port, the shape the alert body uses to show the
// transitioning instance's status alongside every sibling instance's.
func (p *Prober) groupedInstances(targetID, service string) map[string]model.HealthyStatus {
	rows := p.store.ListInstances(targetID, service)
	grouped := make(map[string]model.HealthyStatus, len(rows))
	for _, r := range rows {
		grouped[r.Instance] = r.Status
	}
	return grouped
}

// classify turns one probe's (response, error) into exactly one Outcome:
// a transport failure is a Timeout; otherwise the response status is
// checked against the unhealthy family/codes first, then the healthy ones
// (an empty healthy list accepts anything not unhealthy).
func classify(resp *resty.Response, err error, cfg model.HealthCheckConfig) Outcome {
	if err != nil {
		return Timeout
	}
	code := resp.StatusCode()
	if statusMatches(code, cfg.Unhealthy.HTTPStatuses) {
		return Failure
	}
	if len(cfg.Healthy.HTTPStatuses) == 0 || statusMatches(code, cfg.Healthy.HTTPStatuses) {
		return Success
	}
	return Failure
}

// statusMatches accepts both exact codes ("503") and case-insensitive
// families ("5xx").
func statusMatches(code int, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.ToLower(pattern)
		if strings.HasSuffix(pattern, "xx") && len(pattern) == 3 {
			if strconv.Itoa(code/100) == pattern[:1] {
				return true
			}
			continue
		}
		if want, err := strconv.Atoi(pattern); err == nil && want == code {
			return true
		}
	}
	return false
}

func outcomeLabel(o Outcome) string {
	switch o {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	default:
		return "failure"
	}
}

func (p *Prober) fireAlert(alert model.AlertConfig, targetID, service string, row model.DiscoveryInstance) {
	method := alert.Method
	if method == "" {
		method = "POST"
	}
	_, err := p.client.R().SetBody(map[string]any{
		"target_id": targetID,
		"service":   service,
		"instance":  row.Instance,
		"status":    row.Status,
		"instances": p.groupedInstances(targetID, service),
	}).Execute(method, alert.URL)
	if err != nil {
		p.log.WithField("alert_url", alert.URL).Warnf("alert delivery failed: %v", err)
	}
}
