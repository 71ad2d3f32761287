package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/masallsome/gwsyncer/pkg/model"
)

// healthResponse mirrors the façade's JSON health contract.
type healthResponse struct {
	Total   int      `json:"total"`
	Running int      `json:"running"`
	Lost    int      `json:"lost"`
	Details []string `json:"details"`
	Status  string   `json:"status"`
	Uptime  string   `json:"uptime"`
}

// lostAfter is the fallback age assigned to a job that has never run, so a
// newly-registered target with a real maximum_interval_sec is immediately
// classified lost rather than silently healthy.
const lostAfter = 365 * 24 * time.Hour

func computeHealth(jobs []model.Job, start, now time.Time) (healthResponse, int) {
	resp := healthResponse{Total: len(jobs), Status: "UNKNOWN", Uptime: now.Sub(start).String()}
	defaultLastTime := now.Add(-lostAfter)

	for _, job := range jobs {
		last := defaultLastTime
		if job.LastTime > 0 {
			last = time.Unix(job.LastTime, 0)
		}
		age := now.Sub(last)
		if job.MaximumIntervalSec > 0 && age > time.Duration(job.MaximumIntervalSec)*time.Second {
			resp.Lost++
			resp.Details = append(resp.Details, "syncer: "+job.TargetID+", not running for more than expected interval")
		} else {
			resp.Running++
			resp.Details = append(resp.Details, "syncer: "+job.TargetID+", is ok")
		}
	}

	statusCode := http.StatusOK
	switch {
	case resp.Running == resp.Total:
		// len(jobs)==0 satisfies Running==Total==0 too: no configured jobs
		// reports UP, not UNKNOWN.
		resp.Status = "UP"
	case resp.Running == 0 && resp.Lost > 0:
		statusCode = http.StatusInternalServerError
		resp.Status = "DOWN"
	case resp.Running > 0 && resp.Lost > 0:
		resp.Status = "WARN"
	}
	return resp, statusCode
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, statusCode := computeHealth(s.Store.ListJobs(), s.start, time.Now())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("OK"))
}
