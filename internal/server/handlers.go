package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/model"
	"github.com/masallsome/gwsyncer/pkg/scheduler"
)

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.Reload != nil {
		s.Scheduler.ReloadQueue.Submit("http-reload", scheduler.Task(s.Reload))
	}
	_, _ = w.Write([]byte("OK"))
}

// handleDiscoveryPut applies Registration.status to every instance matching
// the regex (or metadata key), computes the alive count the change would
// leave behind, and aborts before any write if it would fall below
// alive_num. This guard covers the manual CI/CD endpoint only; the
// reconciliation engine's health-check take-down path applies its own,
// separate min-hosts check (see syncer's applyHealthCheck).
func (s *Server) handleDiscoveryPut(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	d, ok := s.Discovery.Get(name)
	if !ok {
		http.Error(w, "no discovery instance named "+name, http.StatusNotFound)
		return
	}

	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		http.Error(w, "invalid registration body: "+err.Error(), http.StatusBadRequest)
		return
	}

	aliveNum := 1
	if v := r.URL.Query().Get("alive_num"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			aliveNum = n
		}
	}

	all, _, err := d.GetServiceAllInstances(reg.ServiceName, reg.ExtData, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	re, err := regexp.Compile(reg.RegexpStr)
	if err != nil {
		http.Error(w, "invalid regexp_str: "+err.Error(), http.StatusBadRequest)
		return
	}

	changed := make([]model.Instance, 0, len(all))
	wouldRemain := 0
	for _, inst := range all {
		c := inst.Clone()
		matched := false

		if reg.Type == model.RegistrationTypeMetadata {
			val, present := c.Metadata[reg.MetadataKey]
			if !present || val == "" {
				if reg.OtherStatus != model.StatusOrigin {
					c.Enabled = reg.OtherStatus == model.StatusUP
					c.Change = true
				}
				if c.Enabled {
					wouldRemain++
				}
				if c.Change {
					changed = append(changed, c)
				}
				continue
			}
			matched = prefixMatch(re, val)
		} else {
			matched = prefixMatch(re, c.IP)
		}

		if matched {
			c.Enabled = reg.Status == model.StatusUP
			c.Change = true
		} else if reg.OtherStatus != model.StatusOrigin {
			c.Enabled = reg.OtherStatus == model.StatusUP
			c.Change = true
		}
		if c.Enabled {
			wouldRemain++
		}
		if c.Change {
			changed = append(changed, c)
		}
	}

	if wouldRemain < aliveNum {
		guardErr := gwerrors.AliveGuard(aliveNum, wouldRemain)
		http.Error(w, guardErr.Error(), guardErr.HTTPStatus())
		return
	}

	if err := d.ModifyRegistration(reg, changed); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("OK"))
}

// prefixMatch reports whether re matches s anchored at position 0 — Go's
// regexp has no re.match equivalent, so a found match has to be checked for
// where it starts, not whether one exists anywhere in s.
func prefixMatch(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

func (s *Server) handleGatewayToFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	g, ok := s.Gateway.Get(name)
	if !ok {
		http.Error(w, "no gateway instance named "+name, http.StatusNotFound)
		return
	}

	fileName := r.URL.Query().Get("file_name")
	content, path, err := g.FetchAdminAPIToFile(fileName)
	if err != nil {
		w.Header().Set("syncer-err-msg", base64.StdEncoding.EncodeToString([]byte(err.Error())))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("syncer-file-location", path)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	src, ok := s.Gateway.Get(vars["src"])
	if !ok {
		http.Error(w, "no gateway instance named "+vars["src"], http.StatusNotFound)
		return
	}
	dst, ok := s.Gateway.Get(vars["dst"])
	if !ok {
		http.Error(w, "no gateway instance named "+vars["dst"], http.StatusNotFound)
		return
	}
	if err := src.MigrateTo(dst); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	g, ok := s.Gateway.Get(name)
	if !ok {
		http.Error(w, "no gateway instance named "+name, http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := g.RestoreGateway(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("OK"))
}
