package boundary

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent,omitempty"`
	MemPercent    float64 `json:"mem_percent,omitempty"`
	ArchiveOK     bool    `json:"archive_ok"`
}

// handleHealthz reports process uptime, a best-effort CPU/mem snapshot,
// and the job archive's reachability, grounded on the teacher's
// system_handlers.go status endpoint.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthzResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		resp.CPUPercent = percents[0]
	} else if err != nil {
		s.log.Debug().Err(err).Msg("cpu sample unavailable")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemPercent = vm.UsedPercent
	} else {
		s.log.Debug().Err(err).Msg("memory sample unavailable")
	}

	if err := s.container.Archive.Ping(r.Context()); err != nil {
		s.log.Warn().Err(err).Msg("archive database unreachable")
		resp.Status = "degraded"
	} else {
		resp.ArchiveOK = true
	}

	s.writeJSON(w, http.StatusOK, resp)
}
