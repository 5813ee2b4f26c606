// Package health reports controller process vitals for /api/health.
package health

import (
	"log"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
)

// Status is the JSON body of the health endpoint.
type Status struct {
	Status        string  `json:"status"`
	UptimeSec     float64 `json:"uptimeSec"`
	Sessions      int     `json:"sessions"`
	StateVersion  uint64  `json:"stateVersion"`
	RSSBytes      uint64  `json:"rssBytes,omitempty"`
	CPUPercent    float64 `json:"cpuPercent,omitempty"`
	HostUptimeSec uint64  `json:"hostUptimeSec,omitempty"`
}

// Reporter samples the current process. Sampling failures are logged and
// leave the affected fields empty; they never fail the health check.
type Reporter struct {
	started time.Time
	proc    *process.Process
}

func NewReporter(started time.Time) *Reporter {
	r := &Reporter{started: started}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Printf("health: process stats unavailable: %v", err)
		return r
	}
	r.proc = p
	return r
}

// Report builds a Status for the given session count and the store's commit
// counter.
func (r *Reporter) Report(sessions int, stateVersion uint64) Status {
	st := Status{
		Status:       "ok",
		UptimeSec:    time.Since(r.started).Seconds(),
		Sessions:     sessions,
		StateVersion: stateVersion,
	}

	if r.proc != nil {
		if mem, err := r.proc.MemoryInfo(); err == nil {
			st.RSSBytes = mem.RSS
		}
		if cpu, err := r.proc.CPUPercent(); err == nil {
			st.CPUPercent = cpu
		}
	}
	if up, err := host.Uptime(); err == nil {
		st.HostUptimeSec = up
	}
	return st
}
