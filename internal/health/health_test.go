package health

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestReport(t *testing.T) {
	r := NewReporter(time.Now().Add(-2 * time.Second))
	st := r.Report(3, 42)

	if st.Status != "ok" {
		t.Errorf("Status = %q, want ok", st.Status)
	}
	if st.Sessions != 3 || st.StateVersion != 42 {
		t.Errorf("Sessions/StateVersion = %d/%d, want 3/42", st.Sessions, st.StateVersion)
	}

	if st.UptimeSec < 2 {
		t.Errorf("UptimeSec = %f, want >= 2", st.UptimeSec)
	}
}

func TestReportWithoutProcess(t *testing.T) {
	r := &Reporter{started: time.Now()}
	st := r.Report(0, 0)
	if st.RSSBytes != 0 || st.CPUPercent != 0 {
		t.Error("process fields should be empty without a process handle")
	}
}

func TestStatusJSONNamesStateVersion(t *testing.T) {
	data, err := json.Marshal(Status{Status: "ok", StateVersion: 7})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"stateVersion":7`) {
		t.Errorf("health body = %s, want a stateVersion field", data)
	}
	if strings.Contains(string(data), `"version"`) {
		t.Errorf("health body = %s still carries a bare version field", data)
	}
}
