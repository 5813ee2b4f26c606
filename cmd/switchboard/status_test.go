package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusCmd(t *testing.T) {
	var toggled string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			toggled = r.URL.Path
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lines":[1,0,1,0,0,0,0,1],"decimal":161,"hex":"A1","version":4}`))
	}))
	defer srv.Close()

	tests := []struct {
		name        string
		args        []string
		wantToggled string
	}{
		{"read", []string{"--url", srv.URL}, ""},
		{"toggle", []string{"--url", srv.URL, "--toggle", "3"}, "/api/lines/2/toggle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toggled = ""
			var out bytes.Buffer
			cmd := statusCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			for _, want := range []string{"10100001", "161", "#A1", "4"} {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
			if toggled != tt.wantToggled {
				t.Errorf("toggled path = %q, want %q", toggled, tt.wantToggled)
			}
		})
	}
}

func TestStatusCmdServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "hardware fault", http.StatusBadGateway)
	}))
	defer srv.Close()

	cmd := statusCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", srv.URL, "--toggle", "1"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("Execute() = %v, want a 502 error", err)
	}
}
