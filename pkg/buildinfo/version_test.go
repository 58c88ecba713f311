package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetPrefersLdflags(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.2.3", "abc123", "2024-01-01"

	info := Get()
	if info.Version != "v1.2.3" || info.Commit != "abc123" || info.Date != "2024-01-01" {
		t.Errorf("Get() = %+v, want the ldflags values", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGetDefaults(t *testing.T) {
	info := Get()
	if info.Version == "" || info.Commit == "" || info.Date == "" {
		t.Errorf("Get() = %+v, no field may be empty", info)
	}
}

func TestTemplate(t *testing.T) {
	defer func(v string) { Version = v }(Version)
	Version = "v9.9.9"

	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version v9.9.9\n") {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.Contains(Get().String(), "version: v9.9.9") {
		t.Errorf("String() = %q", Get().String())
	}
}
