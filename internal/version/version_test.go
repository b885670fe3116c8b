package version

import "testing"

func TestCurrent(t *testing.T) {
	oldV, oldSHA, oldBuild := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldBuild })

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2026-10-01T00:00:00Z"
	info := Current()
	if info.Version != "1.2.0" || info.GitSHA != "abc123" {
		t.Fatalf("Current() = %+v", info)
	}
	if got, want := info.String(), "activity-report 1.2.0 (abc123, built 2026-10-01T00:00:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
