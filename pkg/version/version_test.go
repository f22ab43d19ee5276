package version

import "testing"

func TestVersionStrings(t *testing.T) {
	saved := [3]string{tag, commit, date}
	t.Cleanup(func() { tag, commit, date = saved[0], saved[1], saved[2] })

	tests := []struct {
		tag, commit, date string
		short, full       string
	}{
		{commit: "unknown", date: "unknown", short: "dev", full: "dev"},
		{commit: "abc1234", date: "2026-01-01", short: "abc1234", full: "abc1234 built 2026-01-01"},
		{tag: "v0.3.0", commit: "abc1234", date: "2026-01-01", short: "v0.3.0", full: "v0.3.0 (abc1234) built 2026-01-01"},
	}
	for _, tt := range tests {
		tag, commit, date = tt.tag, tt.commit, tt.date
		if got := String(); got != tt.short {
			t.Errorf("String() = %q, want %q", got, tt.short)
		}
		if got := Full(); got != tt.full {
			t.Errorf("Full() = %q, want %q", got, tt.full)
		}
	}
}
