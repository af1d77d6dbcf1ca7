package version

import (
	"log/slog"
	"testing"
)

func TestString(t *testing.T) {
	Version, Commit, BuildTime = "1.2.3", "abc1234", "2024-05-01T12:00:00Z"
	t.Cleanup(func() { Version, Commit, BuildTime = "dev", "unknown", "unknown" })

	if got, want := String(), "1.2.3 (abc1234) built 2024-05-01T12:00:00Z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	attrs := Attrs()
	if len(attrs) != 3 {
		t.Fatalf("len(Attrs()) = %d, want 3", len(attrs))
	}
	if a := attrs[0].(slog.Attr); a.Key != "version" || a.Value.String() != "1.2.3" {
		t.Errorf("Attrs()[0] = %v", a)
	}
}
