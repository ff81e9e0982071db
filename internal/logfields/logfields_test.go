package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "123", RunID("123")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "annotated.md", File("annotated.md")},
		{"Output", KeyOutput, "SUMMARY.md", Output("SUMMARY.md")},
		{"Fingerprint", KeyFingerprnt, "abc", Fingerprint("abc")},
		{"Subject", KeySubject, "nav.generated", Subject("nav.generated")},
		{"Addr", KeyAddr, ":9090", Addr(":9090")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: key = %q, want %q", c.name, c.attr.Key, c.attrKey)
		}
		if got := c.attr.Value.String(); got != c.attrVal {
			t.Errorf("%s: value = %q, want %q", c.name, got, c.attrVal)
		}
	}
}

func TestIntHelpers(t *testing.T) {
	if a := Entries(7); a.Key != KeyEntries || a.Value.Int64() != 7 {
		t.Errorf("Entries(7) = %v", a)
	}
	if a := SkippedLines(3); a.Key != KeySkipped || a.Value.Int64() != 3 {
		t.Errorf("SkippedLines(3) = %v", a)
	}
	if a := DurationMS(12.5); a.Key != KeyDurationMS || a.Value.Float64() != 12.5 {
		t.Errorf("DurationMS(12.5) = %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Errorf("Error(nil) value = %q, want empty", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Errorf("Error value = %q, want boom", a.Value.String())
	}
}
