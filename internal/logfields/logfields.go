package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyOutput     = "output"
	KeyEntries    = "entries"
	KeySkipped    = "skipped_lines"
	KeyDurationMS = "duration_ms"
	KeyFingerprnt = "fingerprint"
	KeySubject    = "subject"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func Entries(n int) slog.Attr         { return slog.Int(KeyEntries, n) }
func SkippedLines(n int) slog.Attr    { return slog.Int(KeySkipped, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Fingerprint(fp string) slog.Attr { return slog.String(KeyFingerprnt, fp) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
