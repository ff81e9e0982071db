package nav

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/navbuilder/internal/docs"
	"git.home.luguber.info/inful/navbuilder/internal/logfields"
	"git.home.luguber.info/inful/navbuilder/internal/metrics"
	nerrors "git.home.luguber.info/inful/navbuilder/internal/nav/errors"
)

// Defaults reproduce the reference pipeline: a Doxygen-derived class index at
// ecss/annotated.md reformatted into the site's sidebar at ecss/SUMMARY.md.
const (
	DefaultAnnotatedPath = "ecss/annotated.md"
	DefaultOutputPath    = "ecss/SUMMARY.md"
	DefaultHeader        = "* [API Reference](annotated.md)"
)

// linkPattern matches the first [name](link) pair on a line. Name and link
// must be non-empty; name excludes ']' and link excludes ')'.
var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// Entry is one parsed bullet from the annotated index.
type Entry struct {
	Indent int    // leading spaces / 4, truncating
	Name   string // normalized display name
	Link   string // destination as matched
}

// Render produces the output line for the entry.
func (e Entry) Render() string {
	return strings.Repeat("    ", e.Indent) + "* [" + e.Name + "](" + e.Link + ")"
}

// Result summarizes one navigation build.
type Result struct {
	RunID        string
	Output       string // absolute path of the written document
	Located      bool   // annotated index found in the descriptor set
	Entries      int
	SkippedLines int
	Fingerprint  string // sha256 of the annotated source, empty when not located
	Duration     time.Duration
}

// Options configures a Builder. Zero values fall back to the defaults above.
type Options struct {
	AnnotatedPath string // virtual path matched case-insensitively
	OutputPath    string // virtual path of the document, relative to the docs root
	Header        string // fixed first line of the document
	Stdout        io.Writer
	Recorder      metrics.Recorder
}

// Builder produces a navigation document from an annotated index file.
type Builder struct {
	annotatedPath string
	outputPath    string
	header        string
	stdout        io.Writer
	recorder      metrics.Recorder
}

// New creates a Builder, filling unset options with defaults.
func New(opts Options) *Builder {
	b := &Builder{
		annotatedPath: opts.AnnotatedPath,
		outputPath:    opts.OutputPath,
		header:        opts.Header,
		stdout:        opts.Stdout,
		recorder:      opts.Recorder,
	}
	if b.annotatedPath == "" {
		b.annotatedPath = DefaultAnnotatedPath
	}
	b.annotatedPath = strings.ToLower(b.annotatedPath)
	if b.outputPath == "" {
		b.outputPath = DefaultOutputPath
	}
	if b.header == "" {
		b.header = DefaultHeader
	}
	if b.stdout == nil {
		b.stdout = os.Stdout
	}
	if b.recorder == nil {
		b.recorder = metrics.NoopRecorder{}
	}
	return b
}

// OutputPath returns the configured virtual output path.
func (b *Builder) OutputPath() string { return b.outputPath }

// AnnotatedPath returns the lowercased virtual path the builder locates.
func (b *Builder) AnnotatedPath() string { return b.annotatedPath }

// LocateAnnotated scans the descriptor slice in order and returns the first
// file whose lowercased RelativePath equals the annotated path. Callers pass
// the slice sorted by RelativePath, so duplicate case-insensitive matches
// resolve to the first in sorted order. Absence is a valid terminal state,
// not an error.
func (b *Builder) LocateAnnotated(files []docs.DocFile) (docs.DocFile, bool) {
	for _, f := range files {
		if strings.ToLower(f.RelativePath) == b.annotatedPath {
			return f, true
		}
	}
	return docs.DocFile{}, false
}

// ParseLine extracts a navigation entry from one annotated index line.
// Lines whose trimmed content does not start with '*', and bullet lines
// without a [name](link) pair, contribute nothing.
func ParseLine(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "*") {
		return Entry{}, false
	}
	m := linkPattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	indent := 0
	for _, r := range line {
		if r != ' ' {
			break
		}
		indent++
	}
	return Entry{
		Indent: indent / 4,
		Name:   normalizeName(m[1]),
		Link:   m[2],
	}, true
}

// normalizeName strips bold markers and spaces and converts C++ scope
// separators to dots.
func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "**", "")
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "::", ".")
}

// Build generates the navigation document under root from the given
// descriptors and writes it, overwriting any previous content. When the
// annotated index is absent the document consists solely of the header line.
// Read and write failures propagate; nothing is retried.
func (b *Builder) Build(root string, files []docs.DocFile) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}

	lines := []string{b.header}

	if annotated, ok := b.LocateAnnotated(files); ok {
		res.Located = true
		entries, skipped, fingerprint, err := b.parseAnnotated(annotated.Path)
		if err != nil {
			b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
			return nil, err
		}
		for _, e := range entries {
			lines = append(lines, e.Render())
		}
		res.Entries = len(entries)
		res.SkippedLines = skipped
		res.Fingerprint = fingerprint
	} else {
		slog.Debug("Annotated index not present, emitting header-only document",
			logfields.File(b.annotatedPath))
	}

	outPath := filepath.Join(root, filepath.FromSlash(b.outputPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: %s: %w", nerrors.ErrSummaryWriteFailed, outPath, err)
	}
	content := strings.Join(lines, "\n")
	// #nosec G306 -- the navigation document is public site content
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: %s: %w", nerrors.ErrSummaryWriteFailed, outPath, err)
	}
	res.Output = outPath
	res.Duration = time.Since(start)

	fmt.Fprintf(b.stdout, ">>> Generated tree %s\n", filepath.Base(b.outputPath))

	b.recorder.ObserveBuildDuration(res.Duration)
	b.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	b.recorder.AddEntriesParsed(res.Entries)
	b.recorder.AddLinesSkipped(res.SkippedLines)

	slog.Info("Navigation document generated",
		logfields.RunID(res.RunID),
		logfields.Output(outPath),
		logfields.Entries(res.Entries),
		logfields.SkippedLines(res.SkippedLines),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

// parseAnnotated reads the annotated index line by line in file order,
// fingerprinting the raw bytes as it goes.
func (b *Builder) parseAnnotated(path string) ([]Entry, int, string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, 0, "", fmt.Errorf("%w: %s: %w", nerrors.ErrAnnotatedReadFailed, path, err)
	}
	defer func() {
		_ = f.Close() // read-only handle
	}()

	var h hash.Hash = sha256.New()
	scanner := bufio.NewScanner(io.TeeReader(f, h))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	skipped := 0
	for scanner.Scan() {
		entry, ok := ParseLine(scanner.Text())
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, "", fmt.Errorf("%w: %s: %w", nerrors.ErrAnnotatedReadFailed, path, err)
	}
	return entries, skipped, hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile returns the sha256 hex digest of a file's content. The
// skip-unchanged path compares it against the last recorded run.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", nerrors.ErrAnnotatedReadFailed, path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: %s: %w", nerrors.ErrAnnotatedReadFailed, path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
