package linkverify

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/navbuilder/internal/docs"
	"git.home.luguber.info/inful/navbuilder/internal/markdown"
)

// ErrSummaryNotFound indicates the navigation document to verify does not exist.
var ErrSummaryNotFound = errors.New("navigation document not found")

// Finding is one navigation link that resolved to nothing.
type Finding struct {
	URL  string
	Tag  string
	Text string
}

// Report summarizes a verification pass over the navigation document.
type Report struct {
	Checked  int
	Skipped  int // external links and pure fragments
	Findings []Finding
}

// Ok reports whether every checked link resolved.
func (r *Report) Ok() bool { return len(r.Findings) == 0 }

// VerifySummary renders the navigation document to HTML, extracts its links
// and checks each internal destination against the descriptor set and the
// filesystem. Broken links are findings, not errors; only a missing or
// unreadable document fails the pass.
func VerifySummary(root, summaryRel string, files []docs.DocFile) (*Report, error) {
	summaryPath := filepath.Join(root, filepath.FromSlash(summaryRel))
	body, err := os.ReadFile(filepath.Clean(summaryPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSummaryNotFound, summaryPath)
		}
		return nil, fmt.Errorf("read navigation document %s: %w", summaryPath, err)
	}

	rendered, err := markdown.RenderHTML(body)
	if err != nil {
		return nil, err
	}
	links, err := ExtractLinksFromReader(bytes.NewReader(rendered))
	if err != nil {
		return nil, fmt.Errorf("parse rendered navigation document: %w", err)
	}

	known := make(map[string]struct{}, len(files))
	for _, f := range files {
		known[strings.ToLower(f.RelativePath)] = struct{}{}
	}

	summaryDir := path.Dir(filepath.ToSlash(summaryRel))
	report := &Report{}
	for _, l := range links {
		dest := strings.TrimSpace(l.URL)
		if dest == "" || strings.HasPrefix(dest, "#") || isExternal(dest) {
			report.Skipped++
			continue
		}
		report.Checked++
		if !resolves(root, summaryDir, dest, known) {
			report.Findings = append(report.Findings, Finding{URL: l.URL, Tag: l.Tag, Text: l.Text})
		}
	}
	return report, nil
}

// resolves checks a destination against the descriptor set first, then falls
// back to the filesystem for files the build did not enumerate.
func resolves(root, summaryDir, dest string, known map[string]struct{}) bool {
	if u, err := url.Parse(dest); err == nil {
		dest = u.Path
	}
	if dest == "" {
		return true // fragment-only after stripping
	}

	var virtual string
	if strings.HasPrefix(dest, "/") {
		virtual = strings.TrimPrefix(path.Clean(dest), "/")
	} else {
		virtual = path.Clean(path.Join(summaryDir, dest))
	}
	if _, ok := known[strings.ToLower(virtual)]; ok {
		return true
	}
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(virtual)))
	return err == nil
}
