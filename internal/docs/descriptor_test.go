package docs

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	derrors "git.home.luguber.info/inful/navbuilder/internal/docs/errors"
)

func TestScan(t *testing.T) {
	tempDir := t.TempDir()

	testFiles := []string{
		"ecss/annotated.md",
		"ecss/classecss_1_1_registry.md",
		"index.md",
		"guides/getting-started.md",
	}
	for _, rel := range testFiles {
		full := filepath.Join(tempDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("# "+rel), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Hidden directories are build internals and must be skipped.
	if err := os.MkdirAll(filepath.Join(tempDir, ".cache"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".cache", "state.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := Scan(tempDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(files) != len(testFiles) {
		t.Fatalf("Scan returned %d files, want %d", len(files), len(testFiles))
	}

	if !sort.SliceIsSorted(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	}) {
		t.Error("Scan result is not sorted by RelativePath")
	}

	byRel := make(map[string]DocFile)
	for _, f := range files {
		byRel[f.RelativePath] = f
	}
	ann, ok := byRel["ecss/annotated.md"]
	if !ok {
		t.Fatal("ecss/annotated.md not found in scan result")
	}
	if !filepath.IsAbs(ann.Path) {
		t.Errorf("Path should be absolute, got %q", ann.Path)
	}
	if ann.Name != "annotated" {
		t.Errorf("Name = %q, want annotated", ann.Name)
	}
	if ann.Extension != ".md" {
		t.Errorf("Extension = %q, want .md", ann.Extension)
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, derrors.ErrDocsRootNotFound) {
		t.Errorf("error = %v, want ErrDocsRootNotFound", err)
	}
}

func TestScanEmptyTree(t *testing.T) {
	files, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %d", len(files))
	}
}
