package docs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/navbuilder/internal/docs/errors"
)

// DocFile describes one file known to the documentation build.
type DocFile struct {
	Path         string // Absolute path to the file
	RelativePath string // Virtual path relative to the docs root, slash-separated
	Name         string // File name without extension
	Extension    string // File extension including the dot
}

// VirtualJoin maps a slash-separated virtual path onto the filesystem under
// root.
func VirtualJoin(root, virtual string) string {
	return filepath.Join(root, filepath.FromSlash(virtual))
}

// Scan walks a built documentation tree and returns a descriptor for every
// regular file, sorted lexicographically by RelativePath. Callers that hand
// the result to nav.Builder rely on that ordering.
//
// Scan deliberately stays thin: the documentation build that produced the
// tree owns discovery policy (ignore rules, sectioning), not this tool.
func Scan(root string) ([]DocFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDocsRootNotFound, root, err)
	}
	if info, err := os.Stat(absRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", derrors.ErrDocsRootNotFound, absRoot)
	}

	files := make([]DocFile, 0)
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories hold build internals, not published docs.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", derrors.ErrInvalidRelativePath, path, err)
		}
		ext := filepath.Ext(path)
		files = append(files, DocFile{
			Path:         path,
			RelativePath: filepath.ToSlash(rel),
			Name:         strings.TrimSuffix(filepath.Base(path), ext),
			Extension:    ext,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDocsDirWalkFailed, absRoot, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	return files, nil
}
