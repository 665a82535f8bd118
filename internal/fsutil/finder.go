// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches every graph document below a directory.
const DefaultPattern = "**/*.fg.hcl"

// FindGraphFiles expands each path into the graph documents it names. A
// regular file is returned as is. A directory is searched with pattern,
// which uses doublestar syntax ("**" crosses directories). A path that is
// itself a glob is expanded relative to the working directory.
func FindGraphFiles(pattern string, paths ...string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid file pattern %q", pattern)
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err == nil && !info.IsDir():
			files = append(files, p)
		case err == nil:
			matches, err := doublestar.Glob(os.DirFS(p), pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("search %s: %w", p, err)
			}
			for _, m := range matches {
				files = append(files, filepath.Join(p, filepath.FromSlash(m)))
			}
		case os.IsNotExist(err) && doublestar.ValidatePattern(filepath.ToSlash(p)):
			matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expand %s: %w", p, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %s", p)
			}
			files = append(files, matches...)
		default:
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// Match reports whether name matches a doublestar pattern.
func Match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, filepath.ToSlash(name))
	return err == nil && ok
}
