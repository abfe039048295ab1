package scan

import (
	"path/filepath"
	"strings"
)

// JunkDirName is the vendor metadata folder (Synology thumbnails) that is
// never scanned and does not keep a directory from counting as empty
const JunkDirName = "@eaDir"

// Excluder decides which entries are left out of the size index.
// Patterns support:
//   - Simple glob patterns: *.tmp, *.log
//   - Directory patterns: .git/, node_modules/
//   - Path patterns: build/*, **/cache/*
type Excluder struct {
	patterns []string
}

// NewExcluder normalizes the given patterns once
func NewExcluder(patterns []string) *Excluder {
	e := &Excluder{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			e.patterns = append(e.patterns, filepath.ToSlash(p))
		}
	}
	return e
}

// Excluded checks a path relative to its input folder
func (e *Excluder) Excluded(relativePath string, isDir bool) bool {
	if len(e.patterns) == 0 {
		return false
	}

	normalizedPath := filepath.ToSlash(relativePath)
	baseName := filepath.Base(relativePath)

	for _, pattern := range e.patterns {
		// Directory pattern: matches the directory entry or anything below it
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			if isDir && (normalizedPath == dirPattern || matchGlob(baseName, dirPattern)) {
				return true
			}
			if strings.HasPrefix(normalizedPath, dirPattern+"/") ||
				strings.Contains(normalizedPath, "/"+dirPattern+"/") {
				return true
			}
			continue
		}

		// ** matches any depth
		if strings.HasPrefix(pattern, "**/") {
			suffix := strings.TrimPrefix(pattern, "**/")
			if matchGlob(baseName, suffix) ||
				normalizedPath == suffix ||
				strings.HasSuffix(normalizedPath, "/"+suffix) ||
				matchAnySuffix(normalizedPath, suffix) {
				return true
			}
			continue
		}

		if strings.Contains(pattern, "/") {
			// Pattern applies to full relative path
			if matched, _ := filepath.Match(pattern, normalizedPath); matched {
				return true
			}
			continue
		}

		// Pattern applies to basename only
		if matchGlob(baseName, pattern) {
			return true
		}
	}

	return false
}

// matchGlob performs glob matching on a single path component
func matchGlob(name, pattern string) bool {
	matched, _ := filepath.Match(pattern, name)
	return matched
}

// matchAnySuffix checks pattern against every trailing run of path components
func matchAnySuffix(path, pattern string) bool {
	depth := strings.Count(pattern, "/") + 1
	parts := strings.Split(path, "/")
	if len(parts) < depth {
		return false
	}
	tail := strings.Join(parts[len(parts)-depth:], "/")
	matched, _ := filepath.Match(pattern, tail)
	return matched
}
