package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath cleans a path for the current platform and makes it absolute
func NormalizePath(path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	if IsAbsolute(normalized) {
		return normalized, nil
	}
	return filepath.Abs(normalized)
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// IsAbsolute checks if a path is absolute
func IsAbsolute(path string) bool {
	if IsUNCPath(path) {
		return true
	}
	return filepath.IsAbs(path)
}

// IsWithin reports whether target is base itself or lives below it.
// Both paths are expected to be clean and absolute.
func IsWithin(base, target string) bool {
	if base == target {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}

// SplitList splits a folder specifier on commas and semicolons,
// trimming blanks and dropping empty elements
func SplitList(spec string) []string {
	fields := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ';'
	})

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			parts = append(parts, f)
		}
	}
	return parts
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(path, char) && !IsUNCPath(path) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
