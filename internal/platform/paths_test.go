package platform

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []string
	}{
		{"Single", "/photos", []string{"/photos"}},
		{"Comma", "/a,/b", []string{"/a", "/b"}},
		{"Semicolon", "/a;/b", []string{"/a", "/b"}},
		{"Mixed", " /a ; /b , /c ", []string{"/a", "/b", "/c"}},
		{"Empties", ",;/a,,", []string{"/a"}},
		{"Blank", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitList(tt.spec)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitList(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestIsWithin(t *testing.T) {
	base := filepath.FromSlash("/data/photos")

	tests := []struct {
		target string
		want   bool
	}{
		{"/data/photos", true},
		{"/data/photos/2020/a.jpg", true},
		{"/data/photos2/a.jpg", false},
		{"/data", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := IsWithin(base, filepath.FromSlash(tt.target)); got != tt.want {
				t.Errorf("IsWithin(%s, %s) = %v, want %v", base, tt.target, got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if _, err := NormalizePath(""); err == nil {
			t.Error("NormalizePath() should fail for empty path")
		}
	})

	t.Run("RelativeBecomesAbsolute", func(t *testing.T) {
		got, err := NormalizePath("some/dir/../folder")
		if err != nil {
			t.Fatalf("NormalizePath() error = %v", err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("NormalizePath() = %s, want absolute path", got)
		}
		if filepath.Base(got) != "folder" {
			t.Errorf("NormalizePath() = %s, want cleaned path ending in folder", got)
		}
	})
}
