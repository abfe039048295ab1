package principal

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sdejongh/dedupnorris/pkg/folders"
	"github.com/sdejongh/dedupnorris/pkg/models"
)

func p(path string) string {
	return filepath.FromSlash(path)
}

func newSet(paths ...string) *models.DuplicateSet {
	set := &models.DuplicateSet{Fingerprint: "f", Size: 10}
	for _, path := range paths {
		set.Paths = append(set.Paths, p(path))
	}
	return set
}

func newSelector(t *testing.T, inputs []string, patterns []string) *Selector {
	t.Helper()
	classifier, err := NewClassifier(patterns)
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}
	var resolved folders.Resolved
	for _, in := range inputs {
		resolved = append(resolved, p(in))
	}
	return NewSelector(resolved, classifier)
}

func TestCompileGlob(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"*backup*", "/data/my backup/2020", true},
		{"*backup*", "/data/photos", false},
		{"*BACKUP*", "/data/backup", true},
		{"/data/?", "/data/a", true},
		{"/data/?", "/data/ab", false},
		{"*/[0-9][0-9]", "/data/42", true},
		{"*/[0-9][0-9]", "/data/4x", false},
		{"*/[!a]", "/data/b", true},
		{"*/[!a]", "/data/a", false},
		{"*.old", "/data/x.old", true},
		{"*.old", "/data/xold", false},
		{"*[oops", "/data/[oops", true},
		{"/data", "/data/sub", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.input, func(t *testing.T) {
			re, err := compileGlob(tt.pattern)
			if err != nil {
				t.Fatalf("compileGlob(%q) error = %v", tt.pattern, err)
			}
			if got := re.MatchString(tt.input); got != tt.want {
				t.Errorf("match(%q, %q) = %v, want %v", tt.pattern, tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifier(t *testing.T) {
	c, err := NewClassifier([]string{"*backup*", "*old*", "*trash*"})
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}

	tests := []struct {
		name   string
		folder string
		want   Decision
	}{
		{"NoMatch", "/data/photos", Decision{Deprioritized: false, Rank: NoRank}},
		{"FirstPattern", "/data/Backup", Decision{Deprioritized: true, Rank: 0}},
		{"LastMatchWins", "/data/backup/old", Decision{Deprioritized: true, Rank: 1}},
		{"AllMatch", "/TRASH/backup/old", Decision{Deprioritized: true, Rank: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(p(tt.folder)); got != tt.want {
				t.Errorf("Classify(%s) = %+v, want %+v", tt.folder, got, tt.want)
			}
		})
	}

	t.Run("Memoized", func(t *testing.T) {
		c.Classify("/Data/Memo")
		if _, ok := c.cache["/data/memo"]; !ok {
			t.Error("decision should be cached under the lower-cased folder")
		}
	})
}

func TestChoose(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []string
		patterns  []string
		paths     []string
		principal string
		reason    string
	}{
		{
			name:      "SoleNonDeprioritizedFolder",
			inputs:    []string{"/x"},
			patterns:  []string{"*b*"},
			paths:     []string{"/x/A/photo.jpg", "/x/B/pic.jpg"},
			principal: "/x/A/photo.jpg",
			reason:    "Non-Deprioritized Folder / Single Candidate Folder / Single File In Folder",
		},
		{
			name:      "EarliestInputFolderWins",
			inputs:    []string{"/Input1", "/Input2"},
			paths:     []string{"/Input1/x.jpg", "/Input2/longname.jpg", "/Input2/y.jpg"},
			principal: "/Input1/x.jpg",
			reason:    "Non-Deprioritized Folder / First Folder non-deprioritized / Single File In Folder",
		},
		{
			name:      "InputOrderBeatsPathOrder",
			inputs:    []string{"/z", "/a"},
			paths:     []string{"/a/copy.jpg", "/z/copy.jpg"},
			principal: "/z/copy.jpg",
			reason:    "Non-Deprioritized Folder / First Folder non-deprioritized / Single File In Folder",
		},
		{
			name:      "ShortestNameInChosenFolder",
			inputs:    []string{"/x"},
			paths:     []string{"/x/A/photo (1).jpg", "/x/A/photo.jpg", "/x/B/p.jpg"},
			patterns:  []string{"*/b"},
			principal: "/x/A/photo.jpg",
			reason:    "Non-Deprioritized Folder / Single Candidate Folder / Shortest Name",
		},
		{
			name:      "ShortestNameTieKeepsFirst",
			inputs:    []string{"/x"},
			paths:     []string{"/x/aa.jpg", "/x/bb.jpg"},
			principal: "/x/aa.jpg",
			reason:    "Non-Deprioritized Folder / Single Candidate Folder / Shortest Name",
		},
		{
			name:      "ShortestNameCountsCharacters",
			inputs:    []string{"/x"},
			paths:     []string{"/x/abcd.jpg", "/x/ééé.jpg"},
			principal: "/x/ééé.jpg",
			reason:    "Non-Deprioritized Folder / Single Candidate Folder / Shortest Name",
		},
		{
			name:      "AllDeprioritizedHighestRankWins",
			inputs:    []string{"/x"},
			patterns:  []string{"*backup*", "*old*"},
			paths:     []string{"/x/backup/a.jpg", "/x/backup/old/a.jpg"},
			principal: "/x/backup/old/a.jpg",
			reason:    "All Folders Deprioritized / Highest Priority Rank 1 / Single Candidate Folder / Single File In Folder",
		},
		{
			name:      "AllDeprioritizedSameRank",
			inputs:    []string{"/in1", "/in2"},
			patterns:  []string{"*backup*"},
			paths:     []string{"/in1/backup/a.jpg", "/in2/backup/a.jpg"},
			principal: "/in1/backup/a.jpg",
			reason:    "All Folders Deprioritized / Highest Priority Rank 0 / First Folder with Highest Rank / Single File In Folder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSelector(t, tt.inputs, tt.patterns)
			set := newSet(tt.paths...)

			choice := s.Choose(set)
			if choice.Principal != p(tt.principal) {
				t.Errorf("Principal = %s, want %s", choice.Principal, tt.principal)
			}
			if choice.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", choice.Reason, tt.reason)
			}
			if len(choice.Duplicates) != len(set.Paths)-1 {
				t.Errorf("got %d duplicates, want %d", len(choice.Duplicates), len(set.Paths)-1)
			}
			for _, d := range choice.Duplicates {
				if d == choice.Principal {
					t.Error("principal must not be listed as a duplicate")
				}
			}
		})
	}
}

func TestChooseScenarioStability(t *testing.T) {
	s := newSelector(t, []string{"/x"}, nil)

	first := s.Choose(newSet("/x/A/1.jpg", "/x/B/1.jpg"))
	if first.Principal != p("/x/A/1.jpg") {
		t.Fatalf("Principal = %s, want /x/A/1.jpg", first.Principal)
	}

	// Same folders in a different encounter order must still resolve to A
	second := s.Choose(newSet("/x/B/2.jpg", "/x/A/2.jpg"))
	if filepath.Dir(second.Principal) != filepath.Dir(first.Principal) {
		t.Errorf("identical scenarios chose %s and %s", first.Principal, second.Principal)
	}
	want := "Non-Deprioritized Folder / First Folder non-deprioritized / Reused Scenario Decision / Single File In Folder"
	if second.Reason != want {
		t.Errorf("Reason = %q, want %q", second.Reason, want)
	}

	// A different scenario is decided on its own
	third := s.Choose(newSet("/x/B/3.jpg", "/x/C/3.jpg"))
	if third.Principal != p("/x/B/3.jpg") {
		t.Errorf("Principal = %s, want /x/B/3.jpg", third.Principal)
	}
}

func TestChooseNeverPrefersDeprioritized(t *testing.T) {
	s := newSelector(t, []string{"/in1", "/in2"}, []string{"*dup*", "*tmp*"})

	sets := [][]string{
		{"/in1/dup/a.jpg", "/in2/keep/a.jpg"},
		{"/in1/tmp/a.jpg", "/in1/dup/a.jpg", "/in2/z/long-name.jpg"},
		{"/in1/dup/x.jpg", "/in1/dup/y.jpg", "/in1/tmp/x.jpg", "/in2/photos/x.jpg"},
	}

	for i, paths := range sets {
		choice := s.Choose(newSet(paths...))
		if s.classifier.Classify(filepath.Dir(choice.Principal)).Deprioritized {
			t.Errorf("set %d: principal %s chosen from a deprioritized folder", i, choice.Principal)
		}
	}
}

func TestChooseConcurrent(t *testing.T) {
	s := newSelector(t, []string{"/x"}, []string{"*b*"})

	var wg sync.WaitGroup
	results := make([]string, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set := newSet(fmt.Sprintf("/x/A/%d.jpg", i), fmt.Sprintf("/x/C/%d.jpg", i))
			results[i] = filepath.Dir(s.Choose(set).Principal)
		}(i)
	}
	wg.Wait()

	for i, dir := range results {
		if dir != p("/x/A") {
			t.Errorf("set %d chose %s, want /x/A", i, dir)
		}
	}
}
