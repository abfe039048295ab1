package principal

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sdejongh/dedupnorris/pkg/folders"
	"github.com/sdejongh/dedupnorris/pkg/models"
)

// Reason segments recorded in the audit log
const (
	ReasonNonDeprioritized   = "Non-Deprioritized Folder"
	ReasonAllDeprioritized   = "All Folders Deprioritized"
	ReasonHighestRank        = "Highest Priority Rank %d"
	ReasonFirstNonDep        = "First Folder non-deprioritized"
	ReasonFirstHighestRank   = "First Folder with Highest Rank"
	ReasonSingleCandidate    = "Single Candidate Folder"
	ReasonReusedScenario     = "Reused Scenario Decision"
	ReasonShortestName       = "Shortest Name"
	ReasonSingleFileInFolder = "Single File In Folder"

	reasonSeparator = " / "
)

// folderGroup is one containing directory of a set and the members it holds
type folderGroup struct {
	dir      string
	index    int // input folder index, lower wins
	order    int // first-encounter order within the set
	decision Decision
	members  []string
}

// Selector chooses principals for one run. It is safe for concurrent use.
type Selector struct {
	inputs     folders.Resolved
	classifier *Classifier

	mu        sync.Mutex
	scenarios map[string]string // tie scenario key -> chosen directory
}

// NewSelector creates a selector bound to the run's input folders
func NewSelector(inputs folders.Resolved, classifier *Classifier) *Selector {
	return &Selector{
		inputs:     inputs,
		classifier: classifier,
		scenarios:  make(map[string]string),
	}
}

// Choose picks the principal of set and records the rules that decided it
func (s *Selector) Choose(set *models.DuplicateSet) *models.PrincipalChoice {
	groups := s.group(set.Paths)

	var reason []string
	var candidates []*folderGroup
	var nonDeprioritized bool

	for _, g := range groups {
		if !g.decision.Deprioritized {
			candidates = append(candidates, g)
		}
	}

	if len(candidates) > 0 {
		nonDeprioritized = true
		reason = append(reason, ReasonNonDeprioritized)
	} else {
		maxRank := NoRank
		for _, g := range groups {
			if g.decision.Rank > maxRank {
				maxRank = g.decision.Rank
			}
		}
		for _, g := range groups {
			if g.decision.Rank == maxRank {
				candidates = append(candidates, g)
			}
		}
		reason = append(reason, ReasonAllDeprioritized, fmt.Sprintf(ReasonHighestRank, maxRank))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].index != candidates[j].index {
			return candidates[i].index < candidates[j].index
		}
		return candidates[i].order < candidates[j].order
	})

	chosen, reused := s.resolveScenario(scenarioKey(groups), candidates)
	switch {
	case len(candidates) == 1:
		reason = append(reason, ReasonSingleCandidate)
	case nonDeprioritized:
		reason = append(reason, ReasonFirstNonDep)
	default:
		reason = append(reason, ReasonFirstHighestRank)
	}
	if reused && len(candidates) > 1 {
		reason = append(reason, ReasonReusedScenario)
	}

	principal := shortestName(chosen.members)
	if len(chosen.members) > 1 {
		reason = append(reason, ReasonShortestName)
	} else {
		reason = append(reason, ReasonSingleFileInFolder)
	}

	choice := &models.PrincipalChoice{
		Set:       set,
		Principal: principal,
		Reason:    strings.Join(reason, reasonSeparator),
	}
	for _, p := range set.Paths {
		if p != principal {
			choice.Duplicates = append(choice.Duplicates, p)
		}
	}
	sort.Strings(choice.Duplicates)

	return choice
}

// group partitions members by containing directory in first-encounter order
func (s *Selector) group(paths []string) []*folderGroup {
	var groups []*folderGroup
	byDir := make(map[string]*folderGroup)

	for _, p := range paths {
		dir := filepath.Dir(p)
		g, ok := byDir[dir]
		if !ok {
			g = &folderGroup{
				dir:      dir,
				index:    s.inputs.IndexOf(p),
				order:    len(groups),
				decision: s.classifier.Classify(dir),
			}
			byDir[dir] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, p)
	}

	return groups
}

// resolveScenario returns the cached directory for key when it is still a
// candidate, otherwise the first candidate, which is then cached
func (s *Selector) resolveScenario(key string, candidates []*folderGroup) (*folderGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir, ok := s.scenarios[key]; ok {
		for _, c := range candidates {
			if c.dir == dir {
				return c, true
			}
		}
	}

	s.scenarios[key] = candidates[0].dir
	return candidates[0], false
}

// scenarioKey is the sorted (directory, deprioritized, rank) tuple list
func scenarioKey(groups []*folderGroup) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = fmt.Sprintf("%s|%t|%d", g.dir, g.decision.Deprioritized, g.decision.Rank)
	}
	sort.Strings(parts)
	return strings.Join(parts, "\x00")
}

// shortestName returns the member with the fewest characters in its base
// name; the earliest member wins ties
func shortestName(members []string) string {
	best := members[0]
	bestLen := utf8.RuneCountInString(filepath.Base(best))
	for _, m := range members[1:] {
		if n := utf8.RuneCountInString(filepath.Base(m)); n < bestLen {
			best, bestLen = m, n
		}
	}
	return best
}
