package scan

import (
	"sort"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// BuildDuplicateSets keeps fingerprints shared by two or more files.
// Members are sorted and sets are ordered by their first member, so the
// result does not depend on hashing order.
func BuildDuplicateSets(index *HashIndex) []*models.DuplicateSet {
	var sets []*models.DuplicateSet

	for fingerprint, paths := range index.Groups {
		if len(paths) < 2 {
			continue
		}

		members := append([]string(nil), paths...)
		sort.Strings(members)

		sets = append(sets, &models.DuplicateSet{
			Fingerprint: fingerprint,
			Size:        index.Sizes[fingerprint],
			Paths:       members,
		})
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].Paths[0] < sets[j].Paths[0]
	})

	return sets
}
