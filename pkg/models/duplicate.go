package models

// DuplicateSet is a group of byte-identical files sharing one fingerprint
type DuplicateSet struct {
	// Fingerprint is the hex digest of the content
	Fingerprint string

	// Size in bytes of every member
	Size int64

	// Paths are absolute member paths, sorted, at least two
	Paths []string
}

// PrincipalChoice records which member of a set is kept as canonical
type PrincipalChoice struct {
	Set *DuplicateSet

	// Principal is the canonical path
	Principal string

	// Duplicates are the remaining members, sorted
	Duplicates []string

	// Reason is the rule trace captured when the principal was chosen
	Reason string
}

// ReclaimableBytes is the space freed if every duplicate is removed
func (c *PrincipalChoice) ReclaimableBytes() int64 {
	return c.Set.Size * int64(len(c.Duplicates))
}
