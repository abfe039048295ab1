package models

import "fmt"

// Action defines what happens to the duplicates found by a run
type Action string

const (
	// ActionList only reports duplicates
	ActionList Action = "list"
	// ActionMove relocates duplicates into the quarantine tree
	ActionMove Action = "move"
	// ActionRemove deletes duplicates permanently
	ActionRemove Action = "remove"
)

// Actions lists every supported run action
var Actions = []Action{ActionList, ActionMove, ActionRemove}

// ParseAction converts a user supplied identifier into an Action
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: list, move, remove)", ErrInvalidAction, s)
}

// Mutates reports whether the action changes the filesystem
func (a Action) Mutates() bool {
	return a == ActionMove || a == ActionRemove
}

// AuditAction is the label recorded in the Action column of the audit log
type AuditAction string

const (
	// AuditKeep marks a duplicate left in place
	AuditKeep AuditAction = "keep"
	// AuditMove marks a duplicate moved to quarantine
	AuditMove AuditAction = "move"
	// AuditRemove marks a duplicate deleted
	AuditRemove AuditAction = "remove"
)

// Reversal is a directive placed in the Action column of an edited audit log
type Reversal string

const (
	// ReversalRemove deletes the duplicate wherever it currently lives
	ReversalRemove Reversal = "remove_duplicate"
	// ReversalRestore moves the duplicate back to its original path
	ReversalRestore Reversal = "restore_duplicate"
	// ReversalReplace restores the duplicate over its original path and deletes the principal
	ReversalReplace Reversal = "replace_duplicate"
)

// ParseReversal returns the directive for an audit action cell.
// ok is false for blank or unknown values, which are no-ops.
func ParseReversal(s string) (r Reversal, ok bool) {
	switch Reversal(s) {
	case ReversalRemove, ReversalRestore, ReversalReplace:
		return Reversal(s), true
	}
	return "", false
}
