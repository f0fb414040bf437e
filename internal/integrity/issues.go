package integrity

// Kind identifies one class of reference-integrity problem.
type Kind string

const (
	// KindMissingFile means a card's file path does not resolve on disk.
	// Never auto-fixed; the user deletes the card or restores the file.
	KindMissingFile Kind = "missing_file"
	// KindOrphanedTag means a tag's card count is nonzero while no card
	// references it.
	KindOrphanedTag Kind = "orphaned_tag"
	// KindOrphanedTagCategory means a tag's category no longer exists.
	KindOrphanedTagCategory Kind = "orphaned_tag_category"
	// KindOrphanedCollection means a collection lists card ids with no
	// matching card.
	KindOrphanedCollection Kind = "orphaned_collection"
	// KindOrphanedCategory means a category lists tag ids with no matching
	// tag.
	KindOrphanedCategory Kind = "orphaned_category"
	// KindMoodboardMismatch means the moodboard lists card ids with no
	// matching card.
	KindMoodboardMismatch Kind = "moodboard_mismatch"
)

// Severity ranks an issue. Only errors block validity.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one detected violation of a cross-entity invariant.
type Issue struct {
	Kind     Kind
	Severity Severity
	// EntityID identifies the record the issue was detected on (tag id,
	// collection id, card id, or the moodboard id).
	EntityID string
	Detail   string
}

// Report is the outcome of a full validation pass.
type Report struct {
	// Valid is true when no issue has SeverityError. Warnings, which are
	// all auto-fixable, do not block validity.
	Valid  bool
	Issues []Issue
}

// Fixable reports whether the repairer has an automatic action for the issue.
func (i Issue) Fixable() bool {
	return i.Kind != KindMissingFile
}
