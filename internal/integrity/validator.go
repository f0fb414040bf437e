package integrity

import (
	"context"
	"fmt"
	"os"

	"cardbox/internal/catalog"
)

// FileExistsFunc reports whether the file at path exists. The host supplies
// it so validation can be tested without touching the real filesystem.
type FileExistsFunc func(path string) bool

func defaultFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Validator runs a read-only scan of the entity graph and reports every
// reference-integrity violation it finds. It never mutates the store.
type Validator struct {
	store      *catalog.Store
	fileExists FileExistsFunc
}

// NewValidator constructs a validator. A nil fileExists falls back to an
// os.Stat check.
func NewValidator(store *catalog.Store, fileExists FileExistsFunc) *Validator {
	if fileExists == nil {
		fileExists = defaultFileExists
	}
	return &Validator{store: store, fileExists: fileExists}
}

// Validate scans all five collections and returns the typed issue list.
// The report is valid iff no issue carries SeverityError; missing files are
// errors but every dangling-reference case is a warning the repairer can fix.
func (v *Validator) Validate(ctx context.Context) (*Report, error) {
	cards, err := v.store.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := v.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := v.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	collections, err := v.store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	board, err := v.store.Moodboard(ctx)
	if err != nil {
		return nil, err
	}

	cardIDs := make(map[string]struct{}, len(cards))
	tagRefCounts := make(map[string]int)
	for _, card := range cards {
		cardIDs[card.ID] = struct{}{}
		for _, tagID := range card.Tags {
			tagRefCounts[tagID]++
		}
	}
	tagIDs := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagIDs[tag.ID] = struct{}{}
	}
	categoryIDs := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		categoryIDs[category.ID] = struct{}{}
	}

	var issues []Issue

	for _, card := range cards {
		if v.fileExists(card.FilePath) {
			continue
		}
		issues = append(issues, Issue{
			Kind:     KindMissingFile,
			Severity: SeverityError,
			EntityID: card.ID,
			Detail:   fmt.Sprintf("file %q for card %q not found", card.FilePath, card.FileName),
		})
	}

	for _, tag := range tags {
		if tag.CardCount != 0 && tagRefCounts[tag.ID] == 0 {
			issues = append(issues, Issue{
				Kind:     KindOrphanedTag,
				Severity: SeverityWarning,
				EntityID: tag.ID,
				Detail:   fmt.Sprintf("tag %q claims %d cards but none reference it", tag.Name, tag.CardCount),
			})
		}
		if _, ok := categoryIDs[tag.CategoryID]; !ok {
			issues = append(issues, Issue{
				Kind:     KindOrphanedTagCategory,
				Severity: SeverityWarning,
				EntityID: tag.ID,
				Detail:   fmt.Sprintf("tag %q references missing category %q", tag.Name, tag.CategoryID),
			})
		}
	}

	for _, collection := range collections {
		missing := 0
		for _, cardID := range collection.CardIDs {
			if _, ok := cardIDs[cardID]; !ok {
				missing++
			}
		}
		if missing > 0 {
			issues = append(issues, Issue{
				Kind:     KindOrphanedCollection,
				Severity: SeverityWarning,
				EntityID: collection.ID,
				Detail:   fmt.Sprintf("collection %q references %d of %d missing cards", collection.Name, missing, len(collection.CardIDs)),
			})
		}
	}

	for _, category := range categories {
		missing := 0
		for _, tagID := range category.TagIDs {
			if _, ok := tagIDs[tagID]; !ok {
				missing++
			}
		}
		if missing > 0 {
			issues = append(issues, Issue{
				Kind:     KindOrphanedCategory,
				Severity: SeverityWarning,
				EntityID: category.ID,
				Detail:   fmt.Sprintf("category %q references %d of %d missing tags", category.Name, missing, len(category.TagIDs)),
			})
		}
	}

	missingBoard := 0
	for _, cardID := range board.CardIDs {
		if _, ok := cardIDs[cardID]; !ok {
			missingBoard++
		}
	}
	if missingBoard > 0 {
		issues = append(issues, Issue{
			Kind:     KindMoodboardMismatch,
			Severity: SeverityWarning,
			EntityID: board.ID,
			Detail:   fmt.Sprintf("moodboard references %d of %d missing cards", missingBoard, len(board.CardIDs)),
		})
	}

	valid := true
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			valid = false
			break
		}
	}
	return &Report{Valid: valid, Issues: issues}, nil
}
