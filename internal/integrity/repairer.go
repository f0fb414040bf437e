package integrity

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cardbox/internal/catalog"
)

// Repairer applies the automatic fix for each fixable issue kind. Fixes are
// applied independently and best-effort: one failed fix never aborts the
// batch, and re-running repair on an already-healed store fixes nothing.
type Repairer struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewRepairer constructs a repairer. A nil logger discards repair logs.
func NewRepairer(store *catalog.Store, logger *slog.Logger) *Repairer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repairer{store: store, logger: logger}
}

// Repair applies the fix for every fixable issue and returns how many were
// fixed. missing_file issues are always skipped.
func (r *Repairer) Repair(ctx context.Context, issues []Issue) int {
	fixed := 0
	for _, issue := range issues {
		if !issue.Fixable() {
			r.logger.Info("skipping issue that needs manual resolution",
				slog.String("kind", string(issue.Kind)), slog.String("entity", issue.EntityID))
			continue
		}
		if err := r.fix(ctx, issue); err != nil {
			r.logger.Warn("repair failed",
				slog.String("kind", string(issue.Kind)),
				slog.String("entity", issue.EntityID),
				slog.String("error", err.Error()))
			continue
		}
		fixed++
		r.logger.Info("repaired issue",
			slog.String("kind", string(issue.Kind)), slog.String("entity", issue.EntityID))
	}
	return fixed
}

func (r *Repairer) fix(ctx context.Context, issue Issue) error {
	switch issue.Kind {
	case KindOrphanedTag:
		return r.fixOrphanedTag(ctx, issue.EntityID)
	case KindOrphanedTagCategory:
		return r.store.DeleteTag(ctx, issue.EntityID)
	case KindOrphanedCollection:
		return r.fixOrphanedCollection(ctx, issue.EntityID)
	case KindOrphanedCategory:
		return r.fixOrphanedCategory(ctx, issue.EntityID)
	case KindMoodboardMismatch:
		return r.fixMoodboardMismatch(ctx)
	default:
		return fmt.Errorf("no repair action for issue kind %q", issue.Kind)
	}
}

// fixOrphanedTag zeroes the stale count; no card references the tag, so the
// correct count is zero by definition.
func (r *Repairer) fixOrphanedTag(ctx context.Context, tagID string) error {
	zero := 0
	_, err := r.store.UpdateTag(ctx, tagID, catalog.TagUpdate{CardCount: &zero})
	return err
}

func (r *Repairer) fixOrphanedCollection(ctx context.Context, collectionID string) error {
	collection, err := r.store.GetCollection(ctx, collectionID)
	if err != nil || collection == nil {
		return err
	}
	resolved, err := r.resolvingCards(ctx, collection.CardIDs)
	if err != nil {
		return err
	}
	_, err = r.store.UpdateCollection(ctx, collectionID, catalog.CollectionUpdate{CardIDs: &resolved})
	return err
}

func (r *Repairer) fixOrphanedCategory(ctx context.Context, categoryID string) error {
	category, err := r.store.GetCategory(ctx, categoryID)
	if err != nil || category == nil {
		return err
	}
	resolved := make([]string, 0, len(category.TagIDs))
	for _, tagID := range category.TagIDs {
		tag, err := r.store.GetTag(ctx, tagID)
		if err != nil {
			return err
		}
		if tag != nil {
			resolved = append(resolved, tagID)
		}
	}
	_, err = r.store.UpdateCategory(ctx, categoryID, catalog.CategoryUpdate{TagIDs: &resolved})
	return err
}

func (r *Repairer) fixMoodboardMismatch(ctx context.Context) error {
	board, err := r.store.Moodboard(ctx)
	if err != nil {
		return err
	}
	for _, cardID := range board.CardIDs {
		card, err := r.store.GetCard(ctx, cardID)
		if err != nil {
			return err
		}
		if card == nil {
			if err := r.store.RemoveFromMoodboard(ctx, cardID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Repairer) resolvingCards(ctx context.Context, cardIDs []string) ([]string, error) {
	resolved := make([]string, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		card, err := r.store.GetCard(ctx, cardID)
		if err != nil {
			return nil, err
		}
		if card != nil {
			resolved = append(resolved, cardID)
		}
	}
	return resolved, nil
}
