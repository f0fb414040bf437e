package catalog

import (
	"context"
	"fmt"
)

// CardFilter narrows a card search. Zero values mean "no restriction".
type CardFilter struct {
	// MediaType restricts results to one media kind.
	MediaType MediaType
	// TagIDs requires every listed tag to be present on a card (conjunctive).
	TagIDs []string
	// MoodboardOnly restricts results to cards currently in the moodboard.
	MoodboardOnly bool
}

// SearchCards returns the cards matching the filter, newest first. Type and
// moodboard restrictions are pushed into SQL; the conjunctive tag match runs
// over the decoded tag sets.
func (s *Store) SearchCards(ctx context.Context, filter CardFilter) ([]Card, error) {
	query := "SELECT " + cardColumns + " FROM cards"
	var conditions []string
	var args []any

	if filter.MediaType != "" {
		conditions = append(conditions, "media_type = ?")
		args = append(args, string(filter.MediaType))
	}
	if filter.MoodboardOnly {
		conditions = append(conditions, "in_moodboard = 1")
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for _, condition := range conditions[1:] {
			query += " AND " + condition
		}
	}
	query += " ORDER BY date_added DESC, id"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	defer rows.Close()

	var matched []Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		if !hasAllTags(card.Tags, filter.TagIDs) {
			continue
		}
		matched = append(matched, *card)
	}
	return matched, rows.Err()
}

func hasAllTags(cardTags, required []string) bool {
	for _, tagID := range required {
		if !containsID(cardTags, tagID) {
			return false
		}
	}
	return true
}
