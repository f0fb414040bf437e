package catalog

import (
	"context"
	"fmt"
	"time"
)

// Moodboard returns the singleton moodboard record.
func (s *Store) Moodboard(ctx context.Context) (*Moodboard, error) {
	var (
		id          string
		cardsRaw    string
		modifiedRaw string
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT id, card_ids_json, date_modified FROM moodboard WHERE id = ?", MoodboardID).
		Scan(&id, &cardsRaw, &modifiedRaw)
	if err != nil {
		return nil, fmt.Errorf("get moodboard: %w", err)
	}
	return &Moodboard{
		ID:           id,
		CardIDs:      decodeIDs(cardsRaw),
		DateModified: parseTime(modifiedRaw),
	}, nil
}

// AddToMoodboard appends the card to the moodboard working set and mirrors
// the card's InMoodboard flag. Adding an already-present or unknown card is
// a no-op.
func (s *Store) AddToMoodboard(ctx context.Context, cardID string) error {
	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return err
	}
	if card == nil {
		return nil
	}

	board, err := s.Moodboard(ctx)
	if err != nil {
		return err
	}
	if containsID(board.CardIDs, cardID) {
		return nil
	}

	if err := s.rewriteMoodboardCards(ctx, append(board.CardIDs, cardID)); err != nil {
		return err
	}
	return s.setCardMoodboardFlag(ctx, cardID, true)
}

// RemoveFromMoodboard removes the card from the working set and clears the
// card's InMoodboard flag. Removing an absent card is a no-op.
func (s *Store) RemoveFromMoodboard(ctx context.Context, cardID string) error {
	board, err := s.Moodboard(ctx)
	if err != nil {
		return err
	}
	if !containsID(board.CardIDs, cardID) {
		return nil
	}

	remaining := removeID(append([]string{}, board.CardIDs...), cardID)
	if err := s.rewriteMoodboardCards(ctx, remaining); err != nil {
		return err
	}
	return s.setCardMoodboardFlag(ctx, cardID, false)
}

// ClearMoodboard resets every member card's InMoodboard flag, then empties
// the working set.
func (s *Store) ClearMoodboard(ctx context.Context) error {
	board, err := s.Moodboard(ctx)
	if err != nil {
		return err
	}
	for _, cardID := range board.CardIDs {
		if err := s.setCardMoodboardFlag(ctx, cardID, false); err != nil {
			return err
		}
	}
	return s.rewriteMoodboardCards(ctx, nil)
}

func (s *Store) rewriteMoodboardCards(ctx context.Context, cardIDs []string) error {
	if _, err := s.execWithRetry(ctx,
		"UPDATE moodboard SET card_ids_json = ?, date_modified = ? WHERE id = ?",
		encodeIDs(cardIDs), formatTime(time.Now()), MoodboardID); err != nil {
		return fmt.Errorf("rewrite moodboard cards: %w", err)
	}
	return nil
}

func (s *Store) setCardMoodboardFlag(ctx context.Context, cardID string, member bool) error {
	flag := 0
	if member {
		flag = 1
	}
	if _, err := s.execWithRetry(ctx,
		"UPDATE cards SET in_moodboard = ? WHERE id = ?", flag, cardID); err != nil {
		return fmt.Errorf("set card moodboard flag: %w", err)
	}
	return nil
}
