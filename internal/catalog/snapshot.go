package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Snapshot is the serialized form of the entire catalog, keyed by entity
// kind. It is what the archive builder embeds in a backup and what the
// restore coordinator hands back for import.
type Snapshot struct {
	Cards       []Card       `json:"cards"`
	Tags        []Tag        `json:"tags"`
	Categories  []Category   `json:"categories"`
	Collections []Collection `json:"collections"`
	Moodboard   []Moodboard  `json:"moodboard"`
}

// Snapshot reads every record in the store into a Snapshot.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	cards, err := s.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	collections, err := s.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	board, err := s.Moodboard(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Cards:       cards,
		Tags:        tags,
		Categories:  categories,
		Collections: collections,
		Moodboard:   []Moodboard{*board},
	}, nil
}

// ImportSnapshot loads a snapshot into the store. With replace set, all
// existing records are removed first; otherwise records with colliding ids
// are overwritten and the rest are kept. Records are written verbatim,
// preserving ids, timestamps, and card counts.
func (s *Store) ImportSnapshot(ctx context.Context, snap *Snapshot, replace bool) error {
	if snap == nil {
		return nil
	}
	ctx = ensureContext(ctx)

	if replace {
		for _, table := range []string{"cards", "tags", "categories", "collections"} {
			if _, err := s.execWithRetry(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if err := s.rewriteMoodboardCards(ctx, nil); err != nil {
			return err
		}
	}

	for _, card := range snap.Cards {
		inMoodboard := 0
		if card.InMoodboard {
			inMoodboard = 1
		}
		if _, err := s.execWithRetry(ctx,
			`INSERT OR REPLACE INTO cards (
                id, file_name, file_path, media_type, format, size_bytes,
                date_added, date_modified, preview_path, tags_json,
                collections_json, in_moodboard, description
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			card.ID, card.FileName, card.FilePath, string(card.MediaType),
			card.Format, card.SizeBytes, formatTime(card.DateAdded),
			formatTime(card.DateModified), nullableString(card.PreviewPath),
			encodeIDs(card.Tags), encodeIDs(card.Collections), inMoodboard,
			nullableString(card.Description)); err != nil {
			return fmt.Errorf("import card %s: %w", card.ID, err)
		}
	}

	for _, tag := range snap.Tags {
		if _, err := s.execWithRetry(ctx,
			"INSERT OR REPLACE INTO tags (id, name, category_id, card_count, description) VALUES (?, ?, ?, ?, ?)",
			tag.ID, tag.Name, tag.CategoryID, tag.CardCount, nullableString(tag.Description)); err != nil {
			return fmt.Errorf("import tag %s: %w", tag.ID, err)
		}
	}

	for _, category := range snap.Categories {
		if _, err := s.execWithRetry(ctx,
			"INSERT OR REPLACE INTO categories (id, name, tag_ids_json) VALUES (?, ?, ?)",
			category.ID, category.Name, encodeIDs(category.TagIDs)); err != nil {
			return fmt.Errorf("import category %s: %w", category.ID, err)
		}
	}

	for _, collection := range snap.Collections {
		if _, err := s.execWithRetry(ctx,
			"INSERT OR REPLACE INTO collections (id, name, card_ids_json, date_modified, description) VALUES (?, ?, ?, ?, ?)",
			collection.ID, collection.Name, encodeIDs(collection.CardIDs),
			formatTime(collection.DateModified), nullableString(collection.Description)); err != nil {
			return fmt.Errorf("import collection %s: %w", collection.ID, err)
		}
	}

	for _, board := range snap.Moodboard {
		if board.ID != MoodboardID {
			continue
		}
		if err := s.rewriteMoodboardCards(ctx, board.CardIDs); err != nil {
			return err
		}
	}
	return nil
}

// EncodeSnapshot renders a snapshot as the archive's JSON payload.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses an archive's JSON payload.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
