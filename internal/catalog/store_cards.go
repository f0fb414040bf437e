package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

const cardColumns = "id, file_name, file_path, media_type, format, size_bytes, date_added, date_modified, preview_path, tags_json, collections_json, in_moodboard, description"

func scanCard(scanner interface{ Scan(dest ...any) error }) (*Card, error) {
	var (
		id          string
		fileName    string
		filePath    string
		mediaType   string
		format      string
		sizeBytes   int64
		addedRaw    string
		modifiedRaw string
		previewPath sql.NullString
		tagsRaw     string
		collsRaw    string
		inMoodboard int
		description sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&fileName,
		&filePath,
		&mediaType,
		&format,
		&sizeBytes,
		&addedRaw,
		&modifiedRaw,
		&previewPath,
		&tagsRaw,
		&collsRaw,
		&inMoodboard,
		&description,
	); err != nil {
		return nil, err
	}

	return &Card{
		ID:           id,
		FileName:     fileName,
		FilePath:     filePath,
		MediaType:    MediaType(mediaType),
		Format:       format,
		SizeBytes:    sizeBytes,
		DateAdded:    parseTime(addedRaw),
		DateModified: parseTime(modifiedRaw),
		PreviewPath:  previewPath.String,
		Tags:         decodeIDs(tagsRaw),
		Collections:  decodeIDs(collsRaw),
		InMoodboard:  inMoodboard != 0,
		Description:  description.String,
	}, nil
}

// CreateCard inserts a new card. A missing ID is assigned; timestamps default
// to now when unset.
func (s *Store) CreateCard(ctx context.Context, card Card) (*Card, error) {
	if card.ID == "" {
		card.ID = newID()
	}
	now := time.Now().UTC()
	if card.DateAdded.IsZero() {
		card.DateAdded = now
	}
	if card.DateModified.IsZero() {
		card.DateModified = now
	}
	if card.MediaType != MediaTypeImage && card.MediaType != MediaTypeVideo {
		return nil, fmt.Errorf("create card: unknown media type %q", card.MediaType)
	}
	card.FileName = normName(card.FileName)
	card.FilePath = normName(card.FilePath)
	if card.FileName == "" || card.FilePath == "" {
		return nil, errors.New("create card: file name and file path are required")
	}

	inMoodboard := 0
	if card.InMoodboard {
		inMoodboard = 1
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO cards (
            id, file_name, file_path, media_type, format, size_bytes,
            date_added, date_modified, preview_path, tags_json,
            collections_json, in_moodboard, description
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID,
		card.FileName,
		card.FilePath,
		string(card.MediaType),
		card.Format,
		card.SizeBytes,
		formatTime(card.DateAdded),
		formatTime(card.DateModified),
		nullableString(card.PreviewPath),
		encodeIDs(card.Tags),
		encodeIDs(card.Collections),
		inMoodboard,
		nullableString(card.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("insert card: %w", err)
	}

	return s.GetCard(ctx, card.ID)
}

// GetCard returns the card with the given id, or nil when absent.
func (s *Store) GetCard(ctx context.Context, id string) (*Card, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return card, nil
}

// ListCards returns every card ordered by creation time, newest first.
func (s *Store) ListCards(ctx context.Context) ([]Card, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+cardColumns+" FROM cards ORDER BY date_added DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// UpdateCard applies a partial update and returns the number of affected
// rows (0 when the card does not exist). Any change bumps DateModified.
func (s *Store) UpdateCard(ctx context.Context, id string, update CardUpdate) (int64, error) {
	sets := []string{"date_modified = ?"}
	args := []any{formatTime(time.Now())}

	if update.FileName != nil {
		sets = append(sets, "file_name = ?")
		args = append(args, normName(*update.FileName))
	}
	if update.FilePath != nil {
		sets = append(sets, "file_path = ?")
		args = append(args, normName(*update.FilePath))
	}
	if update.MediaType != nil {
		if *update.MediaType != MediaTypeImage && *update.MediaType != MediaTypeVideo {
			return 0, fmt.Errorf("update card: unknown media type %q", *update.MediaType)
		}
		sets = append(sets, "media_type = ?")
		args = append(args, string(*update.MediaType))
	}
	if update.Format != nil {
		sets = append(sets, "format = ?")
		args = append(args, *update.Format)
	}
	if update.SizeBytes != nil {
		sets = append(sets, "size_bytes = ?")
		args = append(args, *update.SizeBytes)
	}
	if update.PreviewPath != nil {
		sets = append(sets, "preview_path = ?")
		args = append(args, nullableString(*update.PreviewPath))
	}
	if update.Tags != nil {
		sets = append(sets, "tags_json = ?")
		args = append(args, encodeIDs(*update.Tags))
	}
	if update.Collections != nil {
		sets = append(sets, "collections_json = ?")
		args = append(args, encodeIDs(*update.Collections))
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullableString(*update.Description))
	}

	args = append(args, id)
	res, err := s.execWithRetry(ctx,
		"UPDATE cards SET "+joinSets(sets)+" WHERE id = ?", args...)
	if err != nil {
		return 0, fmt.Errorf("update card: %w", err)
	}
	return res.RowsAffected()
}

// DeleteCard removes the card and strips its id from every collection and
// from the moodboard. A cached preview file is removed best-effort. Tag
// card counts are deliberately left stale; RecountTags or the integrity
// repairer heals them.
//
// The cascade is a sequence of independent writes, not a transaction; a
// crash mid-cascade leaves dangling references the validator detects.
func (s *Store) DeleteCard(ctx context.Context, id string) error {
	card, err := s.GetCard(ctx, id)
	if err != nil {
		return err
	}
	if card == nil {
		return nil
	}

	if _, err := s.execWithRetry(ctx, "DELETE FROM cards WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}

	collections, err := s.ListCollections(ctx)
	if err != nil {
		return err
	}
	for _, collection := range collections {
		if !containsID(collection.CardIDs, id) {
			continue
		}
		remaining := removeID(append([]string{}, collection.CardIDs...), id)
		if err := s.rewriteCollectionCards(ctx, collection.ID, remaining); err != nil {
			return err
		}
	}

	board, err := s.Moodboard(ctx)
	if err != nil {
		return err
	}
	if containsID(board.CardIDs, id) {
		remaining := removeID(append([]string{}, board.CardIDs...), id)
		if err := s.rewriteMoodboardCards(ctx, remaining); err != nil {
			return err
		}
	}

	if card.PreviewPath != "" {
		_ = os.Remove(card.PreviewPath)
	}
	return nil
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, set := range sets[1:] {
		out += ", " + set
	}
	return out
}
