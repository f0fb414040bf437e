package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const collectionColumns = "id, name, card_ids_json, date_modified, description"

func scanCollection(scanner interface{ Scan(dest ...any) error }) (*Collection, error) {
	var (
		id          string
		name        string
		cardsRaw    string
		modifiedRaw string
		description sql.NullString
	)
	if err := scanner.Scan(&id, &name, &cardsRaw, &modifiedRaw, &description); err != nil {
		return nil, err
	}
	return &Collection{
		ID:           id,
		Name:         name,
		CardIDs:      decodeIDs(cardsRaw),
		DateModified: parseTime(modifiedRaw),
		Description:  description.String,
	}, nil
}

// CreateCollection inserts a new collection.
func (s *Store) CreateCollection(ctx context.Context, collection Collection) (*Collection, error) {
	if collection.ID == "" {
		collection.ID = newID()
	}
	collection.Name = normName(collection.Name)
	if collection.Name == "" {
		return nil, errors.New("create collection: name is required")
	}
	if collection.DateModified.IsZero() {
		collection.DateModified = time.Now().UTC()
	}

	_, err := s.execWithRetry(ctx,
		"INSERT INTO collections (id, name, card_ids_json, date_modified, description) VALUES (?, ?, ?, ?, ?)",
		collection.ID,
		collection.Name,
		encodeIDs(collection.CardIDs),
		formatTime(collection.DateModified),
		nullableString(collection.Description))
	if err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	return s.GetCollection(ctx, collection.ID)
}

// GetCollection returns the collection with the given id, or nil when absent.
func (s *Store) GetCollection(ctx context.Context, id string) (*Collection, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+collectionColumns+" FROM collections WHERE id = ?", id)
	collection, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return collection, nil
}

// ListCollections returns every collection ordered by name.
func (s *Store) ListCollections(ctx context.Context) ([]Collection, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+collectionColumns+" FROM collections ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var collections []Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, *collection)
	}
	return collections, rows.Err()
}

// UpdateCollection applies a partial update, bumping DateModified, and
// returns the number of affected rows.
func (s *Store) UpdateCollection(ctx context.Context, id string, update CollectionUpdate) (int64, error) {
	sets := []string{"date_modified = ?"}
	args := []any{formatTime(time.Now())}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, normName(*update.Name))
	}
	if update.CardIDs != nil {
		sets = append(sets, "card_ids_json = ?")
		args = append(args, encodeIDs(*update.CardIDs))
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullableString(*update.Description))
	}

	args = append(args, id)
	res, err := s.execWithRetry(ctx,
		"UPDATE collections SET "+joinSets(sets)+" WHERE id = ?", args...)
	if err != nil {
		return 0, fmt.Errorf("update collection: %w", err)
	}
	return res.RowsAffected()
}

// DeleteCollection removes the collection and strips its id from every
// card's collections set.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	collection, err := s.GetCollection(ctx, id)
	if err != nil {
		return err
	}
	if collection == nil {
		return nil
	}

	if _, err := s.execWithRetry(ctx, "DELETE FROM collections WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	cards, err := s.ListCards(ctx)
	if err != nil {
		return err
	}
	for _, card := range cards {
		if !containsID(card.Collections, id) {
			continue
		}
		remaining := removeID(append([]string{}, card.Collections...), id)
		if _, err := s.UpdateCard(ctx, card.ID, CardUpdate{Collections: &remaining}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) rewriteCollectionCards(ctx context.Context, id string, cardIDs []string) error {
	if _, err := s.execWithRetry(ctx,
		"UPDATE collections SET card_ids_json = ?, date_modified = ? WHERE id = ?",
		encodeIDs(cardIDs), formatTime(time.Now()), id); err != nil {
		return fmt.Errorf("rewrite collection cards: %w", err)
	}
	return nil
}
