package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const tagColumns = "id, name, category_id, card_count, description"

func scanTag(scanner interface{ Scan(dest ...any) error }) (*Tag, error) {
	var (
		id          string
		name        string
		categoryID  string
		cardCount   int
		description sql.NullString
	)
	if err := scanner.Scan(&id, &name, &categoryID, &cardCount, &description); err != nil {
		return nil, err
	}
	return &Tag{
		ID:          id,
		Name:        name,
		CategoryID:  categoryID,
		CardCount:   cardCount,
		Description: description.String,
	}, nil
}

// CreateTag inserts a new tag. The referenced category must exist, and the
// tag id is appended to that category's tag list.
func (s *Store) CreateTag(ctx context.Context, tag Tag) (*Tag, error) {
	if tag.ID == "" {
		tag.ID = newID()
	}
	tag.Name = normName(tag.Name)
	if tag.Name == "" {
		return nil, errors.New("create tag: name is required")
	}

	category, err := s.GetCategory(ctx, tag.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("create tag: category %q not found", tag.CategoryID)
	}

	_, err = s.execWithRetry(ctx,
		"INSERT INTO tags (id, name, category_id, card_count, description) VALUES (?, ?, ?, ?, ?)",
		tag.ID, tag.Name, tag.CategoryID, tag.CardCount, nullableString(tag.Description))
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}

	if !containsID(category.TagIDs, tag.ID) {
		if err := s.rewriteCategoryTags(ctx, category.ID, append(category.TagIDs, tag.ID)); err != nil {
			return nil, err
		}
	}
	return s.GetTag(ctx, tag.ID)
}

// GetTag returns the tag with the given id, or nil when absent.
func (s *Store) GetTag(ctx context.Context, id string) (*Tag, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+tagColumns+" FROM tags WHERE id = ?", id)
	tag, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// ListTags returns every tag ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+tagColumns+" FROM tags ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *tag)
	}
	return tags, rows.Err()
}

// UpdateTag applies a partial update and returns the number of affected rows.
func (s *Store) UpdateTag(ctx context.Context, id string, update TagUpdate) (int64, error) {
	var sets []string
	var args []any

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, normName(*update.Name))
	}
	if update.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *update.CategoryID)
	}
	if update.CardCount != nil {
		sets = append(sets, "card_count = ?")
		args = append(args, *update.CardCount)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullableString(*update.Description))
	}
	if len(sets) == 0 {
		return 0, nil
	}

	args = append(args, id)
	res, err := s.execWithRetry(ctx,
		"UPDATE tags SET "+joinSets(sets)+" WHERE id = ?", args...)
	if err != nil {
		return 0, fmt.Errorf("update tag: %w", err)
	}
	return res.RowsAffected()
}

// DeleteTag removes the tag and strips its id from every card's tag set.
// The owning category's tag list is intentionally not updated here; callers
// doing a full deletion update the category themselves, and the integrity
// repairer heals the case where they forgot.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	tag, err := s.GetTag(ctx, id)
	if err != nil {
		return err
	}
	if tag == nil {
		return nil
	}

	if _, err := s.execWithRetry(ctx, "DELETE FROM tags WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	cards, err := s.ListCards(ctx)
	if err != nil {
		return err
	}
	for _, card := range cards {
		if !containsID(card.Tags, id) {
			continue
		}
		remaining := removeID(append([]string{}, card.Tags...), id)
		if _, err := s.UpdateCard(ctx, card.ID, CardUpdate{Tags: &remaining}); err != nil {
			return err
		}
	}
	return nil
}

// RecountTags recomputes card_count for every tag from the cards that
// actually reference it, and persists any corrections. It returns the number
// of tags whose count changed.
func (s *Store) RecountTags(ctx context.Context) (int, error) {
	cards, err := s.ListCards(ctx)
	if err != nil {
		return 0, err
	}
	counts := make(map[string]int)
	for _, card := range cards {
		for _, tagID := range card.Tags {
			counts[tagID]++
		}
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, tag := range tags {
		want := counts[tag.ID]
		if tag.CardCount == want {
			continue
		}
		if _, err := s.UpdateTag(ctx, tag.ID, TagUpdate{CardCount: &want}); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
