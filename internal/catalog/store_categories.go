package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const categoryColumns = "id, name, tag_ids_json"

func scanCategory(scanner interface{ Scan(dest ...any) error }) (*Category, error) {
	var (
		id      string
		name    string
		tagsRaw string
	)
	if err := scanner.Scan(&id, &name, &tagsRaw); err != nil {
		return nil, err
	}
	return &Category{ID: id, Name: name, TagIDs: decodeIDs(tagsRaw)}, nil
}

// CreateCategory inserts a new category.
func (s *Store) CreateCategory(ctx context.Context, category Category) (*Category, error) {
	if category.ID == "" {
		category.ID = newID()
	}
	category.Name = normName(category.Name)
	if category.Name == "" {
		return nil, errors.New("create category: name is required")
	}

	_, err := s.execWithRetry(ctx,
		"INSERT INTO categories (id, name, tag_ids_json) VALUES (?, ?, ?)",
		category.ID, category.Name, encodeIDs(category.TagIDs))
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return s.GetCategory(ctx, category.ID)
}

// GetCategory returns the category with the given id, or nil when absent.
func (s *Store) GetCategory(ctx context.Context, id string) (*Category, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+categoryColumns+" FROM categories ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

// UpdateCategory applies a partial update and returns the number of affected rows.
func (s *Store) UpdateCategory(ctx context.Context, id string, update CategoryUpdate) (int64, error) {
	var sets []string
	var args []any

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, normName(*update.Name))
	}
	if update.TagIDs != nil {
		sets = append(sets, "tag_ids_json = ?")
		args = append(args, encodeIDs(*update.TagIDs))
	}
	if len(sets) == 0 {
		return 0, nil
	}

	args = append(args, id)
	res, err := s.execWithRetry(ctx,
		"UPDATE categories SET "+joinSets(sets)+" WHERE id = ?", args...)
	if err != nil {
		return 0, fmt.Errorf("update category: %w", err)
	}
	return res.RowsAffected()
}

// DeleteCategory deletes every tag currently listed by the category (with
// the tag cascade stripping card back-references), then the category itself.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return nil
	}

	for _, tagID := range category.TagIDs {
		if err := s.DeleteTag(ctx, tagID); err != nil {
			return err
		}
	}

	if _, err := s.execWithRetry(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *Store) rewriteCategoryTags(ctx context.Context, id string, tagIDs []string) error {
	if _, err := s.execWithRetry(ctx,
		"UPDATE categories SET tag_ids_json = ? WHERE id = ?", encodeIDs(tagIDs), id); err != nil {
		return fmt.Errorf("rewrite category tags: %w", err)
	}
	return nil
}
