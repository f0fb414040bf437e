package testsupport

import (
	"context"
	"testing"

	"cardbox/internal/catalog"
	"cardbox/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewCard creates a card for tests with sensible defaults.
func NewCard(t testing.TB, store *catalog.Store, fileName, filePath string) *catalog.Card {
	t.Helper()

	card, err := store.CreateCard(context.Background(), catalog.Card{
		FileName:  fileName,
		FilePath:  filePath,
		MediaType: catalog.MediaTypeImage,
		Format:    "jpg",
		SizeBytes: 1,
	})
	if err != nil {
		t.Fatalf("store.CreateCard: %v", err)
	}
	return card
}

// NewCategory creates a category for tests.
func NewCategory(t testing.TB, store *catalog.Store, name string) *catalog.Category {
	t.Helper()

	category, err := store.CreateCategory(context.Background(), catalog.Category{Name: name})
	if err != nil {
		t.Fatalf("store.CreateCategory: %v", err)
	}
	return category
}

// NewTag creates a tag for tests in the given category.
func NewTag(t testing.TB, store *catalog.Store, name, categoryID string) *catalog.Tag {
	t.Helper()

	tag, err := store.CreateTag(context.Background(), catalog.Tag{Name: name, CategoryID: categoryID})
	if err != nil {
		t.Fatalf("store.CreateTag: %v", err)
	}
	return tag
}
