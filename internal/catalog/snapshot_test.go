package catalog_test

import (
	"context"
	"testing"

	"cardbox/internal/catalog"
	"cardbox/internal/testsupport"
)

func seedCatalog(t *testing.T, store *catalog.Store) {
	t.Helper()
	ctx := context.Background()

	category := testsupport.NewCategory(t, store, "Style")
	tag := testsupport.NewTag(t, store, "Minimal", category.ID)

	card, err := store.CreateCard(ctx, catalog.Card{
		FileName: "sunset.jpg", FilePath: "/media/sunset.jpg",
		MediaType: catalog.MediaTypeImage, Format: "jpg", SizeBytes: 2048,
		Tags: []string{tag.ID}, Description: "golden hour",
	})
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if _, err := store.CreateCollection(ctx, catalog.Collection{
		Name: "Refs", CardIDs: []string{card.ID},
	}); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	if err := store.AddToMoodboard(ctx, card.ID); err != nil {
		t.Fatalf("AddToMoodboard failed: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seedCatalog(t, store)

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	encoded, err := catalog.EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshot failed: %v", err)
	}
	decoded, err := catalog.DecodeSnapshot(encoded)
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}

	fresh := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := fresh.ImportSnapshot(ctx, decoded, true); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}

	restored, err := fresh.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(restored.Cards) != 1 || len(restored.Tags) != 1 ||
		len(restored.Categories) != 1 || len(restored.Collections) != 1 {
		t.Fatalf("unexpected restored shape: %+v", restored)
	}

	original := snap.Cards[0]
	roundTripped := restored.Cards[0]
	if roundTripped.ID != original.ID ||
		roundTripped.FileName != original.FileName ||
		roundTripped.Description != original.Description ||
		!roundTripped.InMoodboard {
		t.Fatalf("card not preserved: %#v vs %#v", roundTripped, original)
	}
	if !roundTripped.DateAdded.Equal(original.DateAdded) {
		t.Fatalf("timestamp not preserved: %v vs %v", roundTripped.DateAdded, original.DateAdded)
	}
	if len(restored.Moodboard) != 1 || len(restored.Moodboard[0].CardIDs) != 1 {
		t.Fatalf("moodboard not preserved: %+v", restored.Moodboard)
	}
}

func TestImportSnapshotReplaceClearsExisting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seedCatalog(t, store)

	incoming := &catalog.Snapshot{
		Cards: []catalog.Card{{
			ID: "imported", FileName: "new.png", FilePath: "/media/new.png",
			MediaType: catalog.MediaTypeImage,
		}},
	}
	if err := store.ImportSnapshot(ctx, incoming, true); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}

	cards, err := store.ListCards(ctx)
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != "imported" {
		t.Fatalf("expected only imported card, got %#v", cards)
	}
	tags, err := store.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("expected tags cleared, got %#v", tags)
	}
	board, err := store.Moodboard(ctx)
	if err != nil {
		t.Fatalf("Moodboard failed: %v", err)
	}
	if len(board.CardIDs) != 0 {
		t.Fatalf("expected moodboard cleared, got %v", board.CardIDs)
	}
}

func TestImportSnapshotMergeOverwritesCollisions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	existing := testsupport.NewCard(t, store, "old.jpg", "/media/old.jpg")

	incoming := &catalog.Snapshot{
		Cards: []catalog.Card{{
			ID: existing.ID, FileName: "renamed.jpg", FilePath: "/media/renamed.jpg",
			MediaType: catalog.MediaTypeImage,
		}},
	}
	if err := store.ImportSnapshot(ctx, incoming, false); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}

	card, err := store.GetCard(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if card.FileName != "renamed.jpg" {
		t.Fatalf("expected overwrite, got %#v", card)
	}
}

func TestImportNilSnapshotIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := store.ImportSnapshot(context.Background(), nil, true); err != nil {
		t.Fatalf("nil snapshot should be a no-op: %v", err)
	}
}
