// Package catalog persists the media catalog's five entity collections in
// SQLite and exposes typed CRUD plus the cascade mutations that keep them
// linked: deleting a card strips it from collections and the moodboard,
// deleting a tag strips it from cards, and deleting a category deletes its
// tags.
//
// References between collections are soft ids stored as JSON arrays, not
// foreign keys, and cascades are ordered independent writes rather than one
// transaction. Two invariants are deliberately lazy: a tag's card count may
// go stale until RecountTags runs, and a dangling reference left by a crash
// mid-cascade persists until the integrity package heals it. The store is
// the single owner of the canonical records; snapshots give other
// components read-only copies.
package catalog
