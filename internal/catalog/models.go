package catalog

import "time"

// MediaType identifies the kind of media a card references.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MoodboardID is the fixed identifier of the singleton moodboard record.
const MoodboardID = "moodboard"

// Card is the catalog record for one media file in the working directory.
type Card struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	FilePath     string    `json:"filePath"`
	MediaType    MediaType `json:"type"`
	Format       string    `json:"format"`
	SizeBytes    int64     `json:"size"`
	DateAdded    time.Time `json:"dateAdded"`
	DateModified time.Time `json:"dateModified"`
	PreviewPath  string    `json:"previewPath,omitempty"`
	Tags         []string  `json:"tags"`
	Collections  []string  `json:"collections"`
	InMoodboard  bool      `json:"inMoodboard"`
	Description  string    `json:"description,omitempty"`
}

// Tag is a categorization label. Every tag belongs to exactly one category.
//
// CardCount is maintained lazily: card mutations do not update it, and it can
// transiently disagree with the number of cards referencing the tag until
// RecountTags or the integrity repairer runs.
type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CategoryID  string `json:"categoryId"`
	CardCount   int    `json:"cardCount"`
	Description string `json:"description,omitempty"`
}

// Category is a named, ordered grouping of tags.
type Category struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	TagIDs []string `json:"tagIds"`
}

// Collection is a named, user-curated, ordered grouping of cards.
type Collection struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CardIDs      []string  `json:"cardIds"`
	DateModified time.Time `json:"dateModified"`
	Description  string    `json:"description,omitempty"`
}

// Moodboard is the transient working set of cards. There is exactly one,
// with ID MoodboardID.
type Moodboard struct {
	ID           string    `json:"id"`
	CardIDs      []string  `json:"cardIds"`
	DateModified time.Time `json:"dateModified"`
}

// CardUpdate is a partial update for a card. Nil fields are left unchanged.
type CardUpdate struct {
	FileName    *string
	FilePath    *string
	MediaType   *MediaType
	Format      *string
	SizeBytes   *int64
	PreviewPath *string
	Tags        *[]string
	Collections *[]string
	Description *string
}

// TagUpdate is a partial update for a tag. Nil fields are left unchanged.
type TagUpdate struct {
	Name        *string
	CategoryID  *string
	CardCount   *int
	Description *string
}

// CategoryUpdate is a partial update for a category. Nil fields are left unchanged.
type CategoryUpdate struct {
	Name   *string
	TagIDs *[]string
}

// CollectionUpdate is a partial update for a collection. Nil fields are left
// unchanged. Any update bumps the collection's DateModified.
type CollectionUpdate struct {
	Name        *string
	CardIDs     *[]string
	Description *string
}
