package ingest

import (
	"time"

	"github.com/mmcdole/gofeed"
)

// RawItem is the loosely-typed shape one feed entry arrives in. Fields
// mirror the possible locations a logical value can live in across
// RSS/Atom variants; the normalizer resolves them first-match-wins.
// Keeping this independent of the parsing library keeps normalization
// testable without feed fixtures.
type RawItem struct {
	Title       string
	Link        string
	GUID        string
	Summary     string // short description/snippet field
	Content     string // full content field, may carry HTML
	Description string // alternate description field

	Published *time.Time // primary publish date
	Updated   *time.Time // alternate date

	MediaContentURL   string // media:content url attribute
	MediaThumbnailURL string // media:thumbnail url attribute
	EnclosureURL      string
}

// RawItemFromFeed flattens a parsed feed entry into a RawItem,
// including the media extension elements brand feeds commonly use for
// images.
func RawItemFromFeed(item *gofeed.Item) RawItem {
	raw := RawItem{
		Title:       item.Title,
		Link:        item.Link,
		GUID:        item.GUID,
		Summary:     item.Description,
		Content:     item.Content,
		Published:   item.PublishedParsed,
		Updated:     item.UpdatedParsed,
	}

	raw.MediaContentURL = mediaExtensionURL(item, "content")
	raw.MediaThumbnailURL = mediaExtensionURL(item, "thumbnail")

	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		raw.EnclosureURL = item.Enclosures[0].URL
	}

	return raw
}

func mediaExtensionURL(item *gofeed.Item, element string) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, ext := range media[element] {
		if url, ok := ext.Attrs["url"]; ok && url != "" {
			return url
		}
	}
	return ""
}

// Draft is a normalized update before classification and persistence.
type Draft struct {
	BrandID       string
	Title         string
	Description   string
	ImageURL      *string
	SourceURL     string
	PublishedDate time.Time
	ExternalID    string
}

// SourceResult summarizes one brand's fetch pass. A non-successful
// result carries either a skip reason (not configured) or an error
// message (network/parse failure); item-level problems only move
// counters.
type SourceResult struct {
	BrandID   string
	BrandName string
	Success   bool
	Reason    string
	Error     string

	TotalItems     int
	NewCount       int
	DuplicateCount int
	ErrorCount     int
}

// RunResult aggregates one batch pass over all eligible brands.
type RunResult struct {
	Total     int
	Succeeded int
	Failed    int
	TotalNew  int
	Sources   []SourceResult
	StartedAt time.Time
	Duration  time.Duration
}
