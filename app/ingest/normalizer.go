package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Rejection reasons. Anything else that goes wrong per item is a
// persistence-layer concern, not a normalization one.
var (
	ErrMissingTitle = errors.New("item has no usable title")
	ErrMissingLink  = errors.New("item has no link")
)

const maxDescriptionLength = 500

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
)

// Normalize turns a raw feed entry into a draft update for the given
// brand, or rejects it. now supplies the fallback publish date so the
// function stays deterministic under test.
func Normalize(raw RawItem, brandID string, now time.Time) (*Draft, error) {
	title := CleanText(raw.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}

	if raw.Link == "" {
		return nil, ErrMissingLink
	}

	draft := &Draft{
		BrandID:       brandID,
		Title:         title,
		Description:   Truncate(CleanText(firstNonEmpty(raw.Summary, raw.Content, raw.Description)), maxDescriptionLength),
		ImageURL:      extractImageURL(raw),
		SourceURL:     raw.Link,
		PublishedDate: resolvePublishedDate(raw, now),
		ExternalID:    ExternalID(brandID, raw),
	}

	return draft, nil
}

// ExternalID builds the deduplication key for a (brand, item) pair.
// Identical inputs must yield an identical string across fetch runs;
// that property is what makes ingestion idempotent.
func ExternalID(brandID string, raw RawItem) string {
	itemKey := raw.GUID
	if itemKey == "" {
		itemKey = raw.Link
	}
	return fmt.Sprintf("rss_%s_%s", brandID, itemKey)
}

// CleanText strips HTML tags, decodes the common entities, collapses
// whitespace runs, and trims. The result is NFC-normalized so the
// later rune-based truncation never splits a combining sequence.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return norm.NFC.String(strings.TrimSpace(text))
}

// Truncate bounds s to limit runes without cutting a character in half.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolvePublishedDate(raw RawItem, now time.Time) time.Time {
	if raw.Published != nil && !raw.Published.IsZero() {
		return *raw.Published
	}
	if raw.Updated != nil && !raw.Updated.IsZero() {
		return *raw.Updated
	}
	return now
}

// extractImageURL probes the known image locations in priority order:
// media:content, media:thumbnail, enclosure, then the first <img> tag
// inside the content field. Absence of all four is not a rejection.
func extractImageURL(raw RawItem) *string {
	if raw.MediaContentURL != "" {
		return &raw.MediaContentURL
	}
	if raw.MediaThumbnailURL != "" {
		return &raw.MediaThumbnailURL
	}
	if raw.EnclosureURL != "" {
		return &raw.EnclosureURL
	}
	if raw.Content != "" {
		if src := firstImageSrc(raw.Content); src != "" {
			return &src
		}
	}
	return nil
}

func firstImageSrc(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return src
}
