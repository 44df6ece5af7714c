package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/brandpulse/brandpulse/app/database"
)

// ReasonNotConfigured distinguishes a configuration skip from a
// network or parse failure in per-source results.
const ReasonNotConfigured = "not configured"

// Fetcher runs one brand's feed through fetch, parse, normalize,
// classify, and the deduplicated insert.
type Fetcher struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	brandRepo  database.BrandRepository
	updateRepo database.UpdateRepository
	userAgent  string
	timeout    time.Duration
}

func NewFetcher(httpClient *http.Client, brandRepo database.BrandRepository,
	updateRepo database.UpdateRepository, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		brandRepo:  brandRepo,
		updateRepo: updateRepo,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Run fetches and ingests a single brand's feed. It never returns an
// error: configuration skips and fetch failures are reported in the
// result, and item-level problems only move counters so one bad entry
// cannot stop the rest of the feed.
func (f *Fetcher) Run(ctx context.Context, brand database.Brand) SourceResult {
	result := SourceResult{BrandID: brand.ID, BrandName: brand.Name}

	if !brand.FetchEnabled || brand.FeedURL == "" {
		slog.Debug("Brand feed not configured, skipping", "brand", brand.Name)
		result.Reason = ReasonNotConfigured
		return result
	}

	items, err := f.fetchAndParse(ctx, brand.FeedURL)
	if err != nil {
		slog.Warn("Feed fetch failed", "brand", brand.Name, "url", brand.FeedURL, "error", err)
		result.Error = err.Error()
		return result
	}

	result.TotalItems = len(items)

	for _, item := range items {
		if item == nil {
			continue
		}
		f.ingestItem(ctx, brand, RawItemFromFeed(item), &result)
	}

	// Best-effort bookkeeping: the items above are already persisted,
	// so a failure here must not invalidate the result.
	if err := f.brandRepo.MarkFetched(ctx, brand.ID, time.Now().UTC()); err != nil {
		slog.Warn("Failed to record fetch time", "brand", brand.Name, "error", err)
	}

	result.Success = true
	slog.Info("Brand feed processed",
		"brand", brand.Name,
		"total", result.TotalItems,
		"new", result.NewCount,
		"duplicates", result.DuplicateCount,
		"errors", result.ErrorCount)

	return result
}

func (f *Fetcher) ingestItem(ctx context.Context, brand database.Brand, raw RawItem, result *SourceResult) {
	draft, err := Normalize(raw, brand.ID, time.Now().UTC())
	if err != nil {
		slog.Debug("Item rejected", "brand", brand.Name, "error", err)
		result.ErrorCount++
		return
	}

	// Read-check before insert saves a write in the common duplicate
	// case; the unique index remains the actual guarantee.
	exists, err := f.updateRepo.ExistsByExternalID(ctx, draft.ExternalID)
	if err != nil {
		slog.Warn("Duplicate check failed", "brand", brand.Name, "error", err)
		result.ErrorCount++
		return
	}
	if exists {
		result.DuplicateCount++
		return
	}

	update := &database.Update{
		BrandID:       draft.BrandID,
		Title:         draft.Title,
		Description:   draft.Description,
		ImageURL:      draft.ImageURL,
		SourceURL:     draft.SourceURL,
		UpdateType:    Classify(draft.Title, raw.Content),
		PublishedDate: draft.PublishedDate,
		ExternalID:    &draft.ExternalID,
		Origin:        database.OriginFeed,
		IsActive:      true,
	}

	err = f.updateRepo.Insert(ctx, update)
	switch {
	case err == nil:
		result.NewCount++
	case errors.Is(err, database.ErrDuplicateUpdate):
		result.DuplicateCount++
	default:
		slog.Warn("Failed to store update", "brand", brand.Name, "title", draft.Title, "error", err)
		result.ErrorCount++
	}
}

func (f *Fetcher) fetchAndParse(ctx context.Context, url string) ([]*gofeed.Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	feed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return feed.Items, nil
}
