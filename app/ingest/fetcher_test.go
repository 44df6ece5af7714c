package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brandpulse/brandpulse/app/database"
)

// mockBrandRepository implements database.BrandRepository for tests
type mockBrandRepository struct {
	brands      []database.Brand
	markedIDs   []string
	markErr     error
	eligibleErr error
}

func (m *mockBrandRepository) GetBrand(ctx context.Context, id string) (*database.Brand, error) {
	for _, b := range m.brands {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *mockBrandRepository) GetBrands(ctx context.Context) ([]database.Brand, error) {
	return m.brands, nil
}

func (m *mockBrandRepository) GetBrandCount(ctx context.Context) (int, error) {
	return len(m.brands), nil
}

func (m *mockBrandRepository) GetEligibleBrands(ctx context.Context) ([]database.Brand, error) {
	if m.eligibleErr != nil {
		return nil, m.eligibleErr
	}
	var eligible []database.Brand
	for _, b := range m.brands {
		if b.FetchEnabled && b.FeedURL != "" {
			eligible = append(eligible, b)
		}
	}
	return eligible, nil
}

func (m *mockBrandRepository) UpsertBrand(ctx context.Context, brand database.Brand) (string, bool, error) {
	return "test-id", false, nil
}

func (m *mockBrandRepository) MarkFetched(ctx context.Context, id string, fetchedAt time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.markedIDs = append(m.markedIDs, id)
	return nil
}

// mockUpdateRepository implements database.UpdateRepository over an
// in-memory external id set, mirroring the unique constraint.
type mockUpdateRepository struct {
	stored    map[string]database.Update
	insertErr error
}

func newMockUpdateRepository() *mockUpdateRepository {
	return &mockUpdateRepository{stored: make(map[string]database.Update)}
}

func (m *mockUpdateRepository) Insert(ctx context.Context, update *database.Update) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if update.ExternalID != nil {
		if _, ok := m.stored[*update.ExternalID]; ok {
			return database.ErrDuplicateUpdate
		}
		m.stored[*update.ExternalID] = *update
	}
	return nil
}

func (m *mockUpdateRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	_, ok := m.stored[externalID]
	return ok, nil
}

func (m *mockUpdateRepository) GetFeedUpdates(ctx context.Context, brandIDs []string, page, limit int) ([]database.Update, int, error) {
	return nil, 0, nil
}

func (m *mockUpdateRepository) GetBrandUpdates(ctx context.Context, brandID string, page, limit int) ([]database.Update, int, error) {
	return nil, 0, nil
}

func (m *mockUpdateRepository) GetRecentUpdates(ctx context.Context, limit int) ([]database.Update, error) {
	return nil, nil
}

func (m *mockUpdateRepository) GetStats(ctx context.Context) (*database.UpdateStats, error) {
	return &database.UpdateStats{}, nil
}

func (m *mockUpdateRepository) IncrementViewCount(ctx context.Context, id string) (int, error) {
	return 0, nil
}

func (m *mockUpdateRepository) SoftDelete(ctx context.Context, id string) error {
	return nil
}

const testFeed = `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Brand Feed</title>
    <link>https://brand.example.com</link>
    <item>
      <title>New sneaker launch</title>
      <link>https://brand.example.com/launch</link>
      <guid>item-1</guid>
      <description>The flagship silhouette returns</description>
      <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
      <media:content url="https://cdn.example.com/launch.jpg" medium="image"/>
    </item>
    <item>
      <title>Fall collection lookbook</title>
      <link>https://brand.example.com/lookbook</link>
      <guid>item-2</guid>
      <description>Every piece from the new season</description>
      <pubDate>Tue, 03 Mar 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://brand.example.com/untitled</link>
      <guid>item-3</guid>
    </item>
  </channel>
</rss>`

func testBrand(feedURL string) database.Brand {
	return database.Brand{
		ID:           "brand-1",
		Name:         "Test Brand",
		FeedURL:      feedURL,
		FetchEnabled: true,
	}
}

func newTestFetcher(brandRepo *mockBrandRepository, updateRepo *mockUpdateRepository) *Fetcher {
	return NewFetcher(&http.Client{}, brandRepo, updateRepo, "test-agent", 5*time.Second)
}

func TestFetcherIngestsNewItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	brandRepo := &mockBrandRepository{}
	updateRepo := newMockUpdateRepository()
	fetcher := newTestFetcher(brandRepo, updateRepo)

	result := fetcher.Run(context.Background(), testBrand(server.URL))

	if !result.Success {
		t.Fatalf("Expected success, got reason=%q error=%q", result.Reason, result.Error)
	}
	if result.TotalItems != 3 {
		t.Errorf("Expected 3 total items, got %d", result.TotalItems)
	}
	if result.NewCount != 2 {
		t.Errorf("Expected 2 new items, got %d", result.NewCount)
	}
	if result.ErrorCount != 1 {
		t.Errorf("Expected 1 item error for the untitled entry, got %d", result.ErrorCount)
	}

	stored, ok := updateRepo.stored["rss_brand-1_item-1"]
	if !ok {
		t.Fatal("Expected item-1 to be stored under its external id")
	}
	if stored.UpdateType != database.UpdateTypeProductLaunch {
		t.Errorf("Expected product_launch classification, got %q", stored.UpdateType)
	}
	if stored.ImageURL == nil || *stored.ImageURL != "https://cdn.example.com/launch.jpg" {
		t.Errorf("Expected media:content image, got %v", stored.ImageURL)
	}
	if stored.Origin != database.OriginFeed {
		t.Errorf("Expected feed origin, got %q", stored.Origin)
	}

	if len(brandRepo.markedIDs) != 1 || brandRepo.markedIDs[0] != "brand-1" {
		t.Errorf("Expected brand to be marked fetched, got %v", brandRepo.markedIDs)
	}
}

func TestFetcherIdempotentAcrossRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	brandRepo := &mockBrandRepository{}
	updateRepo := newMockUpdateRepository()
	fetcher := newTestFetcher(brandRepo, updateRepo)
	brand := testBrand(server.URL)

	first := fetcher.Run(context.Background(), brand)
	second := fetcher.Run(context.Background(), brand)

	if first.NewCount != 2 {
		t.Errorf("Expected 2 new items on first run, got %d", first.NewCount)
	}
	if second.NewCount != 0 {
		t.Errorf("Expected 0 new items on second run, got %d", second.NewCount)
	}
	if second.DuplicateCount != 2 {
		t.Errorf("Expected 2 duplicates on second run, got %d", second.DuplicateCount)
	}
	if len(updateRepo.stored) != 2 {
		t.Errorf("Expected 2 stored updates after both runs, got %d", len(updateRepo.stored))
	}
}

func TestFetcherSkipsUnconfiguredBrand(t *testing.T) {
	brandRepo := &mockBrandRepository{}
	updateRepo := newMockUpdateRepository()
	fetcher := newTestFetcher(brandRepo, updateRepo)

	brand := testBrand("")
	result := fetcher.Run(context.Background(), brand)

	if result.Success {
		t.Error("Expected unconfigured brand to be skipped")
	}
	if result.Reason != ReasonNotConfigured {
		t.Errorf("Expected reason %q, got %q", ReasonNotConfigured, result.Reason)
	}
	if result.Error != "" {
		t.Errorf("Configuration skip should not carry an error, got %q", result.Error)
	}

	brand = testBrand("https://brand.example.com/feed.xml")
	brand.FetchEnabled = false
	result = fetcher.Run(context.Background(), brand)
	if result.Success || result.Reason != ReasonNotConfigured {
		t.Errorf("Expected disabled brand to be skipped, got %+v", result)
	}
}

func TestFetcherReportsFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	brandRepo := &mockBrandRepository{}
	updateRepo := newMockUpdateRepository()
	fetcher := newTestFetcher(brandRepo, updateRepo)

	result := fetcher.Run(context.Background(), testBrand(server.URL))

	if result.Success {
		t.Error("Expected fetch failure to be reported")
	}
	if result.Error == "" {
		t.Error("Expected an error message on fetch failure")
	}
	if len(updateRepo.stored) != 0 {
		t.Errorf("Expected no stored updates on fetch failure, got %d", len(updateRepo.stored))
	}
}

func TestFetcherMarkFetchedFailureDoesNotInvalidateRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	brandRepo := &mockBrandRepository{markErr: context.DeadlineExceeded}
	updateRepo := newMockUpdateRepository()
	fetcher := newTestFetcher(brandRepo, updateRepo)

	result := fetcher.Run(context.Background(), testBrand(server.URL))

	if !result.Success {
		t.Error("Expected run to succeed despite bookkeeping failure")
	}
	if result.NewCount != 2 {
		t.Errorf("Expected 2 new items, got %d", result.NewCount)
	}
}
