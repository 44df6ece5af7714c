package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brandpulse/brandpulse/app/database"
)

// stubFetcher returns canned results keyed by brand id
type stubFetcher struct {
	results map[string]SourceResult
	calls   []string
}

func (s *stubFetcher) Run(ctx context.Context, brand database.Brand) SourceResult {
	s.calls = append(s.calls, brand.ID)
	return s.results[brand.ID]
}

func TestOrchestratorIsolatesSourceFailures(t *testing.T) {
	brandRepo := &mockBrandRepository{
		brands: []database.Brand{
			{ID: "brand-a", Name: "Brand A", FeedURL: "https://a.example.com/feed", FetchEnabled: true},
			{ID: "brand-b", Name: "Brand B", FeedURL: "https://b.example.com/feed", FetchEnabled: true},
		},
	}
	fetcher := &stubFetcher{
		results: map[string]SourceResult{
			"brand-a": {BrandID: "brand-a", BrandName: "Brand A", Error: "connection refused"},
			"brand-b": {BrandID: "brand-b", BrandName: "Brand B", Success: true, NewCount: 3, TotalItems: 5},
		},
	}

	orchestrator := NewOrchestrator(brandRepo, fetcher, time.Millisecond)
	result, err := orchestrator.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(fetcher.calls) != 2 {
		t.Fatalf("Expected both brands to be attempted, got calls: %v", fetcher.calls)
	}
	if result.Total != 2 {
		t.Errorf("Expected 2 brands total, got %d", result.Total)
	}
	if result.Succeeded != 1 {
		t.Errorf("Expected 1 success, got %d", result.Succeeded)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failure, got %d", result.Failed)
	}
	if result.TotalNew != 3 {
		t.Errorf("Expected 3 new updates, got %d", result.TotalNew)
	}
	if len(result.Sources) != 2 {
		t.Errorf("Expected per-source detail for 2 brands, got %d", len(result.Sources))
	}
}

func TestOrchestratorSkipsIneligibleBrands(t *testing.T) {
	brandRepo := &mockBrandRepository{
		brands: []database.Brand{
			{ID: "brand-a", Name: "Brand A", FeedURL: "https://a.example.com/feed", FetchEnabled: true},
			{ID: "brand-b", Name: "Brand B", FeedURL: "", FetchEnabled: true},
			{ID: "brand-c", Name: "Brand C", FeedURL: "https://c.example.com/feed", FetchEnabled: false},
		},
	}
	fetcher := &stubFetcher{
		results: map[string]SourceResult{
			"brand-a": {BrandID: "brand-a", Success: true},
		},
	}

	orchestrator := NewOrchestrator(brandRepo, fetcher, time.Millisecond)
	result, err := orchestrator.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(fetcher.calls) != 1 || fetcher.calls[0] != "brand-a" {
		t.Errorf("Expected only the eligible brand to be fetched, got %v", fetcher.calls)
	}
	if result.Total != 1 {
		t.Errorf("Expected 1 eligible brand, got %d", result.Total)
	}
}

func TestOrchestratorPropagatesEligibilityError(t *testing.T) {
	brandRepo := &mockBrandRepository{eligibleErr: errors.New("database unavailable")}
	fetcher := &stubFetcher{}

	orchestrator := NewOrchestrator(brandRepo, fetcher, time.Millisecond)
	if _, err := orchestrator.Run(context.Background()); err == nil {
		t.Error("Expected error when the eligibility query fails")
	}
}

func TestOrchestratorStopsOnCancelledContext(t *testing.T) {
	brandRepo := &mockBrandRepository{
		brands: []database.Brand{
			{ID: "brand-a", Name: "Brand A", FeedURL: "https://a.example.com/feed", FetchEnabled: true},
			{ID: "brand-b", Name: "Brand B", FeedURL: "https://b.example.com/feed", FetchEnabled: true},
		},
	}
	fetcher := &stubFetcher{results: map[string]SourceResult{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orchestrator := NewOrchestrator(brandRepo, fetcher, time.Second)
	result, err := orchestrator.Run(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetches on cancelled context, got %v", fetcher.calls)
	}
	if result.Total != 2 {
		t.Errorf("Expected eligible count to be recorded, got %d", result.Total)
	}
}
