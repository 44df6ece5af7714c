package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/brandpulse/brandpulse/app/database"
)

// FetcherInterface is the per-brand fetch contract the orchestrator
// drives. Satisfied by *Fetcher.
type FetcherInterface interface {
	Run(ctx context.Context, brand database.Brand) SourceResult
}

var _ FetcherInterface = (*Fetcher)(nil)

// Orchestrator runs one batch pass over all eligible brands,
// sequentially and with pacing between feeds so third-party hosts
// never see request bursts from us.
type Orchestrator struct {
	brandRepo database.BrandRepository
	fetcher   FetcherInterface
	pace      time.Duration
}

func NewOrchestrator(brandRepo database.BrandRepository, fetcher FetcherInterface, pace time.Duration) *Orchestrator {
	return &Orchestrator{
		brandRepo: brandRepo,
		fetcher:   fetcher,
		pace:      pace,
	}
}

// Run fetches every eligible brand's feed once. One brand's failure
// never prevents the remaining brands from being attempted; the
// returned RunResult keeps per-brand detail for diagnostics.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{StartedAt: time.Now().UTC()}

	brands, err := o.brandRepo.GetEligibleBrands(ctx)
	if err != nil {
		return nil, err
	}

	result.Total = len(brands)
	slog.Info("Starting feed batch", "brands", len(brands))

	limiter := rate.NewLimiter(rate.Every(o.pace), 1)

	for _, brand := range brands {
		if err := limiter.Wait(ctx); err != nil {
			slog.Warn("Batch interrupted", "error", err)
			break
		}

		sourceResult := o.fetcher.Run(ctx, brand)
		result.Sources = append(result.Sources, sourceResult)

		if sourceResult.Success {
			result.Succeeded++
			result.TotalNew += sourceResult.NewCount
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(result.StartedAt)

	slog.Info("Feed batch complete",
		"brands", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"new_updates", result.TotalNew,
		"duration", result.Duration)

	return result, nil
}
