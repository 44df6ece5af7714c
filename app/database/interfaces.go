package database

import (
	"context"
	"time"
)

type BrandRepository interface {
	GetBrand(ctx context.Context, id string) (*Brand, error)
	GetBrands(ctx context.Context) ([]Brand, error)
	GetBrandCount(ctx context.Context) (int, error)

	// GetEligibleBrands returns brands with fetching enabled and a
	// configured feed URL, in a deterministic order.
	GetEligibleBrands(ctx context.Context) ([]Brand, error)

	UpsertBrand(ctx context.Context, brand Brand) (string, bool, error)
	MarkFetched(ctx context.Context, id string, fetchedAt time.Time) error
}

type UpdateRepository interface {
	// Insert persists a new update. Returns ErrDuplicateUpdate when the
	// external id is already present and ErrInvalidUpdate when required
	// fields are missing.
	Insert(ctx context.Context, update *Update) error
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)

	GetFeedUpdates(ctx context.Context, brandIDs []string, page, limit int) ([]Update, int, error)
	GetBrandUpdates(ctx context.Context, brandID string, page, limit int) ([]Update, int, error)
	GetRecentUpdates(ctx context.Context, limit int) ([]Update, error)
	GetStats(ctx context.Context) (*UpdateStats, error)

	IncrementViewCount(ctx context.Context, id string) (int, error)
	SoftDelete(ctx context.Context, id string) error
}
