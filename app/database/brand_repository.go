package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ BrandRepository = (*BrandRepositoryImpl)(nil)

// BrandRepositoryImpl handles database operations for brands
type BrandRepositoryImpl struct {
	db *DB
}

func NewBrandRepository(db *DB) *BrandRepositoryImpl {
	return &BrandRepositoryImpl{db: db}
}

func (r *BrandRepositoryImpl) GetBrand(ctx context.Context, id string) (*Brand, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, logo_url, website_url, category,
		       feed_url, fetch_enabled, last_fetched_at, is_verified,
		       created_at, updated_at
		FROM brands
		WHERE id = ?
	`, id)

	brand, err := scanBrand(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return brand, nil
}

func (r *BrandRepositoryImpl) getBrandByName(ctx context.Context, name string) (*Brand, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, logo_url, website_url, category,
		       feed_url, fetch_enabled, last_fetched_at, is_verified,
		       created_at, updated_at
		FROM brands
		WHERE name = ?
	`, name)

	brand, err := scanBrand(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand by name: %w", err)
	}
	return brand, nil
}

func (r *BrandRepositoryImpl) GetBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, logo_url, website_url, category,
		       feed_url, fetch_enabled, last_fetched_at, is_verified,
		       created_at, updated_at
		FROM brands
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get brands: %w", err)
	}
	defer rows.Close()

	return collectBrands(rows)
}

func (r *BrandRepositoryImpl) GetBrandCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM brands").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get brand count: %w", err)
	}
	return count, nil
}

// GetEligibleBrands returns brands eligible for feed fetching, ordered
// by name so batch runs process sources in a stable order.
func (r *BrandRepositoryImpl) GetEligibleBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, logo_url, website_url, category,
		       feed_url, fetch_enabled, last_fetched_at, is_verified,
		       created_at, updated_at
		FROM brands
		WHERE fetch_enabled = 1 AND feed_url != ''
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get eligible brands: %w", err)
	}
	defer rows.Close()

	return collectBrands(rows)
}

// UpsertBrand inserts a brand definition or updates an existing one by
// name. Reports whether the feed URL changed so startup registration
// can log it.
func (r *BrandRepositoryImpl) UpsertBrand(ctx context.Context, brand Brand) (string, bool, error) {
	existing, err := r.getBrandByName(ctx, brand.Name)
	if err != nil {
		return "", false, fmt.Errorf("failed to check existing brand: %w", err)
	}

	now := time.Now().UTC()

	if existing != nil {
		urlChanged := existing.FeedURL != brand.FeedURL
		_, err = r.db.ExecContext(ctx, `
			UPDATE brands
			SET description = ?, logo_url = ?, website_url = ?, category = ?,
			    feed_url = ?, fetch_enabled = ?, is_verified = ?, updated_at = ?
			WHERE name = ?
		`, brand.Description, brand.LogoURL, brand.WebsiteURL, brand.Category,
			brand.FeedURL, brand.FetchEnabled, brand.IsVerified, now, brand.Name)
		if err != nil {
			return "", false, fmt.Errorf("failed to update brand: %w", err)
		}
		return existing.ID, urlChanged, nil
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO brands (id, name, description, logo_url, website_url,
		                    category, feed_url, fetch_enabled, is_verified,
		                    created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, brand.Name, brand.Description, brand.LogoURL, brand.WebsiteURL,
		brand.Category, brand.FeedURL, brand.FetchEnabled, brand.IsVerified, now, now)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert brand: %w", err)
	}

	return id, false, nil
}

// MarkFetched records a completed fetch pass for the brand.
func (r *BrandRepositoryImpl) MarkFetched(ctx context.Context, id string, fetchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE brands
		SET last_fetched_at = ?, updated_at = ?
		WHERE id = ?
	`, fetchedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark brand fetched: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBrand(row rowScanner) (*Brand, error) {
	var brand Brand
	var lastFetched sql.NullTime
	err := row.Scan(
		&brand.ID, &brand.Name, &brand.Description, &brand.LogoURL,
		&brand.WebsiteURL, &brand.Category, &brand.FeedURL,
		&brand.FetchEnabled, &lastFetched, &brand.IsVerified,
		&brand.CreatedAt, &brand.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastFetched.Valid {
		brand.LastFetchedAt = &lastFetched.Time
	}
	return &brand, nil
}

func collectBrands(rows *sql.Rows) ([]Brand, error) {
	var brands []Brand
	for rows.Next() {
		brand, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand row: %w", err)
		}
		brands = append(brands, *brand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brand rows: %w", err)
	}
	return brands, nil
}
