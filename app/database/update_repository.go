package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var (
	// ErrDuplicateUpdate is returned when the external id is already
	// present. An expected steady-state outcome, not a failure.
	ErrDuplicateUpdate = errors.New("duplicate update")

	// ErrInvalidUpdate is returned when a required field is missing.
	ErrInvalidUpdate = errors.New("invalid update")
)

var _ UpdateRepository = (*UpdateRepositoryImpl)(nil)

// UpdateRepositoryImpl handles database operations for brand updates
type UpdateRepositoryImpl struct {
	db *DB
}

func NewUpdateRepository(db *DB) *UpdateRepositoryImpl {
	return &UpdateRepositoryImpl{db: db}
}

const updateColumns = `id, brand_id, title, description, image_url, source_url,
	update_type, published_date, external_id, origin, is_active,
	view_count, like_count, created_at`

// Insert persists a new update. Uniqueness of external_id is enforced
// by the partial unique index; the ON CONFLICT clause turns a
// violation into zero affected rows so concurrent fetch runs cannot
// double-insert.
func (r *UpdateRepositoryImpl) Insert(ctx context.Context, update *Update) error {
	if err := validateUpdate(update); err != nil {
		return err
	}

	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	if update.Origin == "" {
		update.Origin = OriginFeed
	}
	if update.UpdateType == "" {
		update.UpdateType = UpdateTypeGeneral
	}
	if update.CreatedAt.IsZero() {
		update.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO brand_updates (
			id, brand_id, title, description, image_url, source_url,
			update_type, published_date, external_id, origin, is_active,
			view_count, like_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, update.ID, update.BrandID, update.Title, update.Description,
		update.ImageURL, update.SourceURL, update.UpdateType,
		update.PublishedDate, update.ExternalID, update.Origin,
		update.IsActive, update.ViewCount, update.LikeCount, update.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return ErrDuplicateUpdate
	}

	return nil
}

func (r *UpdateRepositoryImpl) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM brand_updates WHERE external_id = ? LIMIT 1", externalID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check external id: %w", err)
	}
	return true, nil
}

// GetFeedUpdates returns active updates for the given brands, newest
// first, with the total count for pagination.
func (r *UpdateRepositoryImpl) GetFeedUpdates(ctx context.Context, brandIDs []string, page, limit int) ([]Update, int, error) {
	if len(brandIDs) == 0 {
		return nil, 0, nil
	}
	page, limit = normalizePagination(page, limit)

	where := sq.And{sq.Eq{"brand_id": brandIDs}, sq.Eq{"is_active": true}}

	var total int
	countQuery, countArgs, err := sq.Select("COUNT(*)").From("brand_updates").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count feed updates: %w", err)
	}

	query, args, err := sq.Select(updateColumns).
		From("brand_updates").
		Where(where).
		OrderBy("published_date DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build feed query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get feed updates: %w", err)
	}
	defer rows.Close()

	updates, err := collectUpdates(rows)
	if err != nil {
		return nil, 0, err
	}
	return updates, total, nil
}

func (r *UpdateRepositoryImpl) GetBrandUpdates(ctx context.Context, brandID string, page, limit int) ([]Update, int, error) {
	return r.GetFeedUpdates(ctx, []string{brandID}, page, limit)
}

func (r *UpdateRepositoryImpl) GetRecentUpdates(ctx context.Context, limit int) ([]Update, error) {
	query, args, err := sq.Select(updateColumns).
		From("brand_updates").
		Where(sq.Eq{"is_active": true}).
		OrderBy("published_date DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent updates: %w", err)
	}
	defer rows.Close()

	return collectUpdates(rows)
}

func (r *UpdateRepositoryImpl) GetStats(ctx context.Context) (*UpdateStats, error) {
	stats := &UpdateStats{
		ByOrigin: make(map[string]int),
		ByType:   make(map[string]int),
	}

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM brand_updates WHERE is_active = 1").Scan(&stats.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to count updates: %w", err)
	}

	if err := r.groupCount(ctx, "origin", stats.ByOrigin); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "update_type", stats.ByType); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *UpdateRepositoryImpl) groupCount(ctx context.Context, column string, dest map[string]int) error {
	query, args, err := sq.Select(column, "COUNT(*)").
		From("brand_updates").
		Where(sq.Eq{"is_active": true}).
		GroupBy(column).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s stats query: %w", column, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get %s stats: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s stats row: %w", column, err)
		}
		dest[key] = count
	}
	return rows.Err()
}

func (r *UpdateRepositoryImpl) IncrementViewCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		UPDATE brand_updates
		SET view_count = view_count + 1
		WHERE id = ?
		RETURNING view_count
	`, id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("update not found: %s", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment view count: %w", err)
	}
	return count, nil
}

func (r *UpdateRepositoryImpl) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE brand_updates SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to soft delete update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update not found: %s", id)
	}
	return nil
}

func validateUpdate(update *Update) error {
	if update.BrandID == "" {
		return fmt.Errorf("%w: missing brand id", ErrInvalidUpdate)
	}
	if update.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidUpdate)
	}
	if update.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidUpdate)
	}
	if update.SourceURL == "" {
		return fmt.Errorf("%w: missing source url", ErrInvalidUpdate)
	}
	if update.PublishedDate.IsZero() {
		return fmt.Errorf("%w: missing published date", ErrInvalidUpdate)
	}
	if update.UpdateType != "" && !ValidUpdateType(update.UpdateType) {
		return fmt.Errorf("%w: unknown update type %q", ErrInvalidUpdate, update.UpdateType)
	}
	if update.Origin != "" && !ValidOrigin(update.Origin) {
		return fmt.Errorf("%w: unknown origin %q", ErrInvalidUpdate, update.Origin)
	}
	if update.Origin == OriginFeed && update.ExternalID == nil {
		return fmt.Errorf("%w: feed updates require an external id", ErrInvalidUpdate)
	}
	return nil
}

func normalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func collectUpdates(rows *sql.Rows) ([]Update, error) {
	var updates []Update
	for rows.Next() {
		var u Update
		var imageURL, externalID sql.NullString
		err := rows.Scan(
			&u.ID, &u.BrandID, &u.Title, &u.Description, &imageURL,
			&u.SourceURL, &u.UpdateType, &u.PublishedDate, &externalID,
			&u.Origin, &u.IsActive, &u.ViewCount, &u.LikeCount, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan update row: %w", err)
		}
		if imageURL.Valid {
			u.ImageURL = &imageURL.String
		}
		if externalID.Valid {
			u.ExternalID = &externalID.String
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating update rows: %w", err)
	}
	return updates, nil
}
