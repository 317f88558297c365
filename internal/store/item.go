package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/campusfound/apiserver/types"
)

// ItemRepository handles persistence for items. The reported_by and
// claimed_by columns are the single source of truth for ownership; the
// per-user item lists are derived from them, never stored on the user.
type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `i.id, i.title, i.description, i.category, i.subcategory, i.location,
		       i.date_found, i.date_lost, i.image_key, i.status,
		       i.reported_by, i.claimed_by, i.claimed_at, i.created_at, i.updated_at`

func scanItem(row interface{ Scan(...any) error }, withNames bool) (types.Item, error) {
	var item types.Item
	dest := []any{
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Category,
		&item.Subcategory,
		&item.Location,
		&item.DateFound,
		&item.DateLost,
		&item.ImageKey,
		&item.Status,
		&item.ReportedBy,
		&item.ClaimedBy,
		&item.ClaimedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	}
	if withNames {
		var reporter, claimant sql.NullString
		dest = append(dest, &reporter, &claimant)
		if err := row.Scan(dest...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.Item{}, ErrNotFound
			}
			return types.Item{}, err
		}
		item.ReporterName = reporter.String
		item.ClaimantName = claimant.String
		return item, nil
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Item{}, ErrNotFound
		}
		return types.Item{}, err
	}
	return item, nil
}

func (r *ItemRepository) Get(ctx context.Context, id int) (types.Item, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM items i
		WHERE i.id = $1`
	return scanItem(r.db.QueryRowContext(ctx, query, id), false)
}

func (r *ItemRepository) Create(ctx context.Context, item types.Item) (types.Item, error) {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.DateLost.IsZero() {
		item.DateLost = item.DateFound
	}

	const query = `
		INSERT INTO items (title, description, category, subcategory, location,
		                   date_found, date_lost, image_key, status,
		                   reported_by, claimed_by, claimed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		item.Title,
		item.Description,
		item.Category,
		item.Subcategory,
		item.Location,
		item.DateFound,
		item.DateLost,
		item.ImageKey,
		item.Status,
		item.ReportedBy,
		item.ClaimedBy,
		item.ClaimedAt,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID); err != nil {
		return types.Item{}, err
	}
	return item, nil
}

func (r *ItemRepository) listWithNames(ctx context.Context, query string, args ...any) ([]types.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows, true)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListUnclaimed returns publicly claimable items: unclaimed, approved (or
// legacy "lost"), and not reported by the viewing user. Newest first.
func (r *ItemRepository) ListUnclaimed(ctx context.Context, excludeUserID int) ([]types.Item, error) {
	const query = `
		SELECT ` + itemColumns + `, u.name, NULL
		FROM items i
		JOIN users u ON u.id = i.reported_by
		WHERE i.claimed_by IS NULL
		  AND i.reported_by <> $1
		  AND i.status IN ('approved', 'lost')
		ORDER BY i.created_at DESC`
	return r.listWithNames(ctx, query, excludeUserID)
}

// ListByReporter returns every item a user reported, any status, newest first.
func (r *ItemRepository) ListByReporter(ctx context.Context, userID int) ([]types.Item, error) {
	const query = `
		SELECT ` + itemColumns + `, NULL, c.name
		FROM items i
		LEFT JOIN users c ON c.id = i.claimed_by
		WHERE i.reported_by = $1
		ORDER BY i.created_at DESC`
	return r.listWithNames(ctx, query, userID)
}

// ListClaimedBy returns items whose claim by the user was approved,
// ordered by claim time.
func (r *ItemRepository) ListClaimedBy(ctx context.Context, userID int) ([]types.Item, error) {
	const query = `
		SELECT ` + itemColumns + `, u.name, NULL
		FROM items i
		JOIN users u ON u.id = i.reported_by
		WHERE i.claimed_by = $1 AND i.status = 'claimed'
		ORDER BY i.claimed_at DESC, i.updated_at DESC`
	return r.listWithNames(ctx, query, userID)
}

// ListAll returns every item with reporter and claimant names, newest first.
func (r *ItemRepository) ListAll(ctx context.Context) ([]types.Item, error) {
	const query = `
		SELECT ` + itemColumns + `, u.name, c.name
		FROM items i
		JOIN users u ON u.id = i.reported_by
		LEFT JOIN users c ON c.id = i.claimed_by
		ORDER BY i.created_at DESC`
	return r.listWithNames(ctx, query)
}

// SetStatus updates only the lifecycle status of an item.
func (r *ItemRepository) SetStatus(ctx context.Context, id int, status string) error {
	const query = `
		UPDATE items
		SET status = $1, updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkClaimed assigns the item to a claimant. The claimed_by IS NULL guard
// makes concurrent approvals of competing claims safe: the second approval
// matches no rows and returns ErrConflict.
func (r *ItemRepository) MarkClaimed(ctx context.Context, id, userID int, at time.Time) error {
	const query = `
		UPDATE items
		SET status = 'claimed',
			claimed_by = $1,
			claimed_at = $2,
			updated_at = $2
		WHERE id = $3 AND claimed_by IS NULL`
	result, err := r.db.ExecContext(ctx, query, userID, at, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

// ClearClaim reverts a claim, leaving the item approved and claimable.
func (r *ItemRepository) ClearClaim(ctx context.Context, id int) error {
	const query = `
		UPDATE items
		SET status = 'approved',
			claimed_by = NULL,
			claimed_at = NULL,
			updated_at = $1
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM items WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
