package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/campusfound/apiserver/types"
)

// RequestRepository handles persistence for workflow requests.
type RequestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `r.id, r.type, r.status, r.item_id, r.user_id, r.admin_id,
		       r.action_date, r.reason, r.created_at, r.updated_at`

func scanRequest(row interface{ Scan(...any) error }) (types.Request, error) {
	var request types.Request
	err := row.Scan(
		&request.ID,
		&request.Type,
		&request.Status,
		&request.ItemID,
		&request.UserID,
		&request.AdminID,
		&request.ActionDate,
		&request.Reason,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Request{}, ErrNotFound
		}
		return types.Request{}, err
	}
	return request, nil
}

func (r *RequestRepository) Get(ctx context.Context, id int) (types.Request, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM requests r
		WHERE r.id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *RequestRepository) Create(ctx context.Context, request types.Request) (types.Request, error) {
	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now
	if request.Status == "" {
		request.Status = types.RequestStatusPending
	}

	const query = `
		INSERT INTO requests (type, status, item_id, user_id, admin_id, action_date, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		request.Type,
		request.Status,
		request.ItemID,
		request.UserID,
		request.AdminID,
		request.ActionDate,
		request.Reason,
		request.CreatedAt,
		request.UpdatedAt,
	).Scan(&request.ID); err != nil {
		return types.Request{}, err
	}
	return request, nil
}

// ListPending returns all pending requests with the submitting user and the
// associated item populated, for the admin review queue.
func (r *RequestRepository) ListPending(ctx context.Context) ([]types.Request, error) {
	const query = `
		SELECT ` + requestColumns + `, u.name, u.email, ` + itemColumns + `
		FROM requests r
		JOIN users u ON u.id = r.user_id
		JOIN items i ON i.id = r.item_id
		WHERE r.status = 'pending'
		ORDER BY r.created_at`
	return r.listWithItem(ctx, query)
}

// ListPendingByUser returns a user's own pending requests with the item
// summary populated, newest first.
func (r *RequestRepository) ListPendingByUser(ctx context.Context, userID int) ([]types.Request, error) {
	const query = `
		SELECT ` + requestColumns + `, u.name, u.email, ` + itemColumns + `
		FROM requests r
		JOIN users u ON u.id = r.user_id
		JOIN items i ON i.id = r.item_id
		WHERE r.status = 'pending' AND r.user_id = $1
		ORDER BY r.created_at DESC`
	return r.listWithItem(ctx, query, userID)
}

func (r *RequestRepository) listWithItem(ctx context.Context, query string, args ...any) ([]types.Request, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]types.Request, 0)
	for rows.Next() {
		var request types.Request
		var item types.Item
		if err := rows.Scan(
			&request.ID,
			&request.Type,
			&request.Status,
			&request.ItemID,
			&request.UserID,
			&request.AdminID,
			&request.ActionDate,
			&request.Reason,
			&request.CreatedAt,
			&request.UpdatedAt,
			&request.UserName,
			&request.UserEmail,
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
		); err != nil {
			return nil, err
		}
		request.Item = &item
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// Decide stamps a pending request as approved or rejected. The status
// guard in the WHERE clause makes the transition happen at most once;
// a miss on an existing request surfaces as ErrConflict.
func (r *RequestRepository) Decide(ctx context.Context, id int, status string, adminID int, at time.Time, reason string) error {
	const query = `
		UPDATE requests
		SET status = $1,
			admin_id = $2,
			action_date = $3,
			reason = $4,
			updated_at = $3
		WHERE id = $5 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, status, adminID, at, reason, id)
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

// RejectCompetingClaims bulk-rejects every other pending claim request on
// the same item, stamping them with the deciding admin and timestamp.
func (r *RequestRepository) RejectCompetingClaims(ctx context.Context, itemID, excludeRequestID, adminID int, at time.Time) (int, error) {
	const query = `
		UPDATE requests
		SET status = 'rejected',
			admin_id = $1,
			action_date = $2,
			reason = $3,
			updated_at = $2
		WHERE item_id = $4
		  AND type = 'claim'
		  AND status = 'pending'
		  AND id <> $5`
	result, err := r.db.ExecContext(ctx, query, adminID, at, types.ReasonAlreadyClaimed, itemID, excludeRequestID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
