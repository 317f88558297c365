package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/campusfound/apiserver/types"
)

// AnalyticsRepository runs read-side aggregations across users, items and
// requests. It has no write path.
type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *AnalyticsRepository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM users`)
}

func (r *AnalyticsRepository) CountAdmins(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM users WHERE role = 'admin'`)
}

func (r *AnalyticsRepository) CountItems(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM items`)
}

func (r *AnalyticsRepository) CountItemsWithStatus(ctx context.Context, status string) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM items WHERE status = $1`, status)
}

func (r *AnalyticsRepository) CountRequests(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM requests`)
}

func (r *AnalyticsRepository) CountRequestsWithStatus(ctx context.Context, status string) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM requests WHERE status = $1`, status)
}

func (r *AnalyticsRepository) CountUsersSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM users WHERE created_at >= $1`, since)
}

func (r *AnalyticsRepository) CountItemsSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM items WHERE created_at >= $1`, since)
}

func (r *AnalyticsRepository) CountRequestsSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(1) FROM requests WHERE created_at >= $1`, since)
}

func (r *AnalyticsRepository) ItemsByStatus(ctx context.Context) ([]types.StatusCount, error) {
	const query = `
		SELECT status, COUNT(1)
		FROM items
		GROUP BY status
		ORDER BY COUNT(1) DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]types.StatusCount, 0)
	for rows.Next() {
		var entry types.StatusCount
		if err := rows.Scan(&entry.Status, &entry.Count); err != nil {
			return nil, err
		}
		counts = append(counts, entry)
	}
	return counts, rows.Err()
}

func (r *AnalyticsRepository) ItemsByCategory(ctx context.Context) ([]types.CategoryBreakdown, error) {
	const query = `
		SELECT category,
		       COUNT(1),
		       COUNT(1) FILTER (WHERE status = 'claimed'),
		       COUNT(1) FILTER (WHERE status = 'pending'),
		       COUNT(1) FILTER (WHERE status = 'approved'),
		       COUNT(1) FILTER (WHERE status = 'rejected')
		FROM items
		GROUP BY category
		ORDER BY COUNT(1) DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdowns := make([]types.CategoryBreakdown, 0)
	for rows.Next() {
		var entry types.CategoryBreakdown
		if err := rows.Scan(&entry.Category, &entry.Total, &entry.Claimed, &entry.Pending, &entry.Approved, &entry.Rejected); err != nil {
			return nil, err
		}
		breakdowns = append(breakdowns, entry)
	}
	return breakdowns, rows.Err()
}

func (r *AnalyticsRepository) ItemsByLocation(ctx context.Context, limit int) ([]types.LocationCount, error) {
	const query = `
		SELECT location, COUNT(1)
		FROM items
		GROUP BY location
		ORDER BY COUNT(1) DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]types.LocationCount, 0)
	for rows.Next() {
		var entry types.LocationCount
		if err := rows.Scan(&entry.Location, &entry.Count); err != nil {
			return nil, err
		}
		counts = append(counts, entry)
	}
	return counts, rows.Err()
}

func (r *AnalyticsRepository) RequestsByType(ctx context.Context) ([]types.TypeBreakdown, error) {
	const query = `
		SELECT type,
		       COUNT(1),
		       COUNT(1) FILTER (WHERE status = 'pending'),
		       COUNT(1) FILTER (WHERE status = 'approved'),
		       COUNT(1) FILTER (WHERE status = 'rejected')
		FROM requests
		GROUP BY type
		ORDER BY type`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdowns := make([]types.TypeBreakdown, 0)
	for rows.Next() {
		var entry types.TypeBreakdown
		if err := rows.Scan(&entry.Type, &entry.Total, &entry.Pending, &entry.Approved, &entry.Rejected); err != nil {
			return nil, err
		}
		breakdowns = append(breakdowns, entry)
	}
	return breakdowns, rows.Err()
}

// TopReporters ranks users by number of items reported.
func (r *AnalyticsRepository) TopReporters(ctx context.Context, limit int) ([]types.UserVolume, error) {
	const query = `
		SELECT i.reported_by, u.name, COUNT(1)
		FROM items i
		JOIN users u ON u.id = i.reported_by
		GROUP BY i.reported_by, u.name
		ORDER BY COUNT(1) DESC
		LIMIT $1`
	return r.userVolumes(ctx, query, limit)
}

// TopClaimers ranks users by number of items claimed.
func (r *AnalyticsRepository) TopClaimers(ctx context.Context, limit int) ([]types.UserVolume, error) {
	const query = `
		SELECT i.claimed_by, u.name, COUNT(1)
		FROM items i
		JOIN users u ON u.id = i.claimed_by
		WHERE i.claimed_by IS NOT NULL
		GROUP BY i.claimed_by, u.name
		ORDER BY COUNT(1) DESC
		LIMIT $1`
	return r.userVolumes(ctx, query, limit)
}

func (r *AnalyticsRepository) userVolumes(ctx context.Context, query string, args ...any) ([]types.UserVolume, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	volumes := make([]types.UserVolume, 0)
	for rows.Next() {
		var entry types.UserVolume
		if err := rows.Scan(&entry.UserID, &entry.Name, &entry.Count); err != nil {
			return nil, err
		}
		volumes = append(volumes, entry)
	}
	return volumes, rows.Err()
}

// MonthlyItemTrends buckets items by creation month since the given time,
// counting reports and approved claims per bucket.
func (r *AnalyticsRepository) MonthlyItemTrends(ctx context.Context, since time.Time) ([]types.MonthlyBucket, error) {
	const query = `
		SELECT EXTRACT(YEAR FROM created_at)::int,
		       EXTRACT(MONTH FROM created_at)::int,
		       COUNT(1),
		       COUNT(1) FILTER (WHERE status = 'claimed')
		FROM items
		WHERE created_at >= $1
		GROUP BY 1, 2
		ORDER BY 1, 2`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]types.MonthlyBucket, 0)
	for rows.Next() {
		var entry types.MonthlyBucket
		if err := rows.Scan(&entry.Year, &entry.Month, &entry.ItemsReported, &entry.ItemsClaimed); err != nil {
			return nil, err
		}
		buckets = append(buckets, entry)
	}
	return buckets, rows.Err()
}

// MonthlyRegistrations buckets user registrations by month.
func (r *AnalyticsRepository) MonthlyRegistrations(ctx context.Context) ([]types.MonthlyBucket, error) {
	const query = `
		SELECT EXTRACT(YEAR FROM created_at)::int,
		       EXTRACT(MONTH FROM created_at)::int,
		       COUNT(1)
		FROM users
		GROUP BY 1, 2
		ORDER BY 1, 2`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]types.MonthlyBucket, 0)
	for rows.Next() {
		var entry types.MonthlyBucket
		if err := rows.Scan(&entry.Year, &entry.Month, &entry.ItemsReported); err != nil {
			return nil, err
		}
		buckets = append(buckets, entry)
	}
	return buckets, rows.Err()
}

// SubscriptionOverview aggregates the subscription base in one pass.
func (r *AnalyticsRepository) SubscriptionOverview(ctx context.Context) (types.SubscriptionOverview, error) {
	const query = `
		SELECT COUNT(1),
		       COUNT(1) FILTER (WHERE email_notifications),
		       COALESCE(SUM(jsonb_array_length(subscribed_categories)), 0)
		FROM users`
	var overview types.SubscriptionOverview
	err := r.db.QueryRowContext(ctx, query).Scan(
		&overview.TotalUsers,
		&overview.UsersWithNotifications,
		&overview.TotalSubscriptions,
	)
	return overview, err
}

// CategorySubscriptions counts subscribers per subscription key.
func (r *AnalyticsRepository) CategorySubscriptions(ctx context.Context) ([]types.KeyCount, error) {
	const query = `
		SELECT key, COUNT(1)
		FROM users, jsonb_array_elements_text(subscribed_categories) AS key
		GROUP BY key
		ORDER BY COUNT(1) DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]types.KeyCount, 0)
	for rows.Next() {
		var entry types.KeyCount
		if err := rows.Scan(&entry.Key, &entry.Count); err != nil {
			return nil, err
		}
		counts = append(counts, entry)
	}
	return counts, rows.Err()
}

// AvgResolutionHours is the mean wall-clock delta between request creation
// and decision, in hours, over all decided requests.
func (r *AnalyticsRepository) AvgResolutionHours(ctx context.Context) (int, error) {
	const query = `
		SELECT COALESCE(ROUND(AVG(EXTRACT(EPOCH FROM (action_date - created_at)) / 3600)), 0)::int
		FROM requests
		WHERE status IN ('approved', 'rejected') AND action_date IS NOT NULL`
	var hours int
	err := r.db.QueryRowContext(ctx, query).Scan(&hours)
	return hours, err
}

// RecentActivity returns the newest items with reporter and claimer names.
func (r *AnalyticsRepository) RecentActivity(ctx context.Context, limit int) ([]types.RecentActivityEntry, error) {
	const query = `
		SELECT i.id, i.title, i.category, i.status, i.created_at, i.claimed_at,
		       u.name, COALESCE(c.name, '')
		FROM items i
		JOIN users u ON u.id = i.reported_by
		LEFT JOIN users c ON c.id = i.claimed_by
		ORDER BY i.created_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.RecentActivityEntry, 0)
	for rows.Next() {
		var entry types.RecentActivityEntry
		if err := rows.Scan(
			&entry.ItemID,
			&entry.Title,
			&entry.Category,
			&entry.Status,
			&entry.CreatedAt,
			&entry.ClaimedAt,
			&entry.Reporter,
			&entry.Claimer,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
