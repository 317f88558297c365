package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/campusfound/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, role, password_hash, subscribed_categories, email_notifications, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	var subscriptionsJSON []byte
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.PasswordHash,
		&subscriptionsJSON,
		&user.EmailNotifications,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	_ = json.Unmarshal(subscriptionsJSON, &user.SubscribedCategories)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.SubscribedCategories == nil {
		user.SubscribedCategories = []string{}
	}

	subscriptionsJSON, err := json.Marshal(user.SubscribedCategories)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (name, email, role, password_hash, subscribed_categories, email_notifications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Role,
		user.PasswordHash,
		subscriptionsJSON,
		user.EmailNotifications,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	subscriptionsJSON, err := json.Marshal(user.SubscribedCategories)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			role = $3,
			password_hash = $4,
			subscribed_categories = $5,
			email_notifications = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Role,
		user.PasswordHash,
		subscriptionsJSON,
		user.EmailNotifications,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// UpdateSubscriptions persists only the subscription list and the
// notifications flag for a user.
func (r *UserRepository) UpdateSubscriptions(ctx context.Context, id int, keys []string, notifications bool) error {
	if keys == nil {
		keys = []string{}
	}
	subscriptionsJSON, err := json.Marshal(keys)
	if err != nil {
		return err
	}

	const query = `
		UPDATE users
		SET subscribed_categories = $1,
			email_notifications = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, subscriptionsJSON, notifications, time.Now(), id)
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

// ListSubscribers returns users with notifications enabled who are
// subscribed to any of the given keys, excluding one user (the reporter).
func (r *UserRepository) ListSubscribers(ctx context.Context, keys []string, excludeUserID int) ([]types.User, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	keysJSON, err := json.Marshal(keys)
	if err != nil {
		return nil, err
	}

	// The ?| operator matches users whose subscription array contains any
	// of the candidate keys.
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email_notifications
		  AND id <> $1
		  AND subscribed_categories ?| (SELECT array_agg(value) FROM jsonb_array_elements_text($2::jsonb))
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, excludeUserID, keysJSON)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
