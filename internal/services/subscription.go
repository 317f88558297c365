package services

import (
	"context"
	"errors"
	"strings"

	"github.com/campusfound/apiserver/types"
)

// ErrInvalidKey is returned when a subscription key is not part of the
// category taxonomy.
var ErrInvalidKey = errors.New("invalid subscription key")

// ErrAlreadySubscribed and ErrNotSubscribed signal idempotency conflicts
// on the subscription list.
var (
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrNotSubscribed     = errors.New("not subscribed")
)

// SubscriptionUserRepository defines the user persistence operations the
// subscription service needs.
type SubscriptionUserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	UpdateSubscriptions(ctx context.Context, id int, keys []string, notifications bool) error
}

// SubscriptionStatsRepository provides the read-side numbers behind the
// stats endpoint.
type SubscriptionStatsRepository interface {
	SubscriptionOverview(ctx context.Context) (types.SubscriptionOverview, error)
	CategorySubscriptions(ctx context.Context) ([]types.KeyCount, error)
}

// SubscriptionService manages per-user category subscription keys and the
// notifications flag.
type SubscriptionService struct {
	users SubscriptionUserRepository
	stats SubscriptionStatsRepository
}

func NewSubscriptionService(users SubscriptionUserRepository, stats SubscriptionStatsRepository) *SubscriptionService {
	return &SubscriptionService{users: users, stats: stats}
}

// Subscriptions returns the user's current subscription keys and flag.
func (s *SubscriptionService) Subscriptions(ctx context.Context, userID int) ([]string, bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if user.SubscribedCategories == nil {
		user.SubscribedCategories = []string{}
	}
	return user.SubscribedCategories, user.EmailNotifications, nil
}

// Subscribe adds a category (or category:subcategory) key. It fails with
// ErrAlreadySubscribed if the key is already present.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID int, category, subcategory string) (string, []string, error) {
	key, ok := types.SubscriptionKey(category, subcategory)
	if !ok {
		return "", nil, ErrInvalidKey
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	for _, existing := range user.SubscribedCategories {
		if existing == key {
			return key, user.SubscribedCategories, ErrAlreadySubscribed
		}
	}

	keys := append(user.SubscribedCategories, key)
	if err := s.users.UpdateSubscriptions(ctx, userID, keys, user.EmailNotifications); err != nil {
		return "", nil, err
	}
	return key, keys, nil
}

// Unsubscribe removes a key. It fails with ErrNotSubscribed if the key is
// absent.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID int, category, subcategory string) (string, []string, error) {
	key, ok := types.SubscriptionKey(category, subcategory)
	if !ok {
		// Keys outside the taxonomy are still removable, so stale
		// subscriptions to retired entries can be dropped.
		key = types.NormalizeCategory(category)
		if sub := strings.ToLower(strings.TrimSpace(subcategory)); sub != "" {
			key += ":" + sub
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	keys := make([]string, 0, len(user.SubscribedCategories))
	found := false
	for _, existing := range user.SubscribedCategories {
		if existing == key {
			found = true
			continue
		}
		keys = append(keys, existing)
	}
	if !found {
		return key, user.SubscribedCategories, ErrNotSubscribed
	}

	if err := s.users.UpdateSubscriptions(ctx, userID, keys, user.EmailNotifications); err != nil {
		return "", nil, err
	}
	return key, keys, nil
}

// BulkUpdate replaces the whole subscription list and/or the notifications
// flag. Every key must validate against the taxonomy.
func (s *SubscriptionService) BulkUpdate(ctx context.Context, userID int, keys []string, notifications *bool) ([]string, bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	next := user.SubscribedCategories
	if keys != nil {
		next = make([]string, 0, len(keys))
		for _, key := range keys {
			normalized := strings.ToLower(strings.TrimSpace(key))
			if !types.ValidSubscriptionKey(normalized) {
				return nil, false, ErrInvalidKey
			}
			next = append(next, normalized)
		}
	}

	flag := user.EmailNotifications
	if notifications != nil {
		flag = *notifications
	}

	if err := s.users.UpdateSubscriptions(ctx, userID, next, flag); err != nil {
		return nil, false, err
	}
	return next, flag, nil
}

// ToggleNotifications flips the notifications flag unconditionally and
// returns the new state.
func (s *SubscriptionService) ToggleNotifications(ctx context.Context, userID int) (bool, []string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, nil, err
	}

	flag := !user.EmailNotifications
	if err := s.users.UpdateSubscriptions(ctx, userID, user.SubscribedCategories, flag); err != nil {
		return false, nil, err
	}
	return flag, user.SubscribedCategories, nil
}

// Stats summarizes the subscription base.
func (s *SubscriptionService) Stats(ctx context.Context) (types.SubscriptionOverview, []types.KeyCount, error) {
	overview, err := s.stats.SubscriptionOverview(ctx)
	if err != nil {
		return types.SubscriptionOverview{}, nil, err
	}
	breakdown, err := s.stats.CategorySubscriptions(ctx)
	if err != nil {
		return types.SubscriptionOverview{}, nil, err
	}
	return overview, breakdown, nil
}
