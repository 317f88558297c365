package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campusfound/apiserver/internal/store"
	"github.com/campusfound/apiserver/types"
)

type fakeSubscriptionUsers struct {
	users map[int]*types.User
}

func newFakeSubscriptionUsers(users ...types.User) *fakeSubscriptionUsers {
	f := &fakeSubscriptionUsers{users: map[int]*types.User{}}
	for i := range users {
		user := users[i]
		f.users[user.ID] = &user
	}
	return f
}

func (f *fakeSubscriptionUsers) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return *user, nil
}

func (f *fakeSubscriptionUsers) UpdateSubscriptions(_ context.Context, id int, keys []string, notifications bool) error {
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.SubscribedCategories = keys
	user.EmailNotifications = notifications
	return nil
}

func TestSubscribeAddsKey(t *testing.T) {
	users := newFakeSubscriptionUsers(types.User{ID: 1, EmailNotifications: true})
	svc := NewSubscriptionService(users, nil)

	key, keys, err := svc.Subscribe(context.Background(), 1, "Electronics", "Laptop")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if key != "electronics:laptop" {
		t.Errorf("key = %q", key)
	}
	if len(keys) != 1 || keys[0] != "electronics:laptop" {
		t.Errorf("keys = %v", keys)
	}
}

func TestSubscribeDuplicateFails(t *testing.T) {
	users := newFakeSubscriptionUsers(types.User{ID: 1, SubscribedCategories: []string{"books"}})
	svc := NewSubscriptionService(users, nil)

	if _, _, err := svc.Subscribe(context.Background(), 1, "books", ""); !errors.Is(err, ErrAlreadySubscribed) {
		t.Errorf("error = %v, want ErrAlreadySubscribed", err)
	}
}

func TestSubscribeInvalidKeyFails(t *testing.T) {
	users := newFakeSubscriptionUsers(types.User{ID: 1})
	svc := NewSubscriptionService(users, nil)

	if _, _, err := svc.Subscribe(context.Background(), 1, "vehicles", ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("unknown category error = %v, want ErrInvalidKey", err)
	}
	if _, _, err := svc.Subscribe(context.Background(), 1, "electronics", "textbook"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("mismatched subcategory error = %v, want ErrInvalidKey", err)
	}
}

func TestUnsubscribeRemovesKey(t *testing.T) {
	users := newFakeSubscriptionUsers(types.User{ID: 1, SubscribedCategories: []string{"books", "keys"}})
	svc := NewSubscriptionService(users, nil)

	_, keys, err := svc.Unsubscribe(context.Background(), 1, "books", "")
	if err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if len(keys) != 1 || keys[0] != "keys" {
		t.Errorf("keys = %v", keys)
	}

	if _, _, err := svc.Unsubscribe(context.Background(), 1, "books", ""); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("second unsubscribe error = %v, want ErrNotSubscribed", err)
	}
}

func TestUnsubscribeStaleKey(t *testing.T) {
	// A key no longer in the taxonomy must still be removable.
	users := newFakeSubscriptionUsers(types.User{ID: 1, SubscribedCategories: []string{"vehicles:car"}})
	svc := NewSubscriptionService(users, nil)

	_, keys, err := svc.Unsubscribe(context.Background(), 1, "vehicles", "car")
	if err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want empty", keys)
	}
}

func TestBulkUpdateReplacesList(t *testing.T) {
	users := newFakeSubscriptionUsers(types.User{ID: 1, SubscribedCategories: []string{"books"}, EmailNotifications: true})
	svc := NewSubscriptionService(users, nil)

	off := false
	keys, notifications, err := svc.BulkUpdate(context.Background(), 1, []string{"Electronics", "wallet:cash"}, &off)
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}
	if notifications {
		t.Error("expected notifications off")
	}
	if len(keys) != 2 || keys[0] != "electronics" || keys[1] != "wallet:cash" {
		t.Errorf("keys = %v", keys)
	}

	if _, _, err := svc.BulkUpdate(context.Background(), 1, []string{"vehicles"}, nil); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("invalid key error = %v, want ErrInvalidKey", err)
	}
}

func TestBulkUpdateFlagOnly(t *testing.T) {
	users := newFakeSubscriptionUsers(types.User{ID: 1, SubscribedCategories: []string{"books"}, EmailNotifications: true})
	svc := NewSubscriptionService(users, nil)

	off := false
	keys, notifications, err := svc.BulkUpdate(context.Background(), 1, nil, &off)
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}
	if notifications {
		t.Error("expected notifications off")
	}
	if len(keys) != 1 || keys[0] != "books" {
		t.Errorf("keys = %v, want subscriptions untouched", keys)
	}
}

func TestToggleNotifications(t *testing.T) {
	users := newFakeSubscriptionUsers(types.User{ID: 1, EmailNotifications: true})
	svc := NewSubscriptionService(users, nil)

	flag, _, err := svc.ToggleNotifications(context.Background(), 1)
	if err != nil {
		t.Fatalf("ToggleNotifications: %v", err)
	}
	if flag {
		t.Error("expected flag flipped to false")
	}

	flag, _, err = svc.ToggleNotifications(context.Background(), 1)
	if err != nil {
		t.Fatalf("ToggleNotifications: %v", err)
	}
	if !flag {
		t.Error("expected flag flipped back to true")
	}
}
