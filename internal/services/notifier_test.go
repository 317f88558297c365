package services

import (
	"context"
	"testing"

	"github.com/campusfound/apiserver/config"
	"github.com/campusfound/apiserver/internal/email"
	"github.com/campusfound/apiserver/types"
)

type recordingSubscriberLister struct {
	calls [][]string
}

func (r *recordingSubscriberLister) ListSubscribers(_ context.Context, keys []string, _ int) ([]types.User, error) {
	r.calls = append(r.calls, keys)
	return nil, nil
}

func TestDispatchSkipsWhenMailerUnconfigured(t *testing.T) {
	users := &recordingSubscriberLister{}
	notifier := NewNotifierService(users, email.NewService(config.EmailConfig{}), nil, "")

	notifier.Dispatch(context.Background(), types.Item{ID: 1, Category: "books"})

	if len(users.calls) != 0 {
		t.Errorf("expected no subscriber lookups, got %d", len(users.calls))
	}
}

func TestDispatchKeysIncludeSubcategory(t *testing.T) {
	users := &recordingSubscriberLister{}
	mailer := email.NewService(config.EmailConfig{Host: "smtp.example.edu", Port: 587, From: "noreply@example.edu"})
	notifier := NewNotifierService(users, mailer, nil, "")

	notifier.Dispatch(context.Background(), types.Item{ID: 1, Category: "electronics", Subcategory: "laptop"})

	if len(users.calls) != 1 {
		t.Fatalf("expected one subscriber lookup, got %d", len(users.calls))
	}
	keys := users.calls[0]
	if len(keys) != 2 || keys[0] != "electronics" || keys[1] != "electronics:laptop" {
		t.Errorf("lookup keys = %v", keys)
	}
}
