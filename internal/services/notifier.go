package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/campusfound/apiserver/internal/email"
	"github.com/campusfound/apiserver/internal/mq"
	"github.com/campusfound/apiserver/types"
)

// SubscriberLister resolves the recipients of an item-approved alert.
type SubscriberLister interface {
	ListSubscribers(ctx context.Context, keys []string, excludeUserID int) ([]types.User, error)
}

// NotifierService dispatches found-item alerts to category subscribers.
// When a message broker is configured, ItemApproved publishes the event
// and a Run loop consumes it; otherwise dispatch happens in-process.
// Either way delivery is fire-and-forget for the approval that caused it.
type NotifierService struct {
	users     SubscriberLister
	mailer    *email.Service
	broker    *mq.MQ
	clientURL string
}

func NewNotifierService(users SubscriberLister, mailer *email.Service, broker *mq.MQ, clientURL string) *NotifierService {
	return &NotifierService{
		users:     users,
		mailer:    mailer,
		broker:    broker,
		clientURL: clientURL,
	}
}

// ItemApproved is called by the request workflow after a report approval.
func (s *NotifierService) ItemApproved(ctx context.Context, item types.Item) error {
	if s.broker == nil {
		go s.Dispatch(context.WithoutCancel(ctx), item)
		return nil
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = s.broker.Publish(ctx, mq.ChannelItemApproved, data, map[string]string{
		"category": item.Category,
	})
	return err
}

// Run consumes item-approved events from the broker until ctx is done.
// It is a no-op when no broker is configured.
func (s *NotifierService) Run(ctx context.Context) error {
	if s.broker == nil {
		return nil
	}
	return s.broker.Subscribe(ctx, mq.ChannelItemApproved, func(ctx context.Context, msg mq.Message) error {
		var item types.Item
		if err := json.Unmarshal(msg.Data, &item); err != nil {
			log.Printf("drop malformed item-approved event %s: %v", msg.ID, err)
			return nil
		}
		s.Dispatch(ctx, item)
		return nil
	})
}

// Dispatch emails every subscriber of the item's category, excluding the
// reporter, in batches with an inter-batch delay to respect provider rate
// limits. Failures are logged per recipient and never propagate.
func (s *NotifierService) Dispatch(ctx context.Context, item types.Item) {
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return
	}

	// A bare-category subscription matches every item in the category; a
	// category:subcategory subscription only matches the exact pair.
	keys := []string{item.Category}
	if item.Subcategory != "" {
		keys = append(keys, item.Category+":"+item.Subcategory)
	}

	subscribers, err := s.users.ListSubscribers(ctx, keys, item.ReportedBy)
	if err != nil {
		log.Printf("list subscribers for item %d: %v", item.ID, err)
		return
	}
	if len(subscribers) == 0 {
		log.Printf("no subscribers for category %s", item.Category)
		return
	}

	dashboardURL := s.clientURL + "/dashboard"
	batchSize := s.mailer.BatchSize()
	sent, failed := 0, 0
	for start := 0; start < len(subscribers); start += batchSize {
		end := start + batchSize
		if end > len(subscribers) {
			end = len(subscribers)
		}
		for _, subscriber := range subscribers[start:end] {
			if err := s.mailer.SendItemAlert(subscriber.Email, subscriber.Name, item, dashboardURL); err != nil {
				log.Printf("send item alert to %s: %v", subscriber.Email, err)
				failed++
				continue
			}
			sent++
		}

		if end < len(subscribers) {
			select {
			case <-ctx.Done():
				log.Printf("item alert dispatch interrupted: %d sent, %d failed", sent, failed)
				return
			case <-time.After(s.mailer.BatchDelay()):
			}
		}
	}

	log.Printf("item alert summary for item %d: %d sent, %d failed", item.ID, sent, failed)
}
