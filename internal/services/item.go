package services

import (
	"context"

	"github.com/campusfound/apiserver/types"
)

// ItemRepository defines persistence operations for items.
type ItemRepository interface {
	Get(ctx context.Context, id int) (types.Item, error)
	ListUnclaimed(ctx context.Context, excludeUserID int) ([]types.Item, error)
	ListByReporter(ctx context.Context, userID int) ([]types.Item, error)
	ListClaimedBy(ctx context.Context, userID int) ([]types.Item, error)
	ListAll(ctx context.Context) ([]types.Item, error)
	Delete(ctx context.Context, id int) error
}

// PendingRequestLister returns a user's own pending requests with item
// summaries populated.
type PendingRequestLister interface {
	ListPendingByUser(ctx context.Context, userID int) ([]types.Request, error)
}

// ImageRemover deletes a stored item image. Used on admin delete,
// best effort.
type ImageRemover interface {
	Delete(ctx context.Context, key string) error
}

// ItemService encapsulates item listing use-cases.
type ItemService struct {
	items    ItemRepository
	requests PendingRequestLister
	images   ImageRemover
}

func NewItemService(items ItemRepository, requests PendingRequestLister, images ImageRemover) *ItemService {
	return &ItemService{
		items:    items,
		requests: requests,
		images:   images,
	}
}

func (s *ItemService) Get(ctx context.Context, id int) (types.Item, error) {
	return s.items.Get(ctx, id)
}

// ListUnclaimed returns publicly claimable items, excluding the viewer's
// own reports.
func (s *ItemService) ListUnclaimed(ctx context.Context, userID int) ([]types.Item, error) {
	return s.items.ListUnclaimed(ctx, userID)
}

// ListMine returns every item the user reported, any status.
func (s *ItemService) ListMine(ctx context.Context, userID int) ([]types.Item, error) {
	return s.items.ListByReporter(ctx, userID)
}

// ListClaimedByMe returns items whose claim by the user was approved.
func (s *ItemService) ListClaimedByMe(ctx context.Context, userID int) ([]types.Item, error) {
	return s.items.ListClaimedBy(ctx, userID)
}

// ListMyPendingRequests returns the user's undecided requests.
func (s *ItemService) ListMyPendingRequests(ctx context.Context, userID int) ([]types.Request, error) {
	return s.requests.ListPendingByUser(ctx, userID)
}

// ListAll returns every item with reporter and claimant names.
func (s *ItemService) ListAll(ctx context.Context) ([]types.Item, error) {
	return s.items.ListAll(ctx)
}

// AdminDelete removes an item entirely. User back-references are derived
// from the item row, so deleting the row is the whole scrub; the stored
// image is removed best effort.
func (s *ItemService) AdminDelete(ctx context.Context, id int) error {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	if item.ImageKey != "" && s.images != nil {
		_ = s.images.Delete(ctx, item.ImageKey)
	}
	return nil
}
