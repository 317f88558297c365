package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/campusfound/apiserver/internal/store"
	"github.com/campusfound/apiserver/types"
)

// ErrInvalidState is returned when approving or rejecting a request that
// has already been decided.
var ErrInvalidState = errors.New("request already processed")

// ErrAlreadyClaimed is returned when a claim targets an item that already
// has a claimant.
var ErrAlreadyClaimed = errors.New("item already claimed")

// RequestItemRepository defines item persistence operations used by the
// workflow.
type RequestItemRepository interface {
	Get(ctx context.Context, id int) (types.Item, error)
	Create(ctx context.Context, item types.Item) (types.Item, error)
	SetStatus(ctx context.Context, id int, status string) error
	MarkClaimed(ctx context.Context, id, userID int, at time.Time) error
	ClearClaim(ctx context.Context, id int) error
}

// RequestRepository defines persistence operations for workflow requests.
type RequestRepository interface {
	Get(ctx context.Context, id int) (types.Request, error)
	Create(ctx context.Context, request types.Request) (types.Request, error)
	ListPending(ctx context.Context) ([]types.Request, error)
	Decide(ctx context.Context, id int, status string, adminID int, at time.Time, reason string) error
	RejectCompetingClaims(ctx context.Context, itemID, excludeRequestID, adminID int, at time.Time) (int, error)
}

// Notifier receives item-approved events. Dispatch is best effort; an
// error from the notifier never rolls back the approval.
type Notifier interface {
	ItemApproved(ctx context.Context, item types.Item) error
}

// RequestService mediates every state change to items that requires
// administrator sign-off.
type RequestService struct {
	requests RequestRepository
	items    RequestItemRepository
	notifier Notifier
}

func NewRequestService(requests RequestRepository, items RequestItemRepository, notifier Notifier) *RequestService {
	return &RequestService{
		requests: requests,
		items:    items,
		notifier: notifier,
	}
}

// SubmitReport persists a new item as a pending report and opens the
// matching report request for admin review.
func (s *RequestService) SubmitReport(ctx context.Context, item types.Item) (types.Item, types.Request, error) {
	item.Status = types.ItemStatusPending
	item.ClaimedBy = nil
	item.ClaimedAt = nil

	created, err := s.items.Create(ctx, item)
	if err != nil {
		return types.Item{}, types.Request{}, err
	}

	request, err := s.requests.Create(ctx, types.Request{
		Type:   types.RequestTypeReport,
		Status: types.RequestStatusPending,
		ItemID: created.ID,
		UserID: created.ReportedBy,
	})
	if err != nil {
		return types.Item{}, types.Request{}, err
	}
	return created, request, nil
}

// SubmitClaim opens a claim request for an item. The item itself is not
// touched: it stays claimable, and several pending claims may coexist
// until an admin decides one.
func (s *RequestService) SubmitClaim(ctx context.Context, itemID, userID int) (types.Request, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return types.Request{}, err
	}
	if item.ClaimedBy != nil {
		return types.Request{}, ErrAlreadyClaimed
	}

	return s.requests.Create(ctx, types.Request{
		Type:   types.RequestTypeClaim,
		Status: types.RequestStatusPending,
		ItemID: itemID,
		UserID: userID,
	})
}

// ListPending returns the admin review queue.
func (s *RequestService) ListPending(ctx context.Context) ([]types.Request, error) {
	return s.requests.ListPending(ctx)
}

// Approve decides a pending request. For reports the item becomes visible
// and subscribers are notified; for claims the item is assigned to the
// requester and every competing pending claim is auto-rejected.
func (s *RequestService) Approve(ctx context.Context, requestID, adminID int) (types.Request, error) {
	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return types.Request{}, err
	}
	if request.Status != types.RequestStatusPending {
		return types.Request{}, ErrInvalidState
	}

	now := time.Now()

	if request.Type == types.RequestTypeClaim {
		// Assign the item first: the claimed_by IS NULL guard loses the
		// race against a concurrent approval of a competing claim, in
		// which case this request stays pending.
		if err := s.items.MarkClaimed(ctx, request.ItemID, request.UserID, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return types.Request{}, ErrAlreadyClaimed
			}
			return types.Request{}, err
		}
	}

	if err := s.requests.Decide(ctx, requestID, types.RequestStatusApproved, adminID, now, ""); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Request{}, ErrInvalidState
		}
		return types.Request{}, err
	}
	request.Status = types.RequestStatusApproved
	request.AdminID = &adminID
	request.ActionDate = &now

	switch request.Type {
	case types.RequestTypeReport:
		if err := s.items.SetStatus(ctx, request.ItemID, types.ItemStatusApproved); err != nil {
			return types.Request{}, err
		}
		if s.notifier != nil {
			item, err := s.items.Get(ctx, request.ItemID)
			if err != nil {
				log.Printf("load item %d for notification: %v", request.ItemID, err)
				break
			}
			if err := s.notifier.ItemApproved(ctx, item); err != nil {
				log.Printf("notify subscribers for item %d: %v", request.ItemID, err)
			}
		}
	case types.RequestTypeClaim:
		rejected, err := s.requests.RejectCompetingClaims(ctx, request.ItemID, requestID, adminID, now)
		if err != nil {
			return types.Request{}, err
		}
		if rejected > 0 {
			log.Printf("auto-rejected %d competing claim requests for item %d", rejected, request.ItemID)
		}
	}

	return request, nil
}

// Reject decides a pending request negatively. Rejected reports hide the
// item permanently; rejected claims leave it approved and claimable.
func (s *RequestService) Reject(ctx context.Context, requestID, adminID int, reason string) (types.Request, error) {
	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return types.Request{}, err
	}
	if request.Status != types.RequestStatusPending {
		return types.Request{}, ErrInvalidState
	}

	if reason == "" {
		reason = "Rejected by admin"
	}

	now := time.Now()
	if err := s.requests.Decide(ctx, requestID, types.RequestStatusRejected, adminID, now, reason); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Request{}, ErrInvalidState
		}
		return types.Request{}, err
	}
	request.Status = types.RequestStatusRejected
	request.AdminID = &adminID
	request.ActionDate = &now
	request.Reason = reason

	switch request.Type {
	case types.RequestTypeReport:
		if err := s.items.SetStatus(ctx, request.ItemID, types.ItemStatusRejected); err != nil {
			return types.Request{}, err
		}
	case types.RequestTypeClaim:
		if err := s.items.ClearClaim(ctx, request.ItemID); err != nil {
			return types.Request{}, err
		}
	}

	return request, nil
}
