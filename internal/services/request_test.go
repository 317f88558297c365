package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusfound/apiserver/internal/store"
	"github.com/campusfound/apiserver/types"
)

type fakeItemRepo struct {
	items  map[int]*types.Item
	nextID int

	claimConflict bool
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: map[int]*types.Item{}, nextID: 1}
}

func (f *fakeItemRepo) add(item types.Item) types.Item {
	item.ID = f.nextID
	f.nextID++
	f.items[item.ID] = &item
	return item
}

func (f *fakeItemRepo) Get(_ context.Context, id int) (types.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return types.Item{}, store.ErrNotFound
	}
	return *item, nil
}

func (f *fakeItemRepo) Create(_ context.Context, item types.Item) (types.Item, error) {
	return f.add(item), nil
}

func (f *fakeItemRepo) SetStatus(_ context.Context, id int, status string) error {
	item, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	item.Status = status
	return nil
}

func (f *fakeItemRepo) MarkClaimed(_ context.Context, id, userID int, at time.Time) error {
	item, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	if f.claimConflict || item.ClaimedBy != nil {
		return store.ErrConflict
	}
	item.Status = types.ItemStatusClaimed
	item.ClaimedBy = &userID
	item.ClaimedAt = &at
	return nil
}

func (f *fakeItemRepo) ClearClaim(_ context.Context, id int) error {
	item, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	item.Status = types.ItemStatusApproved
	item.ClaimedBy = nil
	item.ClaimedAt = nil
	return nil
}

type fakeRequestRepo struct {
	requests map[int]*types.Request
	nextID   int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[int]*types.Request{}, nextID: 1}
}

func (f *fakeRequestRepo) add(request types.Request) types.Request {
	request.ID = f.nextID
	f.nextID++
	f.requests[request.ID] = &request
	return request
}

func (f *fakeRequestRepo) Get(_ context.Context, id int) (types.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return types.Request{}, store.ErrNotFound
	}
	return *request, nil
}

func (f *fakeRequestRepo) Create(_ context.Context, request types.Request) (types.Request, error) {
	return f.add(request), nil
}

func (f *fakeRequestRepo) ListPending(_ context.Context) ([]types.Request, error) {
	var pending []types.Request
	for _, request := range f.requests {
		if request.Status == types.RequestStatusPending {
			pending = append(pending, *request)
		}
	}
	return pending, nil
}

func (f *fakeRequestRepo) Decide(_ context.Context, id int, status string, adminID int, at time.Time, reason string) error {
	request, ok := f.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	if request.Status != types.RequestStatusPending {
		return store.ErrConflict
	}
	request.Status = status
	request.AdminID = &adminID
	request.ActionDate = &at
	request.Reason = reason
	return nil
}

func (f *fakeRequestRepo) RejectCompetingClaims(_ context.Context, itemID, excludeRequestID, adminID int, at time.Time) (int, error) {
	rejected := 0
	for _, request := range f.requests {
		if request.ID == excludeRequestID || request.ItemID != itemID {
			continue
		}
		if request.Type != types.RequestTypeClaim || request.Status != types.RequestStatusPending {
			continue
		}
		request.Status = types.RequestStatusRejected
		request.AdminID = &adminID
		request.ActionDate = &at
		request.Reason = types.ReasonAlreadyClaimed
		rejected++
	}
	return rejected, nil
}

type fakeNotifier struct {
	notified []types.Item
}

func (f *fakeNotifier) ItemApproved(_ context.Context, item types.Item) error {
	f.notified = append(f.notified, item)
	return nil
}

func TestSubmitReportOpensPendingRequest(t *testing.T) {
	items := newFakeItemRepo()
	requests := newFakeRequestRepo()
	svc := NewRequestService(requests, items, nil)

	item, request, err := svc.SubmitReport(context.Background(), types.Item{
		Title:      "Black umbrella",
		Category:   "others",
		ReportedBy: 7,
		Status:     types.ItemStatusApproved, // must be overridden
	})
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if item.Status != types.ItemStatusPending {
		t.Errorf("item status = %q, want pending", item.Status)
	}
	if request.Type != types.RequestTypeReport || request.Status != types.RequestStatusPending {
		t.Errorf("request = %+v, want pending report", request)
	}
	if request.UserID != 7 || request.ItemID != item.ID {
		t.Errorf("request references = user %d item %d", request.UserID, request.ItemID)
	}
}

func TestApproveReportNotifiesSubscribers(t *testing.T) {
	items := newFakeItemRepo()
	requests := newFakeRequestRepo()
	notifier := &fakeNotifier{}
	svc := NewRequestService(requests, items, notifier)

	item, request, err := svc.SubmitReport(context.Background(), types.Item{Title: "Wallet", Category: "wallet", ReportedBy: 1})
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}

	decided, err := svc.Approve(context.Background(), request.ID, 99)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if decided.Status != types.RequestStatusApproved {
		t.Errorf("request status = %q, want approved", decided.Status)
	}
	if decided.AdminID == nil || *decided.AdminID != 99 {
		t.Error("expected admin id recorded on the decision")
	}

	stored, _ := items.Get(context.Background(), item.ID)
	if stored.Status != types.ItemStatusApproved {
		t.Errorf("item status = %q, want approved", stored.Status)
	}
	if len(notifier.notified) != 1 || notifier.notified[0].ID != item.ID {
		t.Errorf("notified = %+v, want the approved item", notifier.notified)
	}
}

func TestApproveDecidedRequestFails(t *testing.T) {
	items := newFakeItemRepo()
	requests := newFakeRequestRepo()
	svc := NewRequestService(requests, items, nil)

	_, request, err := svc.SubmitReport(context.Background(), types.Item{Title: "Keys", Category: "keys", ReportedBy: 1})
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if _, err := svc.Approve(context.Background(), request.ID, 99); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := svc.Approve(context.Background(), request.ID, 99); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second approve error = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Reject(context.Background(), request.ID, 99, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("reject after approve error = %v, want ErrInvalidState", err)
	}
}

func TestSubmitClaimOnClaimedItemFails(t *testing.T) {
	items := newFakeItemRepo()
	requests := newFakeRequestRepo()
	svc := NewRequestService(requests, items, nil)

	owner := 5
	item := items.add(types.Item{Title: "Phone", Category: "electronics", Status: types.ItemStatusClaimed, ClaimedBy: &owner})

	if _, err := svc.SubmitClaim(context.Background(), item.ID, 2); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("claim error = %v, want ErrAlreadyClaimed", err)
	}
	if _, err := svc.SubmitClaim(context.Background(), 404, 2); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("claim on missing item error = %v, want ErrNotFound", err)
	}
}

func TestApproveClaimRejectsCompetingClaims(t *testing.T) {
	items := newFakeItemRepo()
	requests := newFakeRequestRepo()
	svc := NewRequestService(requests, items, nil)

	item := items.add(types.Item{Title: "Laptop", Category: "electronics", Status: types.ItemStatusApproved})

	first, err := svc.SubmitClaim(context.Background(), item.ID, 2)
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	second, err := svc.SubmitClaim(context.Background(), item.ID, 3)
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}

	decided, err := svc.Approve(context.Background(), first.ID, 99)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if decided.Status != types.RequestStatusApproved {
		t.Errorf("winning request status = %q, want approved", decided.Status)
	}

	stored, _ := items.Get(context.Background(), item.ID)
	if stored.Status != types.ItemStatusClaimed || stored.ClaimedBy == nil || *stored.ClaimedBy != 2 {
		t.Errorf("item after approval = %+v, want claimed by user 2", stored)
	}

	loser, _ := requests.Get(context.Background(), second.ID)
	if loser.Status != types.RequestStatusRejected {
		t.Errorf("competing request status = %q, want rejected", loser.Status)
	}
	if loser.Reason != types.ReasonAlreadyClaimed {
		t.Errorf("competing request reason = %q, want %q", loser.Reason, types.ReasonAlreadyClaimed)
	}
}

func TestApproveClaimConflictLeavesRequestPending(t *testing.T) {
	items := newFakeItemRepo()
	requests := newFakeRequestRepo()
	svc := NewRequestService(requests, items, nil)

	item := items.add(types.Item{Title: "Tablet", Category: "electronics", Status: types.ItemStatusApproved})
	claim, err := svc.SubmitClaim(context.Background(), item.ID, 2)
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}

	// Simulate losing the conditional update race against a concurrent
	// approval.
	items.claimConflict = true
	if _, err := svc.Approve(context.Background(), claim.ID, 99); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("approve error = %v, want ErrAlreadyClaimed", err)
	}

	stored, _ := requests.Get(context.Background(), claim.ID)
	if stored.Status != types.RequestStatusPending {
		t.Errorf("request status = %q, want still pending", stored.Status)
	}
}

func TestRejectClaimClearsAssignment(t *testing.T) {
	items := newFakeItemRepo()
	requests := newFakeRequestRepo()
	svc := NewRequestService(requests, items, nil)

	item := items.add(types.Item{Title: "Scarf", Category: "clothing", Status: types.ItemStatusApproved})
	claim, err := svc.SubmitClaim(context.Background(), item.ID, 2)
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}

	decided, err := svc.Reject(context.Background(), claim.ID, 99, "")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if decided.Reason != "Rejected by admin" {
		t.Errorf("default reason = %q", decided.Reason)
	}

	stored, _ := items.Get(context.Background(), item.ID)
	if stored.Status != types.ItemStatusApproved || stored.ClaimedBy != nil {
		t.Errorf("item after rejection = %+v, want approved and unclaimed", stored)
	}
}

func TestRejectReportHidesItem(t *testing.T) {
	items := newFakeItemRepo()
	requests := newFakeRequestRepo()
	svc := NewRequestService(requests, items, nil)

	item, request, err := svc.SubmitReport(context.Background(), types.Item{Title: "Cap", Category: "clothing", ReportedBy: 1})
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}

	if _, err := svc.Reject(context.Background(), request.ID, 99, "blurry photo"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	stored, _ := items.Get(context.Background(), item.ID)
	if stored.Status != types.ItemStatusRejected {
		t.Errorf("item status = %q, want rejected", stored.Status)
	}
}
