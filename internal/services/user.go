package services

import (
	"context"

	"github.com/campusfound/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// UserItemLister loads the derived per-user item lists for profiles.
type UserItemLister interface {
	ListByReporter(ctx context.Context, userID int) ([]types.Item, error)
	ListClaimedBy(ctx context.Context, userID int) ([]types.Item, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo  UserRepository
	items UserItemLister
}

func NewUserService(repo UserRepository, items UserItemLister) *UserService {
	return &UserService{repo: repo, items: items}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *UserService) Update(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Update(ctx, user)
}

// Profile returns the user with the derived reported and claimed item
// lists attached.
func (s *UserService) Profile(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if s.items != nil {
		if reported, err := s.items.ListByReporter(ctx, id); err == nil {
			user.ReportedItems = reported
		}
		if claimed, err := s.items.ListClaimedBy(ctx, id); err == nil {
			user.ClaimedItems = claimed
		}
	}
	return user, nil
}
