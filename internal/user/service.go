package user

import (
	"context"
	"strings"

	"github.com/Lemon-stack/budwrite-sub000/internal/billing"
	"github.com/Lemon-stack/budwrite-sub000/internal/models"
)

type Service interface {
	GetOrCreate(ctx context.Context, userID, email string) (*models.User, error)
}

type UserService struct {
	repo    Repository
	billing billing.CustomerCreator
}

func NewUserService(repo Repository, billing billing.CustomerCreator) *UserService {
	return &UserService{
		repo:    repo,
		billing: billing,
	}
}

// GetOrCreate upserts the user on first authenticated request, keyed by
// the external identity id, and makes sure a Stripe customer exists for
// later credit purchases.
func (s *UserService) GetOrCreate(ctx context.Context, userID, email string) (*models.User, error) {
	user, err := s.repo.GetOrCreate(ctx, userID, email, DisplayNameFromEmail(email))
	if err != nil {
		return nil, err
	}

	if user.StripeCustomerID == nil && s.billing != nil {
		customerID, err := s.billing.CreateCustomer(ctx, userID, email)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateStripeCustomerID(ctx, userID, customerID); err != nil {
			return nil, err
		}
		user.StripeCustomerID = &customerID
	}

	return user, nil
}

// DisplayNameFromEmail derives a display name from the local part of an
// email address.
func DisplayNameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	return local
}
