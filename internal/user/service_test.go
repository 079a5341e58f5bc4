package user

import (
	"context"
	"errors"
	"testing"

	"github.com/Lemon-stack/budwrite-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	Repository
	users            map[string]*models.User
	lastDisplayName  string
	stripeUpdates    map[string]string
	getOrCreateCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:         make(map[string]*models.User),
		stripeUpdates: make(map[string]string),
	}
}

func (f *fakeRepo) GetOrCreate(ctx context.Context, userID, email, displayName string) (*models.User, error) {
	f.getOrCreateCalls++
	f.lastDisplayName = displayName
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	u := &models.User{ID: userID, Email: email, DisplayName: displayName, Credits: SignupCredits}
	f.users[userID] = u
	return u, nil
}

func (f *fakeRepo) UpdateStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error {
	f.stripeUpdates[userID] = stripeCustomerID
	return nil
}

type fakeCustomerCreator struct {
	calls int
	id    string
	err   error
}

func (f *fakeCustomerCreator) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	f.calls++
	return f.id, f.err
}

func TestGetOrCreateNewUser(t *testing.T) {
	repo := newFakeRepo()
	bc := &fakeCustomerCreator{id: "cus_123"}
	svc := NewUserService(repo, bc)

	u, err := svc.GetOrCreate(context.Background(), "user-1", "ada.lovelace@example.com")
	require.NoError(t, err)

	assert.Equal(t, "ada.lovelace", repo.lastDisplayName)
	assert.Equal(t, int64(SignupCredits), u.Credits)
	require.NotNil(t, u.StripeCustomerID)
	assert.Equal(t, "cus_123", *u.StripeCustomerID)
	assert.Equal(t, "cus_123", repo.stripeUpdates["user-1"])
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	bc := &fakeCustomerCreator{id: "cus_123"}
	svc := NewUserService(repo, bc)

	first, err := svc.GetOrCreate(context.Background(), "user-1", "ada@example.com")
	require.NoError(t, err)
	second, err := svc.GetOrCreate(context.Background(), "user-1", "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, repo.getOrCreateCalls)
	assert.Equal(t, 1, bc.calls, "existing customer is not recreated")
}

func TestGetOrCreateCustomerFailure(t *testing.T) {
	repo := newFakeRepo()
	bc := &fakeCustomerCreator{err: errors.New("stripe down")}
	svc := NewUserService(repo, bc)

	_, err := svc.GetOrCreate(context.Background(), "user-1", "ada@example.com")
	assert.Error(t, err)
}

func TestDisplayNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "ada@example.com", want: "ada"},
		{email: "no-at-sign", want: "no-at-sign"},
		{email: "@example.com", want: "@example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayNameFromEmail(tt.email))
	}
}
