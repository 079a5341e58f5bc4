package user

import (
	"context"
	"time"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/Lemon-stack/budwrite-sub000/internal/models"
	"github.com/uptrace/bun"
)

type Repository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	GetOrCreate(ctx context.Context, userID, email, displayName string) (*models.User, error)
	UpdateStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error
	SetOnboarded(ctx context.Context, userID string) error
	GetCredits(ctx context.Context, userID string) (int64, error)
	DebitCredits(ctx context.Context, userID string, amount int64) error
	AddCredits(ctx context.Context, stripeCustomerID string, amount int64) error
}

// SignupCredits is granted once, when a user record is first created.
const SignupCredits = 5

type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	userDB := new(models.UserDB)
	err := r.db.NewSelect().
		Model(userDB).
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return userDB.ToUser(), nil
}

func (r *UserRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.User, error) {
	userDB := new(models.UserDB)
	err := r.db.NewSelect().
		Model(userDB).
		Where("stripe_customer_id = ?", stripeCustomerID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return userDB.ToUser(), nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	userDB := models.UserFromDomain(user)
	userDB.CreatedAt = time.Now()
	userDB.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(userDB).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *UserRepository) GetOrCreate(ctx context.Context, userID, email, displayName string) (*models.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}

	newUser := &models.User{
		ID:          userID,
		Email:       email,
		DisplayName: displayName,
		Credits:     SignupCredits,
	}

	if err := r.Create(ctx, newUser); err != nil {
		return nil, err
	}

	// The upsert is a no-op when a concurrent request created the row
	// first; re-read so both callers see the same record.
	return r.GetByID(ctx, userID)
}

func (r *UserRepository) UpdateStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("stripe_customer_id = ?", stripeCustomerID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

func (r *UserRepository) SetOnboarded(ctx context.Context, userID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("is_onboarded = TRUE").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

func (r *UserRepository) GetCredits(ctx context.Context, userID string) (int64, error) {
	userDB := new(models.UserDB)
	err := r.db.NewSelect().
		Model(userDB).
		Column("credits").
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return 0, err
	}
	return userDB.Credits, nil
}

// DebitCredits performs a guarded atomic decrement. A rejected
// decrement means the balance was already below the amount, which is
// surfaced as insufficient credits discovered at debit time.
func (r *UserRepository) DebitCredits(ctx context.Context, userID string, amount int64) error {
	res, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("credits = credits - ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Where("credits >= ?", amount).
		Exec(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "failed to debit credits", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "failed to read debit result", err)
	}
	if rows == 0 {
		return apperr.Newf(apperr.KindInsufficientCredits, "debit of %d credits rejected", amount)
	}
	return nil
}

func (r *UserRepository) AddCredits(ctx context.Context, stripeCustomerID string, amount int64) error {
	_, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("credits = credits + ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("stripe_customer_id = ?", stripeCustomerID).
		Exec(ctx)
	return err
}
