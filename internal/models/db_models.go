package models

import (
	"time"

	"github.com/uptrace/bun"
)

type UserDB struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               string    `bun:"id,pk" json:"id"`
	Email            string    `bun:"email,notnull" json:"email"`
	DisplayName      string    `bun:"display_name,notnull" json:"display_name"`
	Credits          int64     `bun:"credits,notnull,default:0" json:"credits"`
	IsOnboarded      bool      `bun:"is_onboarded,notnull,default:false" json:"is_onboarded"`
	StripeCustomerID *string   `bun:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (u *UserDB) ToUser() *User {
	return &User{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		Credits:          u.Credits,
		IsOnboarded:      u.IsOnboarded,
		StripeCustomerID: u.StripeCustomerID,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func UserFromDomain(user *User) *UserDB {
	return &UserDB{
		ID:               user.ID,
		Email:            user.Email,
		DisplayName:      user.DisplayName,
		Credits:          user.Credits,
		IsOnboarded:      user.IsOnboarded,
		StripeCustomerID: user.StripeCustomerID,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}

type StoryDB struct {
	bun.BaseModel `bun:"table:stories,alias:s"`

	ID        string      `bun:"id,pk" json:"id"`
	UserID    string      `bun:"user_id,notnull" json:"user_id"`
	Title     string      `bun:"title,notnull" json:"title"`
	Content   string      `bun:"content,notnull" json:"content"`
	Image     string      `bun:"image,notnull" json:"image"`
	Status    StoryStatus `bun:"status,notnull,default:'generating'" json:"status"`
	CreatedAt time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (s *StoryDB) ToStory() *Story {
	return &Story{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Content:   s.Content,
		Image:     s.Image,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
	}
}

func StoryFromDomain(story *Story) *StoryDB {
	return &StoryDB{
		ID:        story.ID,
		UserID:    story.UserID,
		Title:     story.Title,
		Content:   story.Content,
		Image:     story.Image,
		Status:    story.Status,
		CreatedAt: story.CreatedAt,
	}
}
