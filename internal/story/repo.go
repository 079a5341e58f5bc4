package story

import (
	"context"
	"time"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/Lemon-stack/budwrite-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	Insert(ctx context.Context, userID, title, content, imageURL string) (string, error)
	GetByID(ctx context.Context, storyID string) (*models.Story, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Story, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

type StoryRepository struct {
	db *bun.DB
}

func NewStoryRepository(db *bun.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// Insert writes a completed story and returns its identifier. A write
// that reports success without an identifier is still a persistence
// failure.
func (r *StoryRepository) Insert(ctx context.Context, userID, title, content, imageURL string) (string, error) {
	if userID == "" {
		return "", apperr.New(apperr.KindAuth, "no authenticated user")
	}

	storyDB := &models.StoryDB{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		Image:     imageURL,
		Status:    models.StoryStatusCompleted,
		CreatedAt: time.Now(),
	}

	if _, err := r.db.NewInsert().Model(storyDB).Exec(ctx); err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, "failed to insert story", err)
	}
	if storyDB.ID == "" {
		return "", apperr.New(apperr.KindPersistence, "story insert returned no identifier")
	}

	return storyDB.ID, nil
}

func (r *StoryRepository) GetByID(ctx context.Context, storyID string) (*models.Story, error) {
	storyDB := new(models.StoryDB)
	err := r.db.NewSelect().
		Model(storyDB).
		Where("id = ?", storyID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return storyDB.ToStory(), nil
}

func (r *StoryRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Story, error) {
	var storiesDB []*models.StoryDB
	q := r.db.NewSelect().
		Model(&storiesDB).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	stories := make([]*models.Story, 0, len(storiesDB))
	for _, s := range storiesDB {
		stories = append(stories, s.ToStory())
	}
	return stories, nil
}

func (r *StoryRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.StoryDB)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}
