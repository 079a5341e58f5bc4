// Package generator sequences the story-generation workflow: credit
// check, image ingestion, vision description, narrative generation,
// persistence, credit debit. A failure at any stage aborts the whole
// workflow; there is no retry from an arbitrary stage and no
// compensating cleanup of earlier side effects.
package generator

import (
	"context"
	"strings"
	"time"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/Lemon-stack/budwrite-sub000/internal/credits"
	"github.com/Lemon-stack/budwrite-sub000/internal/models"
	"github.com/rs/zerolog/log"
)

type CreditLedger interface {
	GetCredits(ctx context.Context, userID string) (int64, error)
	DebitCredits(ctx context.Context, userID string, amount int64) error
}

type ImageIngester interface {
	Store(ctx context.Context, userID string, img models.UploadedImage) (string, error)
}

type Describer interface {
	Describe(ctx context.Context, imageURL string) (string, error)
}

type StoryWriter interface {
	Generate(ctx context.Context, description, title string, lengthBudget int) (string, error)
}

type StoryStore interface {
	Insert(ctx context.Context, userID, title, content, imageURL string) (string, error)
}

type Generator struct {
	ledger   CreditLedger
	ingester ImageIngester
	vision   Describer
	writer   StoryWriter
	stories  StoryStore

	uploadTimeout time.Duration
	modelTimeout  time.Duration
}

type GeneratorConfig struct {
	Ledger   CreditLedger
	Ingester ImageIngester
	Vision   Describer
	Writer   StoryWriter
	Stories  StoryStore

	// Per-call ceilings; the vision step's retry budget counts inside
	// its window.
	UploadTimeout    time.Duration
	ModelCallTimeout time.Duration
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 30 * time.Second
	}
	modelTimeout := cfg.ModelCallTimeout
	if modelTimeout <= 0 {
		modelTimeout = 60 * time.Second
	}

	return &Generator{
		ledger:        cfg.Ledger,
		ingester:      cfg.Ingester,
		vision:        cfg.Vision,
		writer:        cfg.Writer,
		stories:       cfg.Stories,
		uploadTimeout: uploadTimeout,
		modelTimeout:  modelTimeout,
	}
}

type CreateStoryRequest struct {
	UserID       string
	Title        string
	LengthBudget int
	Image        models.UploadedImage
}

// CreateStory runs the workflow end to end and returns the identifier
// of the persisted story. onProgress may be nil. The credit debit
// happens strictly after the story is persisted: a failed generation
// never charges the user.
func (g *Generator) CreateStory(ctx context.Context, req CreateStoryRequest, onProgress ProgressFunc) (string, error) {
	if onProgress == nil {
		onProgress = func(Stage) {}
	}

	if req.UserID == "" {
		return "", apperr.New(apperr.KindAuth, "no authenticated user")
	}
	if strings.TrimSpace(req.Title) == "" {
		return "", apperr.New(apperr.KindValidation, "title is required")
	}

	cost, err := credits.RequiredCredits(req.LengthBudget)
	if err != nil {
		return "", err
	}

	// The balance pre-check reads the authoritative value and fails
	// closed: a read failure denies the request.
	balance, err := g.ledger.GetCredits(ctx, req.UserID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, "failed to read credit balance", err)
	}
	if balance < cost {
		return "", apperr.Newf(apperr.KindInsufficientCredits, "need %d credits, have %d", cost, balance)
	}

	onProgress(StageUploading)
	imageURL, err := g.withTimeout(ctx, g.uploadTimeout, func(ctx context.Context) (string, error) {
		return g.ingester.Store(ctx, req.UserID, req.Image)
	})
	if err != nil {
		return "", g.fail(req.UserID, StageUploading, err)
	}

	onProgress(StageAnalyzing)
	description, err := g.withTimeout(ctx, g.modelTimeout, func(ctx context.Context) (string, error) {
		return g.vision.Describe(ctx, imageURL)
	})
	if err != nil {
		return "", g.fail(req.UserID, StageAnalyzing, err)
	}

	onProgress(StageGenerating)
	content, err := g.withTimeout(ctx, g.modelTimeout, func(ctx context.Context) (string, error) {
		return g.writer.Generate(ctx, description, req.Title, req.LengthBudget)
	})
	if err != nil {
		return "", g.fail(req.UserID, StageGenerating, err)
	}

	onProgress(StageSaving)
	storyID, err := g.stories.Insert(ctx, req.UserID, req.Title, content, imageURL)
	if err != nil {
		return "", g.fail(req.UserID, StageSaving, err)
	}

	// Debit only now. A rejected decrement means a concurrent request
	// spent the balance between the pre-check and here.
	if err := g.ledger.DebitCredits(ctx, req.UserID, cost); err != nil {
		log.Error().
			Err(err).
			Str("userID", req.UserID).
			Str("storyID", storyID).
			Int64("credits", cost).
			Msg("Story persisted but debit failed")
		return "", err
	}

	onProgress(StageCreated)
	log.Info().
		Str("userID", req.UserID).
		Str("storyID", storyID).
		Int64("credits", cost).
		Msg("Story generated")

	return storyID, nil
}

func (g *Generator) withTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// fail logs the aborted stage and passes the stage error through
// unchanged; the orchestrator never reinterprets a stage's error kind.
// Earlier side effects (a stored image, spent model tokens) are not
// cleaned up.
func (g *Generator) fail(userID string, stage Stage, err error) error {
	log.Warn().
		Err(err).
		Str("userID", userID).
		Str("stage", string(stage)).
		Msg("Story generation aborted")
	return err
}
