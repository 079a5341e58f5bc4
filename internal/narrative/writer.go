// Package narrative turns an image description into a short story
// through a Gemini text model under a fixed persona contract.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"google.golang.org/genai"
)

const systemInstruction = `You are a skilled fiction writer. Write a short story based on the
image description and title the user provides.

Rules:
- If the title implies a recognizable character or franchise, adopt that
  voice and world faithfully; otherwise write original fiction.
- Use a three-act structure: setup, conflict, resolution.
- Ground the story in sensory detail drawn from the image description.
- Include natural dialogue with proper dialogue tags.
- Work in exactly one twist.
- Keep tense and point of view consistent throughout.
- No meta-commentary, headings, or notes about the writing itself.
- Keep the tone family-friendly, even when adopting a character voice.`

// textModel is the single upstream call the writer makes.
type textModel interface {
	GenerateStory(ctx context.Context, prompt string, maxTokens int32) (string, error)
}

type geminiTextModel struct {
	client *genai.Client
	model  string
}

func (g *geminiTextModel) GenerateStory(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		MaxOutputTokens:   maxTokens,
		Temperature:       genai.Ptr[float32](0.9),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return result.Text(), nil
}

type Writer struct {
	model textModel
}

type WriterOption func(*Writer) error

func NewGeminiWriter(client *genai.Client, model string, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		model: &geminiTextModel{client: client, model: model},
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return w, nil
}

func withTextModel(m textModel) WriterOption {
	return func(w *Writer) error {
		w.model = m
		return nil
	}
}

// Generate produces a normalized story from a description and title.
// lengthBudget is the same value that priced the generation; it bounds
// the model output.
func (w *Writer) Generate(ctx context.Context, description, title string, lengthBudget int) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", apperr.New(apperr.KindValidation, "title is required")
	}
	if strings.TrimSpace(description) == "" {
		return "", apperr.New(apperr.KindValidation, "description is required")
	}

	prompt := fmt.Sprintf("Title: %s\n\nImage description:\n%s", title, description)

	raw, err := w.model.GenerateStory(ctx, prompt, int32(lengthBudget))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, "narrative model failed", err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", apperr.New(apperr.KindUpstream, "narrative model returned an empty story")
	}

	return Normalize(raw), nil
}

// Normalize trims every line, drops blank ones and rejoins the rest
// with double newlines, guaranteeing paragraph-separated output.
// Applying it to already-normalized text is a no-op.
func Normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			paragraphs = append(paragraphs, line)
		}
	}

	return strings.Join(paragraphs, "\n\n")
}
