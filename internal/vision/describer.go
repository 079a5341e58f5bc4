// Package vision turns a stored image reference into a textual
// description through a vision-capable Gemini model.
package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/Lemon-stack/budwrite-sub000/internal/logger"
	"google.golang.org/genai"
)

const describeInstruction = `Describe this image in rich, creative detail. ` +
	`Emphasize the key elements and subjects, the atmosphere and mood, and any ` +
	`potential narrative hooks a storyteller could build a short story around.`

// imageModel is the single upstream call the describer makes, kept
// narrow so the retry loop can be exercised without a live model.
type imageModel interface {
	DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error)
}

type geminiImageModel struct {
	client *genai.Client
	model  string
}

func (g *geminiImageModel) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(describeInstruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return result.Text(), nil
}

type Describer struct {
	model      imageModel
	httpClient *http.Client
	attempts   int
	delay      time.Duration
}

type DescriberOption func(*Describer) error

func NewGeminiDescriber(client *genai.Client, model string, opts ...DescriberOption) (*Describer, error) {
	d := &Describer{
		model:      &geminiImageModel{client: client, model: model},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   3,
		delay:      time.Second,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return d, nil
}

func WithRetry(attempts int, delay time.Duration) DescriberOption {
	return func(d *Describer) error {
		if attempts < 1 {
			return fmt.Errorf("retry attempts must be at least 1, got %d", attempts)
		}
		d.attempts = attempts
		d.delay = delay
		return nil
	}
}

func WithHTTPClient(client *http.Client) DescriberOption {
	return func(d *Describer) error {
		d.httpClient = client
		return nil
	}
}

func withImageModel(m imageModel) DescriberOption {
	return func(d *Describer) error {
		d.model = m
		return nil
	}
}

// Describe fetches the stored image and asks the model for a
// description. Transient upstream failures are retried a fixed number
// of times with a fixed delay; an empty response body is a failure,
// never an empty success.
func (d *Describer) Describe(ctx context.Context, imageURL string) (string, error) {
	data, mimeType, err := d.fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(d.delay):
			case <-ctx.Done():
				return "", apperr.Wrap(apperr.KindUpstream, "describe cancelled", ctx.Err())
			}
		}

		text, err := d.model.DescribeImage(ctx, data, mimeType)
		if err != nil {
			lastErr = err
			logger.Log.Warn("vision describe attempt failed", "attempt", attempt, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			lastErr = fmt.Errorf("model returned an empty description")
			logger.Log.Warn("vision describe returned empty response", "attempt", attempt)
			continue
		}
		return text, nil
	}

	return "", apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("vision model failed after %d attempts", d.attempts), lastErr)
}

func (d *Describer) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindStorage, "failed to build image request", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindStorage, "failed to fetch stored image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.Newf(apperr.KindStorage, "stored image returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindStorage, "failed to read stored image", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
