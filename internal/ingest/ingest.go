// Package ingest validates a user-supplied image and forwards it to
// object storage, returning a stable URL. Validation always happens
// before any network call.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/Lemon-stack/budwrite-sub000/internal/models"
	"github.com/Lemon-stack/budwrite-sub000/internal/storage"
)

const (
	// MaxImageBytes caps uploads at 5 MiB.
	MaxImageBytes = 5 << 20

	imageMimePrefix = "image/"
	svgMimeType     = "image/svg+xml"
)

type Ingester struct {
	store      storage.ObjectStore
	httpClient *http.Client
	now        func() time.Time
}

type IngesterOption func(*Ingester) error

func NewIngester(store storage.ObjectStore, opts ...IngesterOption) (*Ingester, error) {
	ing := &Ingester{
		store: store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		if err := opt(ing); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return ing, nil
}

func WithHTTPClient(client *http.Client) IngesterOption {
	return func(ing *Ingester) error {
		ing.httpClient = client
		return nil
	}
}

func WithClock(now func() time.Time) IngesterOption {
	return func(ing *Ingester) error {
		ing.now = now
		return nil
	}
}

// Store validates the image, writes it to object storage under a key
// derived from (userID, timestamp, filename) and returns the public
// URL. The URL is verified to be fetchable before it is handed out: a
// write that reports success but leaves the object unreadable is still
// a storage failure.
func (ing *Ingester) Store(ctx context.Context, userID string, img models.UploadedImage) (string, error) {
	if err := Validate(img); err != nil {
		return "", err
	}

	key := ing.objectKey(userID, img.Filename)

	url, err := ing.store.Put(ctx, key, img.Data, img.MimeType)
	if err != nil {
		return "", apperr.Wrap(apperr.KindStorage, "failed to upload image", err)
	}

	if err := ing.verifyFetchable(ctx, url); err != nil {
		return "", err
	}

	return url, nil
}

// Validate rejects oversized and non-image payloads. SVG is refused
// outright: vector markup is useless to the vision step and a script
// injection vector when served back to browsers.
func Validate(img models.UploadedImage) error {
	if len(img.Data) == 0 {
		return apperr.New(apperr.KindValidation, "image is empty")
	}
	if len(img.Data) > MaxImageBytes {
		return apperr.Newf(apperr.KindValidation, "image is %d bytes, the limit is %d", len(img.Data), MaxImageBytes)
	}

	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(mimeType, imageMimePrefix) {
		return apperr.Newf(apperr.KindValidation, "unsupported content type %q, expected an image", mimeType)
	}
	if strings.HasPrefix(mimeType, svgMimeType) {
		return apperr.New(apperr.KindValidation, "SVG images are not supported")
	}

	return nil
}

func (ing *Ingester) objectKey(userID, filename string) string {
	base := filepath.Base(filename)
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s/%d-%s", userID, ing.now().UnixNano(), base)
}

func (ing *Ingester) verifyFetchable(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, "failed to build verification request", err)
	}

	resp, err := ing.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, "stored image is not fetchable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.Newf(apperr.KindStorage, "stored image returned status %d", resp.StatusCode)
	}

	return nil
}
