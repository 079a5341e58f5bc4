package ingest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/Lemon-stack/budwrite-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	putCalls    int
	lastKey     string
	lastData    []byte
	lastMime    string
	url         string
	err         error
	urlOverride func(key string) string
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.putCalls++
	f.lastKey = key
	f.lastData = data
	f.lastMime = contentType
	if f.err != nil {
		return "", f.err
	}
	if f.urlOverride != nil {
		return f.urlOverride(key), nil
	}
	return f.url, nil
}

func validImage() models.UploadedImage {
	return models.UploadedImage{
		Data:     []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
		MimeType: "image/jpeg",
		Filename: "mountain trip.jpg",
	}
}

func TestValidateRejectsSVG(t *testing.T) {
	img := validImage()
	img.MimeType = "image/svg+xml"

	err := Validate(img)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestValidateRejectsOversizedImage(t *testing.T) {
	img := validImage()
	img.Data = bytes.Repeat([]byte{0xAB}, MaxImageBytes+1)

	err := Validate(img)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestValidateRejectsNonImage(t *testing.T) {
	img := validImage()
	img.MimeType = "application/pdf"

	err := Validate(img)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestValidateSniffsMissingMimeType(t *testing.T) {
	img := models.UploadedImage{
		// PNG magic bytes, enough for http.DetectContentType.
		Data:     append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0}, 16)...),
		Filename: "photo",
	}

	assert.NoError(t, Validate(img))
}

func TestStoreValidatesBeforeUpload(t *testing.T) {
	store := &fakeStore{}
	ing, err := NewIngester(store)
	require.NoError(t, err)

	img := validImage()
	img.MimeType = "image/svg+xml"

	_, err = ing.Store(context.Background(), "user-1", img)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, store.putCalls, "no storage call may happen for invalid input")
}

func TestStoreReturnsVerifiedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &fakeStore{url: srv.URL + "/user-1/image.jpg"}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ing, err := NewIngester(store, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	url, err := ing.Store(context.Background(), "user-1", validImage())
	require.NoError(t, err)
	assert.Equal(t, store.url, url)

	assert.Equal(t, 1, store.putCalls)
	assert.True(t, strings.HasPrefix(store.lastKey, "user-1/"), "key must be scoped to the user")
	assert.Contains(t, store.lastKey, "mountain_trip.jpg")
	assert.Equal(t, "image/jpeg", store.lastMime)
}

func TestStoreTreatsUnfetchableURLAsStorageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := &fakeStore{url: srv.URL + "/missing.jpg"}
	ing, err := NewIngester(store)
	require.NoError(t, err)

	_, err = ing.Store(context.Background(), "user-1", validImage())
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}

func TestStoreWrapsUploadFailure(t *testing.T) {
	store := &fakeStore{err: assert.AnError}
	ing, err := NewIngester(store)
	require.NoError(t, err)

	_, err = ing.Store(context.Background(), "user-1", validImage())
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.ErrorIs(t, err, assert.AnError)
}
