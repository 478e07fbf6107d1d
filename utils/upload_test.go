package utils

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("icon", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["icon"][0]
}

func TestLocalStoreUploadIcon(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := store.UploadIcon(context.Background(), formFile(t, "owl.png", []byte("png")), "achievements/night-owl.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/achievements/night-owl.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "achievements", "night-owl.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestLocalStoreStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)

	url, err := store.UploadIcon(context.Background(), formFile(t, "x.png", []byte("x")), "../../escape.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", url)
	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.png"))
	assert.NoError(t, err)
}

func TestR2StoreUploadIcon(t *testing.T) {
	var (
		mu          sync.Mutex
		method      string
		path        string
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewR2Store(context.Background(), R2Options{
		AccountID: "acct", AccessKeyID: "key", AccessKeySecret: "secret",
		Bucket: "icons", CDNBaseURL: "https://cdn.example.com/", Endpoint: srv.URL,
	})
	require.NoError(t, err)

	url, err := store.UploadIcon(context.Background(), formFile(t, "crown.svg", []byte("<svg/>")), "achievements/study-legend.svg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/achievements/study-legend.svg", url)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/icons/achievements/study-legend.svg", path)
	assert.Equal(t, "application/octet-stream", contentType)
}

func TestR2StoreUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store, err := NewR2Store(context.Background(), R2Options{
		AccessKeyID: "key", AccessKeySecret: "secret", Bucket: "icons", Endpoint: srv.URL,
	})
	require.NoError(t, err)

	_, err = store.UploadIcon(context.Background(), formFile(t, "a.png", []byte("a")), "achievements/a.png")
	assert.Error(t, err)
}
