// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentContentType(t *testing.T) {
	ct, err := DocumentContentType("notes.TXT")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct)

	ct, err = DocumentContentType("/tmp/paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)

	_, err = DocumentContentType("image.png")
	assert.True(t, errors.Is(err, ErrUnsupportedFile))
}

func TestUploadDocument(t *testing.T) {
	var gotName, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUploadPath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		gotName = files[0].Filename
		gotType = files[0].Header.Get("Content-Type")
		f, err := files[0].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		gotBody = string(data)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status_code": 201,
			"detail":      "File uploaded successfully",
			"payload":     map[string]any{"chunks": 3},
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some notes"), 0o644))

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	result, err := client.UploadDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 201, result.StatusCode)
	assert.Equal(t, "File uploaded successfully", result.Detail)
	assert.Equal(t, "notes.txt", gotName)
	assert.Equal(t, "text/plain", gotType)
	assert.Equal(t, "some notes", gotBody)
}

func TestUploadDocument_RejectsUnsupported(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xd8}, 0o644))

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = client.UploadDocument(context.Background(), path)
	assert.True(t, errors.Is(err, ErrUnsupportedFile))
	assert.False(t, called)
}

func TestUpload_TooLarge(t *testing.T) {
	client, err := NewClient("localhost:1")
	require.NoError(t, err)
	client.WithMaxUploadSize(4)

	_, err = client.Upload(context.Background(), "big.txt", strings.NewReader("12345"))
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestUpload_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid file type"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = client.Upload(context.Background(), "a.pdf", strings.NewReader("%PDF-1.4"))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
}
