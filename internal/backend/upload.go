// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxUploadSize matches the backend's ingestion limit.
const DefaultMaxUploadSize int64 = 81920000

var (
	// ErrUnsupportedFile is returned for anything other than PDF or plain text.
	ErrUnsupportedFile = errors.New("unsupported file type: only PDF and TXT are accepted")

	// ErrFileTooLarge is returned when a document exceeds the upload limit.
	ErrFileTooLarge = errors.New("file too large")
)

// UploadResult is the backend's acknowledgement of an ingested document.
type UploadResult struct {
	StatusCode int            `json:"status_code"`
	Detail     string         `json:"detail"`
	Timestamp  string         `json:"timestamp,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// DocumentContentType returns the MIME type sent for name, or
// ErrUnsupportedFile if the extension is not .pdf or .txt.
func DocumentContentType(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf", nil
	case ".txt":
		return "text/plain", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(name))
}

// UploadDocument reads path and posts it to the upload endpoint.
func (c *Client) UploadDocument(ctx context.Context, path string) (*UploadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > c.maxUpload {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, filepath.Base(path), info.Size(), c.maxUpload)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return c.Upload(ctx, filepath.Base(path), f)
}

// Upload posts r as a document named name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*UploadResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("upload requires a file name")
	}
	contentType, err := DocumentContentType(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "files",
		"filename": name,
	}))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	n, err := io.Copy(part, io.LimitReader(r, c.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if n > c.maxUpload {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, name, c.maxUpload)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.uploadPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStatusError(resp)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.StatusCode == 0 {
		result.StatusCode = resp.StatusCode
	}
	c.log.Info().Str("file", name).Int64("bytes", n).Int("status", result.StatusCode).Msg("document uploaded")
	return &result, nil
}
