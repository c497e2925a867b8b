// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// ErrUploadFailed wraps every failure talking to the image host so callers
// can map it to a single error code.
var ErrUploadFailed = errors.New("image upload failed")

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("image host not configured")

// Uploader pushes a processed image to external hosting and returns its
// public URL.
type Uploader interface {
	Upload(ctx context.Context, img *Processed) (string, error)
}

// Client talks to an imgbb-compatible upload API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates an upload client. The timeout bounds the whole upload
// including the response body read.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// uploadResponse is the subset of the API response we care about.
type uploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
}

// Upload sends the image and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, img *Processed) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", img.Filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	endpoint := c.endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrUploadFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", fmt.Errorf("%w: host rejected the image", ErrUploadFailed)
	}

	return parsed.Data.URL, nil
}

var _ Uploader = (*Client)(nil)
