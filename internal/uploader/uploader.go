// Package uploader posts images to an unsigned-preset upload endpoint and
// returns the durable HTTPS URL the endpoint assigns.
package uploader

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	defaultTimeout = 30 * time.Second

	// maxResponseSize bounds the upload response body read.
	maxResponseSize = 1 * 1024 * 1024
)

// Sentinel errors for upload operations.
var (
	ErrBadRequest = errors.New("uploader: upload rejected")
	ErrServer     = errors.New("uploader: upload service error")
)

// Client uploads images via unsigned-preset multipart POST.
type Client struct {
	http      *http.Client
	uploadURL string
	preset    string
	logger    *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates an upload client for the given endpoint and unsigned preset.
func New(uploadURL, preset string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		uploadURL: uploadURL,
		preset:    preset,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// uploadResponse is the subset of the endpoint's response we care about.
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload posts image bytes and returns the durable secure URL.
// Folder is optional and namespaces the asset on the upload service.
func (c *Client) Upload(ctx context.Context, filename string, data []byte, folder string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload %s: image data cannot be empty", filename)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("upload %s: create form file: %w", filename, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("upload %s: write form file: %w", filename, err)
	}
	if err := writer.WriteField("upload_preset", c.preset); err != nil {
		return "", fmt.Errorf("upload %s: write preset field: %w", filename, err)
	}
	if folder != "" {
		if err := writer.WriteField("folder", folder); err != nil {
			return "", fmt.Errorf("upload %s: write folder field: %w", filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("upload %s: finalize form: %w", filename, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("upload %s: create request: %w", filename, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("uploading image", "filename", filename, "folder", folder, "size", len(data))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("upload %s: read response: %w", filename, err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("upload %s: parse response: %w", filename, err)
	}
	if parsed.SecureURL == "" {
		return "", fmt.Errorf("upload %s: %w: response missing secure_url", filename, ErrServer)
	}

	c.logger.Debug("image uploaded", "filename", filename, "url", parsed.SecureURL)
	return parsed.SecureURL, nil
}

// checkStatus maps HTTP status codes to typed errors.
func checkStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: status %d", ErrBadRequest, status)
	default:
		return fmt.Errorf("%w: status %d", ErrServer, status)
	}
}
