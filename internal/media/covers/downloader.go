// Package covers caches external cover images locally so the app keeps
// working when a catalog's image CDN goes away.
package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/media/images"
)

const (
	// maxCoverSize limits download size to prevent memory exhaustion.
	maxCoverSize = 10 * 1024 * 1024 // 10MB

	downloadTimeout = 30 * time.Second
)

// DownloadResult describes one cover download attempt.
type DownloadResult struct {
	Success  bool
	Width    int
	Height   int
	Size     int64
	BlurHash string
	Source   string // "googlebooks", "openlibrary", "unknown"
	Error    error  // set when Success is false
}

// Downloader fetches cover images from catalog URLs into local storage.
type Downloader struct {
	httpClient *http.Client
	storage    *images.Storage
	logger     *slog.Logger
}

// NewDownloader creates a new cover downloader.
func NewDownloader(storage *images.Storage, logger *slog.Logger) *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: downloadTimeout,
		},
		storage: storage,
		logger:  logger,
	}
}

// Download fetches a cover from the URL and stores it under the book ID.
// Failures never propagate past the result struct; a missing cover is a
// cosmetic problem, not a library one.
func (d *Downloader) Download(ctx context.Context, bookID, url string) *DownloadResult {
	result := &DownloadResult{Source: DetectSource(url)}

	if url == "" {
		result.Error = errors.New("empty cover URL")
		return result
	}

	downloadCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Errorf("create request: %w", err)
		return result
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("download: %w", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("download failed: status %d", resp.StatusCode)
		return result
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		result.Error = fmt.Errorf("read data: %w", err)
		return result
	}

	result.Size = int64(len(data))

	info, err := images.Probe(data)
	if err != nil {
		d.logger.Warn("failed to probe cover image",
			"book_id", bookID,
			"url", url,
			"error", err,
		)
		// The bytes may still render; keep them.
	} else {
		result.Width = info.Width
		result.Height = info.Height
		if hash, err := images.ComputeBlurHash(data); err == nil {
			result.BlurHash = hash
		}
	}

	if err := d.storage.Save(bookID, data); err != nil {
		result.Error = fmt.Errorf("store: %w", err)
		return result
	}

	result.Success = true
	d.logger.Info("cached cover",
		"book_id", bookID,
		"source", result.Source,
		"size", result.Size,
		"width", result.Width,
		"height", result.Height,
	)

	return result
}

// DetectSource determines which catalog a cover URL came from.
func DetectSource(url string) string {
	switch {
	case strings.Contains(url, "books.google.com") || strings.Contains(url, "googleapis.com"):
		return "googlebooks"
	case strings.Contains(url, "covers.openlibrary.org"):
		return "openlibrary"
	default:
		return "unknown"
	}
}
