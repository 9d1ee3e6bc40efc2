// Package pexels implements stock.Provider against the Pexels REST API.
package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/fileutil"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/stock"
)

const (
	DefaultBaseURL         = "https://api.pexels.com"
	defaultTimeout         = 15 * time.Second
	defaultDownloadTimeout = 120 * time.Second
	maxPerPage             = 80
	maxRetries             = 2
	initialBackoff         = time.Second
	stageName              = "stock"
)

// Config describes the client configuration.
type Config struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	DownloadTimeout time.Duration
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// Client wraps the Pexels video and photo search endpoints.
type Client struct {
	apiKey          string
	baseURL         *url.URL
	http            *http.Client
	timeout         time.Duration
	downloadTimeout time.Duration
	backoff         time.Duration
	logger          *slog.Logger
}

var _ stock.Provider = (*Client)(nil)

// New creates a client. A missing API key is a configuration error.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "pexels client", "api key is required (pexels.api_key or PEXELS_API_KEY)", nil)
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "pexels client", "parse base url", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	downloadTimeout := cfg.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = defaultDownloadTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		apiKey:          apiKey,
		baseURL:         baseURL,
		http:            client,
		timeout:         timeout,
		downloadTimeout: downloadTimeout,
		backoff:         initialBackoff,
		logger:          logging.NewComponentLogger(cfg.Logger, "pexels"),
	}, nil
}

// SearchVideos queries /videos/search and keeps, per video, the file that
// best matches orientation. Videos without a scoring file are skipped.
func (c *Client) SearchVideos(ctx context.Context, query, orientation string, count int) ([]stock.Candidate, error) {
	var payload videoSearchResponse
	if err := c.search(ctx, "videos/search", query, orientation, "medium", count, &payload); err != nil {
		return nil, err
	}
	out := make([]stock.Candidate, 0, len(payload.Videos))
	for _, video := range payload.Videos {
		file, ok := BestVideoFile(video.VideoFiles, orientation)
		if !ok {
			continue
		}
		out = append(out, stock.Candidate{
			ID:       video.ID,
			Type:     stock.MediaVideo,
			URL:      file.Link,
			Width:    file.Width,
			Height:   file.Height,
			Duration: video.Duration,
			Author:   video.User.Name,
			PageURL:  video.URL,
		})
	}
	return out, nil
}

// SearchPhotos queries /v1/search and picks the orientation-specific
// rendition of each photo.
func (c *Client) SearchPhotos(ctx context.Context, query, orientation string, count int) ([]stock.Candidate, error) {
	var payload photoSearchResponse
	if err := c.search(ctx, "v1/search", query, orientation, "large", count, &payload); err != nil {
		return nil, err
	}
	out := make([]stock.Candidate, 0, len(payload.Photos))
	for _, photo := range payload.Photos {
		link := photo.Src.forOrientation(orientation)
		if link == "" {
			continue
		}
		out = append(out, stock.Candidate{
			ID:      photo.ID,
			Type:    stock.MediaPhoto,
			URL:     link,
			Width:   photo.Width,
			Height:  photo.Height,
			Author:  photo.Photographer,
			PageURL: photo.URL,
		})
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, path, query, orientation, size string, count int, into any) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return services.Wrap(services.ErrInvalidArgument, stageName, "pexels search", "query is required", nil)
	}
	if count <= 0 {
		count = 1
	}
	endpoint := c.baseURL.JoinPath(path)
	params := url.Values{}
	params.Set("query", query)
	if orientation = strings.TrimSpace(orientation); orientation != "" {
		params.Set("orientation", orientation)
	}
	params.Set("size", size)
	params.Set("per_page", strconv.Itoa(min(count, maxPerPage)))
	params.Set("page", "1")
	endpoint.RawQuery = params.Encode()

	backoff := c.backoff
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying pexels search",
				logging.String("query", query),
				logging.Int("attempt", attempt),
				logging.Error(lastErr),
			)
			if err := sleepWithContext(ctx, backoff); err != nil {
				return services.FromContext(ctx, stageName)
			}
			backoff *= 2
		}
		retry, err := c.searchOnce(ctx, endpoint.String(), into)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return lastErr
}

func (c *Client) searchOnce(ctx context.Context, endpoint string, into any) (bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, services.Wrap(services.ErrInvalidArgument, stageName, "pexels search", "build request", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := services.FromContext(ctx, stageName); ctxErr != nil {
			return false, ctxErr
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return true, services.Wrap(services.ErrTimeout, stageName, "pexels search", fmt.Sprintf("no response within %s", c.timeout), err)
		}
		return true, services.Wrap(services.ErrExternalTool, stageName, "pexels search", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, services.Wrap(services.ErrConfiguration, stageName, "pexels search", "api key rejected ("+resp.Status+")", nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return true, services.Wrap(services.ErrExternalTool, stageName, "pexels search",
			fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body))), nil)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, services.Wrap(services.ErrExternalTool, stageName, "pexels search",
			fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body))), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return false, services.Wrap(services.ErrExternalTool, stageName, "pexels search", "decode response", err)
	}
	return false, nil
}

// Download streams candidate to dest through a temporary sibling so a
// partial transfer never looks like a finished file.
func (c *Client) Download(ctx context.Context, candidate stock.Candidate, dest string) error {
	if strings.TrimSpace(candidate.URL) == "" {
		return services.Wrap(services.ErrInvalidArgument, stageName, "pexels download", "candidate has no url", nil)
	}
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrInvalidArgument, stageName, "pexels download", "destination is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrResourceUnavailable, stageName, "pexels download", "create destination directory", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, candidate.URL, nil)
	if err != nil {
		return services.Wrap(services.ErrInvalidArgument, stageName, "pexels download", "build request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.downloadErr(ctx, reqCtx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return services.Wrap(services.ErrExternalTool, stageName, "pexels download",
			fmt.Sprintf("fetch %d: %s", candidate.ID, resp.Status), nil)
	}

	temp := fileutil.TempSibling(dest)
	file, err := os.Create(temp)
	if err != nil {
		return services.Wrap(services.ErrResourceUnavailable, stageName, "pexels download", "create temp file", err)
	}
	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(temp)
		return c.downloadErr(ctx, reqCtx, copyErr)
	}
	if closeErr != nil || written == 0 {
		_ = os.Remove(temp)
		return services.Wrap(services.ErrExternalTool, stageName, "pexels download",
			fmt.Sprintf("empty or unreadable body for %d", candidate.ID), closeErr)
	}
	if err := os.Rename(temp, dest); err != nil {
		_ = os.Remove(temp)
		return services.Wrap(services.ErrResourceUnavailable, stageName, "pexels download", "publish file", err)
	}
	c.logger.Debug("stock media downloaded",
		logging.Int64("pexels_id", candidate.ID),
		logging.String("path", dest),
		logging.SizeBytes(written),
	)
	return nil
}

func (c *Client) downloadErr(ctx, reqCtx context.Context, err error) error {
	if ctxErr := services.FromContext(ctx, stageName); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stageName, "pexels download", fmt.Sprintf("exceeded %s", c.downloadTimeout), err)
	}
	return services.Wrap(services.ErrExternalTool, stageName, "pexels download", "transfer failed", err)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
