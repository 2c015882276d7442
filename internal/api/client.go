package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rillfeed/rill/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Rill/1.0"
)

// Client implements domain.FeedRepository against a Miniflux-compatible
// v1 API.
type Client struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed API client. clientID is this installation's
// stable identifier, sent on every request for server-side log correlation.
func NewClient(baseURL, token, clientID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  baseURL,
		token:    token,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// SetToken updates the authentication token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// doRequest performs an authenticated HTTP request and returns the body.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Token", c.token)
	req.Header.Set("X-Client-Id", c.clientID)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrAuthFailed
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrEntryNotFound
	case resp.StatusCode >= 300:
		c.logger.Error("api request error", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return respBody, nil
}

// GetFeeds returns all subscribed feeds with their unread counters.
func (c *Client) GetFeeds(ctx context.Context) ([]domain.Feed, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v1/feeds", nil, nil)
	if err != nil {
		return nil, err
	}

	var dtos []feedDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse feeds: %w", err)
	}

	feeds := make([]domain.Feed, 0, len(dtos))
	for _, dto := range dtos {
		feeds = append(feeds, dto.toDomain())
	}

	// Counters live on a separate endpoint; feeds render fine without
	// them, so a failure here only logs.
	if counters, err := c.getFeedCounters(ctx); err == nil {
		for i := range feeds {
			feeds[i].UnreadCount = counters[feeds[i].ID]
		}
	} else {
		c.logger.Warn("failed to fetch feed counters", "error", err)
	}

	return feeds, nil
}

func (c *Client) getFeedCounters(ctx context.Context) (map[int64]int, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v1/feeds/counters", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp feedCountersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse counters: %w", err)
	}

	counters := make(map[int64]int, len(resp.Unreads))
	for key, count := range resp.Unreads {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		counters[id] = count
	}
	return counters, nil
}

// GetFeedEntries returns entries for one feed, newest first.
func (c *Client) GetFeedEntries(ctx context.Context, feedID int64, limit int) ([]domain.Entry, error) {
	path := fmt.Sprintf("/v1/feeds/%d/entries", feedID)
	return c.fetchEntries(ctx, path, limit)
}

// GetRecentEntries returns the newest entries across all feeds.
func (c *Client) GetRecentEntries(ctx context.Context, limit int) ([]domain.Entry, error) {
	return c.fetchEntries(ctx, "/v1/entries", limit)
}

func (c *Client) fetchEntries(ctx context.Context, path string, limit int) ([]domain.Entry, error) {
	query := url.Values{}
	query.Set("order", "published_at")
	query.Set("direction", "desc")
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var resp entriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse entries: %w", err)
	}

	entries := make([]domain.Entry, 0, len(resp.Entries))
	for _, dto := range resp.Entries {
		entries = append(entries, dto.toDomain())
	}
	return entries, nil
}

// MarkEntryRead flags an entry as read on the server.
func (c *Client) MarkEntryRead(ctx context.Context, entryID int64) error {
	payload := map[string]any{
		"entry_ids": []int64{entryID},
		"status":    "read",
	}
	_, err := c.doRequest(ctx, http.MethodPut, "/v1/entries", nil, payload)
	return err
}
