package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"

	"swipefeed/models"
)

// TokenSource returns the bearer token of the current session
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields token
func StaticToken(token string) TokenSource {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

// APIError is a non-2xx response from the feed API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feed api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   TokenSource
	http    *retryablehttp.Client
}

// New returns a client for the API at baseURL. Error responses are only
// retried for GET requests.
func New(baseURL string, token TokenSource, retryMax int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.Request != nil && resp.Request.Method != http.MethodGet {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	// Hand the last response back instead of a generic "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    rc,
	}
}

// FetchPage requests one feed page. A nil cursor requests the first page.
func (c *Client) FetchPage(ctx context.Context, limit int, cursor *models.Cursor) (*models.FeedPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != nil {
		q.Set("after_score", strconv.FormatFloat(cursor.AfterScore, 'f', -1, 64))
		q.Set("after_user", cursor.AfterUser)
	}

	var page models.FeedPage
	if err := c.do(ctx, http.MethodGet, "/api/feed?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []models.CandidateProfile{}
	}
	return &page, nil
}

// RecordInteraction sends a like or dislike for the target user
func (c *Client) RecordInteraction(ctx context.Context, toUserID string, kind models.InteractionKind) error {
	body, err := json.Marshal(map[string]string{
		"toUserId":        toUserID,
		"interactionType": string(kind),
	})
	if err != nil {
		return err
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/interactions", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("feed api: interaction not acknowledged")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, path string, body []byte, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session token: %w", err)
	}

	var reqBody interface{}
	if body != nil {
		reqBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		log.WithFields(log.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("Feed API returned an error")
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
