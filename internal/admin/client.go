package admin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// APIError is a non-2xx answer from the admin API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Client talks to the admin API. Responses are returned as raw JSON so
// callers can print or decode them.
type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(base, token string, timeout time.Duration) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if sonic.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return data, nil
}

// List fetches one of the collections: groups, violations, clean, mutes,
// bans or verified.
func (c *Client) List(ctx context.Context, collection string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/"+collection, nil)
}

// Logs fetches the violating or clean log, optionally narrowed to one group
// and one YYYY-MM-DD day.
func (c *Client) Logs(ctx context.Context, kind, group, date string) ([]byte, error) {
	q := url.Values{}
	if group != "" {
		q.Set("group", group)
	}
	if date != "" {
		q.Set("date", date)
	}
	path := "/api/" + kind
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Stats(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/stats", nil)
}

func (c *Client) User(ctx context.Context, userID int64) ([]byte, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", userID), nil)
}

func (c *Client) Reclassify(ctx context.Context, userID, groupID int64, messageIDs []int, target string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/users/%d/reclassify", userID), reclassifyRequest{
		GroupID:    groupID,
		MessageIDs: messageIDs,
		Target:     target,
	})
}

func (c *Client) SendMessage(ctx context.Context, userID int64, text string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/users/%d/message", userID), messageRequest{Text: text})
}

// Sanction applies (apply=true) or lifts a mute or ban.
func (c *Client) Sanction(ctx context.Context, userID int64, kind string, apply bool) ([]byte, error) {
	method := http.MethodDelete
	if apply {
		method = http.MethodPost
	}
	return c.do(ctx, method, fmt.Sprintf("/api/users/%d/%s", userID, kind), nil)
}
