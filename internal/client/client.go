// Package client is a typed client for the huddle REST API. Responses are
// validated before they are returned so that stores never cache malformed
// entities.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
)

// DefaultBaseURL is used when HUDDLE_API_BASE_URL is unset.
const DefaultBaseURL = "http://localhost:8080"

// ErrInvalidResponse indicates a response body that does not match the API contract.
var ErrInvalidResponse = errors.New("invalid response")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s: %s", e.Status, e.Code, e.Message)
}

// BaseURLFromEnv returns HUDDLE_API_BASE_URL without a trailing slash, or DefaultBaseURL.
func BaseURLFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("HUDDLE_API_BASE_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return DefaultBaseURL
}

// Client calls the REST API. The zero HTTP field uses a client with a 15s timeout.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a client for baseURL authenticating with token, which may be
// empty when the server runs without auth.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// StreamURL is the activity stream endpoint for a tenant.
func (c *Client) StreamURL(tenantID string) string {
	return c.BaseURL + "/activity?tenantId=" + url.QueryEscape(tenantID)
}

type list[T any] struct {
	Items []T `json:"items"`
}

// RecentActivity lists stored events, newest first.
func (c *Client) RecentActivity(ctx context.Context, eventType string, limit int) ([]activity.Event, error) {
	q := url.Values{}
	if eventType != "" {
		q.Set("type", eventType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out list[activity.Event]
	if err := c.do(ctx, http.MethodGet, "/api/v1/activity", q, nil, &out); err != nil {
		return nil, err
	}
	for _, e := range out.Items {
		if err := validateEvent(e); err != nil {
			return nil, err
		}
	}
	return out.Items, nil
}

// PublishRequest is an externally published activity event.
type PublishRequest struct {
	Type        string `json:"type"`
	Source      string `json:"source,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Data        any    `json:"data,omitempty"`
}

// PublishActivity publishes an event to the tenant's stream.
func (c *Client) PublishActivity(ctx context.Context, req PublishRequest) (*activity.Event, error) {
	var out activity.Event
	if err := c.do(ctx, http.MethodPost, "/api/v1/activity", nil, req, &out); err != nil {
		return nil, err
	}
	if err := validateEvent(out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations lists inbox conversations.
func (c *Client) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	var out list[conversation.Conversation]
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations", nil, nil, &out); err != nil {
		return nil, err
	}
	for _, conv := range out.Items {
		if err := validateConversation(conv); err != nil {
			return nil, err
		}
	}
	return out.Items, nil
}

// GetConversation fetches one conversation.
func (c *Client) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	var out conversation.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	if err := validateConversation(out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListApprovals lists approvals, optionally filtered by status.
func (c *Client) ListApprovals(ctx context.Context, status approval.Status) ([]approval.Approval, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var out list[approval.Approval]
	if err := c.do(ctx, http.MethodGet, "/api/v1/approvals", q, nil, &out); err != nil {
		return nil, err
	}
	for _, a := range out.Items {
		if err := validateApproval(a); err != nil {
			return nil, err
		}
	}
	return out.Items, nil
}

// Approve approves a pending approval.
func (c *Client) Approve(ctx context.Context, id, decidedBy string) (*approval.Approval, error) {
	return c.decide(ctx, id, "approve", map[string]string{"decidedBy": decidedBy})
}

// Reject rejects a pending approval.
func (c *Client) Reject(ctx context.Context, id, decidedBy, reason string) (*approval.Approval, error) {
	return c.decide(ctx, id, "reject", map[string]string{"decidedBy": decidedBy, "reason": reason})
}

func (c *Client) decide(ctx context.Context, id, action string, body map[string]string) (*approval.Approval, error) {
	var out approval.Approval
	path := "/api/v1/approvals/" + url.PathEscape(id) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	if err := validateApproval(out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks lists tasks.
func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var out list[task.Task]
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks", nil, nil, &out); err != nil {
		return nil, err
	}
	for _, t := range out.Items {
		if err := validateTask(t); err != nil {
			return nil, err
		}
	}
	return out.Items, nil
}

// Presence returns the number of open activity streams for the caller's tenant.
func (c *Client) Presence(ctx context.Context) (int, error) {
	var out struct {
		Streams *int `json:"streams"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/presence", nil, nil, &out); err != nil {
		return 0, err
	}
	if out.Streams == nil {
		return 0, fmt.Errorf("%w: presence without streams", ErrInvalidResponse)
	}
	return *out.Streams, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error *APIError `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
