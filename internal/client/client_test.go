package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "secret")
}

func TestBaseURLFromEnv(t *testing.T) {
	t.Setenv("HUDDLE_API_BASE_URL", "")
	require.Equal(t, DefaultBaseURL, BaseURLFromEnv())

	t.Setenv("HUDDLE_API_BASE_URL", "https://huddle.example.com/")
	require.Equal(t, "https://huddle.example.com", BaseURLFromEnv())
}

func TestStreamURL(t *testing.T) {
	c := New("http://localhost:8080", "")
	require.Equal(t, "http://localhost:8080/activity?tenantId=acme+co", c.StreamURL("acme co"))
}

func TestClient_ListTasks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/tasks", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items":[{"id":"t1","title":"Ship","status":"todo"}]}`))
	})

	tasks, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "Ship", tasks[0].Title)
}

func TestClient_RejectsInvalidEntities(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(*Client) error
	}{
		{
			name: "task with unknown status",
			body: `{"items":[{"id":"t1","status":"blocked"}]}`,
			call: func(c *Client) error { _, err := c.ListTasks(context.Background()); return err },
		},
		{
			name: "conversation without id",
			body: `{"items":[{"status":"open"}]}`,
			call: func(c *Client) error { _, err := c.ListConversations(context.Background()); return err },
		},
		{
			name: "decided approval without decider",
			body: `{"items":[{"id":"a1","status":"approved"}]}`,
			call: func(c *Client) error { _, err := c.ListApprovals(context.Background(), ""); return err },
		},
		{
			name: "event without type",
			body: `{"items":[{"id":"e1"}]}`,
			call: func(c *Client) error { _, err := c.RecentActivity(context.Background(), "", 0); return err },
		},
		{
			name: "not json",
			body: `<html>`,
			call: func(c *Client) error { _, err := c.ListTasks(context.Background()); return err },
		},
		{
			name: "presence without count",
			body: `{}`,
			call: func(c *Client) error { _, err := c.Presence(context.Background()); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			err := tt.call(c)
			require.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestClient_DecodesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"ALREADY_DECIDED","message":"approval already decided"}}`))
	})

	_, err := c.Approve(context.Background(), "a1", "carol")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "ALREADY_DECIDED", apiErr.Code)
}

func TestClient_RejectSendsReason(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/approvals/a1/reject", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"a1","status":"rejected","decidedBy":"carol","reason":"late"}`))
	})

	a, err := c.Reject(context.Background(), "a1", "carol", "late")
	require.NoError(t, err)
	require.Equal(t, approval.StatusRejected, a.Status)
	require.Equal(t, map[string]string{"decidedBy": "carol", "reason": "late"}, got)
}

func TestClient_RecentActivityQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "approval_created", r.URL.Query().Get("type"))
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	events, err := c.RecentActivity(context.Background(), "approval_created", 5)
	require.NoError(t, err)
	require.Empty(t, events)
}
