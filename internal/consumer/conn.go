package consumer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ganot/huddle/internal/eventsource"
)

// Conn is an open event stream.
type Conn interface {
	// Next blocks until the next frame arrives or the stream fails.
	Next() (eventsource.Frame, error)
	Close() error
}

// Dialer opens event streams.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// HTTPDialer opens SSE streams over HTTP.
type HTTPDialer struct {
	// Client defaults to a client without timeout; streams are long-lived.
	Client *http.Client
	Header http.Header
}

// Dial issues a GET for url and returns once response headers arrive.
func (d *HTTPDialer) Dial(ctx context.Context, url string) (Conn, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	for k, vs := range d.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	client := d.Client
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("stream status %d: %s", resp.StatusCode, body)
	}
	return &httpConn{body: resp.Body, reader: eventsource.NewReader(resp.Body), cancel: cancel}, nil
}

type httpConn struct {
	body   io.ReadCloser
	reader *eventsource.Reader
	cancel context.CancelFunc
}

func (c *httpConn) Next() (eventsource.Frame, error) {
	return c.reader.Next()
}

func (c *httpConn) Close() error {
	c.cancel()
	return c.body.Close()
}
