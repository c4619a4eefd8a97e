package eventsource_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/ganot/huddle/internal/eventsource"
	"github.com/stretchr/testify/require"
)

func TestReader_ParsesFrames(t *testing.T) {
	stream := ":ok\n\n" +
		"event: connected\ndata: {\"tenantId\":\"t1\"}\n\n" +
		"event: heartbeat\r\ndata: {\"timestamp\":\"2026-01-01T00:00:00Z\"}\r\n\r\n" +
		"id: 42\nevent: activity\ndata: {\"a\":\ndata: 1}\n\n" +
		"data: plain\n\n"

	r := eventsource.NewReader(strings.NewReader(stream))

	f, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, eventsource.EventConnected, f.Event)
	require.Equal(t, `{"tenantId":"t1"}`, string(f.Data))

	f, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, eventsource.EventHeartbeat, f.Event)

	f, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, eventsource.EventActivity, f.Event)
	require.Equal(t, "{\"a\":\n1}", string(f.Data))
	require.Equal(t, "42", f.ID)

	f, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, "message", f.Event)
	require.Equal(t, "plain", string(f.Data))
	require.Equal(t, "42", f.ID)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_TruncatedFrame(t *testing.T) {
	r := eventsource.NewReader(strings.NewReader("event: activity\ndata: {"))
	_, err := r.Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReader_LineTooLong(t *testing.T) {
	long := strings.Repeat("x", 64)

	r := eventsource.NewReaderSize(strings.NewReader("data: "+long+"\n\n"), 32)
	_, err := r.Next()
	require.ErrorIs(t, err, eventsource.ErrLineTooLong)

	r = eventsource.NewReaderSize(strings.NewReader("data: "+long[:20]+"\ndata: "+long[:20]+"\n\n"), 32)
	_, err = r.Next()
	require.ErrorIs(t, err, eventsource.ErrLineTooLong)

	r = eventsource.NewReaderSize(strings.NewReader("data: "+long[:24]+"\n\n"), 32)
	f, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, long[:24], string(f.Data))
}

func TestReader_LongLineWithinDefault(t *testing.T) {
	long := strings.Repeat("y", 64*1024)
	r := eventsource.NewReader(strings.NewReader("event: activity\ndata: " + long + "\n\n"))
	f, err := r.Next()
	require.NoError(t, err)
	require.Len(t, f.Data, len(long))
}

func TestReader_SkipsEventWithoutData(t *testing.T) {
	r := eventsource.NewReader(strings.NewReader("event: heartbeat\n\nevent: activity\ndata: x\n\n"))
	f, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, eventsource.EventActivity, f.Event)
}

func TestWriteEvent_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, eventsource.WriteComment(&buf, "ok"))
	require.NoError(t, eventsource.WriteEvent(&buf, eventsource.EventActivity, []byte("line1\nline2")))
	require.Equal(t, ":ok\n\nevent: activity\ndata: line1\ndata: line2\n\n", buf.String())

	f, err := eventsource.NewReader(&buf).Next()
	require.NoError(t, err)
	require.Equal(t, "line1\nline2", string(f.Data))
}
