package eventsource

import (
	"bytes"
	"fmt"
	"io"
)

// WriteEvent writes a single frame. Multi-line data is split across data
// fields so the reader rejoins it with newlines.
func WriteEvent(w io.Writer, event string, data []byte) error {
	var buf bytes.Buffer
	if event != "" {
		fmt.Fprintf(&buf, "event: %s\n", event)
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteComment writes a comment line, which readers ignore.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ":%s\n\n", text)
	return err
}
