package eventsource

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

const defaultEventName = "message"

// DefaultMaxLine bounds a single line, and the data of a single frame.
const DefaultMaxLine = 1 << 20

// ErrLineTooLong is returned when a line or a frame's data exceeds the limit.
var ErrLineTooLong = errors.New("eventsource: line too long")

// Reader parses SSE frames from a stream.
type Reader struct {
	r       *bufio.Reader
	maxLine int
	lastID  string
}

// NewReader returns a Reader that parses frames from r with DefaultMaxLine.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultMaxLine)
}

// NewReaderSize returns a Reader that fails with ErrLineTooLong once a line
// or a frame's joined data grows past maxLine bytes.
func NewReaderSize(r io.Reader, maxLine int) *Reader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	return &Reader{r: bufio.NewReader(r), maxLine: maxLine}
}

// readLine returns the next line including its terminator, reading at most
// maxLine bytes of it.
func (r *Reader) readLine() (string, error) {
	var buf []byte
	for {
		chunk, err := r.r.ReadSlice('\n')
		if len(buf)+len(chunk) > r.maxLine+2 {
			return "", ErrLineTooLong
		}
		buf = append(buf, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		return string(buf), err
	}
}

// Next returns the next complete frame. Comment lines and frames with no
// data are skipped. It returns io.EOF when the stream ends cleanly between
// frames and io.ErrUnexpectedEOF when it ends inside one.
func (r *Reader) Next() (Frame, error) {
	var (
		event   string
		data    bytes.Buffer
		hasData bool
		pending bool
	)

	for {
		line, err := r.readLine()
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF && pending {
				return Frame{}, io.ErrUnexpectedEOF
			}
			return Frame{}, err
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if line == "" {
			if !hasData {
				event, pending = "", false
				continue
			}
			if event == "" {
				event = defaultEventName
			}
			return Frame{Event: event, Data: data.Bytes(), ID: r.lastID}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		pending = true
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
			if data.Len() > r.maxLine {
				return Frame{}, ErrLineTooLong
			}
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		}
	}
}
