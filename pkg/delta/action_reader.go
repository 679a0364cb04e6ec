package delta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const readerBufferSize = 64 * 1024

// ObjectReader splits a stream of concatenated JSON objects. Bytes before an
// opening brace are skipped. Only the object being read is buffered.
type ObjectReader struct {
	reader *bufio.Reader
	offset int64
	object bytes.Buffer
}

func NewObjectReader(r io.Reader) *ObjectReader {
	return &ObjectReader{reader: bufio.NewReaderSize(r, readerBufferSize)}
}

// Next returns the raw text of the next top-level object, or io.EOF once the
// stream is exhausted. The returned slice is only valid until the next call.
func (o *ObjectReader) Next() ([]byte, error) {
	if err := o.skipToObject(); err != nil {
		return nil, err
	}

	o.object.Reset()
	start := o.offset
	depth := 0
	inString := false
	escaped := false

	for {
		c, err := o.readByte()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unterminated JSON object starting at offset %d", ErrMalformedData, start)
		}
		if err != nil {
			return nil, err
		}
		o.object.WriteByte(c)

		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return o.object.Bytes(), nil
			}
		}
	}
}

// Offset is the number of bytes consumed so far.
func (o *ObjectReader) Offset() int64 {
	return o.offset
}

func (o *ObjectReader) skipToObject() error {
	for {
		peeked, err := o.reader.Peek(1)
		if err != nil {
			return err
		}
		if peeked[0] == '{' {
			return nil
		}
		if _, err := o.readByte(); err != nil {
			return err
		}
	}
}

func (o *ObjectReader) readByte() (byte, error) {
	c, err := o.reader.ReadByte()
	if err == nil {
		o.offset++
	}
	return c, err
}

// ActionReader yields parsed actions from a commit file stream.
type ActionReader struct {
	objects *ObjectReader
}

func NewActionReader(r io.Reader) *ActionReader {
	return &ActionReader{objects: NewObjectReader(r)}
}

// Next returns the next action or io.EOF.
func (a *ActionReader) Next() (Action, error) {
	for {
		raw, err := a.objects.Next()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		action, err := ParseAction(raw)
		if err != nil {
			return nil, fmt.Errorf("action ending at offset %d: %w", a.objects.Offset(), err)
		}
		return action, nil
	}
}
