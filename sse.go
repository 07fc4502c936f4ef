package chatkit

import (
	"bufio"
	"bytes"
	"io"
)

var sseDoneSentinel = []byte("[DONE]")

// sseDecoder reads server-sent-event framing and yields the data payload of
// each complete event. Event names are tolerated and ignored; the streaming
// driver only consumes data lines.
type sseDecoder struct {
	reader    *bufio.Reader
	data      bytes.Buffer
	bytesRead int
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{reader: bufio.NewReader(r)}
}

// next returns the next event's data payload. It returns io.EOF at end of
// stream; any data buffered for an unterminated event stays available
// through leftover.
func (d *sseDecoder) next() ([]byte, error) {
	for {
		line, err := d.reader.ReadBytes('\n')
		d.bytesRead += len(line)
		if err != nil {
			// A final line without a newline still counts as a field.
			if len(line) > 0 {
				d.consumeField(trimLineEnding(line))
			}
			return nil, err
		}

		line = trimLineEnding(line)

		// Blank line dispatches the accumulated event.
		if len(line) == 0 {
			if d.data.Len() > 0 {
				payload := append([]byte(nil), d.data.Bytes()...)
				d.data.Reset()
				return payload, nil
			}
			continue
		}

		// Comment lines start with a colon.
		if line[0] == ':' {
			continue
		}
		d.consumeField(line)
	}
}

// consumeField parses one "field: value" line, accumulating data lines and
// ignoring every other field.
func (d *sseDecoder) consumeField(line []byte) {
	idx := bytes.IndexByte(line, ':')
	if idx == -1 {
		return
	}
	field := string(line[:idx])
	value := line[idx+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	if field == "data" {
		if d.data.Len() > 0 {
			d.data.WriteByte('\n')
		}
		d.data.Write(value)
	}
}

// leftover returns data buffered for an event that was never terminated by
// a blank line, trimmed of surrounding whitespace. Valid after next returned
// io.EOF.
func (d *sseDecoder) leftover() string {
	return string(bytes.TrimSpace(d.data.Bytes()))
}

// empty reports whether the stream produced no bytes at all.
func (d *sseDecoder) empty() bool {
	return d.bytesRead == 0
}

// isSSEDone reports whether a data payload is the [DONE] terminator.
func isSSEDone(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), sseDoneSentinel)
}

func trimLineEnding(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}
