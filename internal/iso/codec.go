// Package iso implements the ISO-8583 dialect spoken by the gateway:
// typed field values, the dialect dictionary, and a framed wire codec.
//
// Wire layout: 2-byte big-endian payload length, then a 4-digit ASCII MTI,
// a binary primary bitmap, an optional binary secondary bitmap, and the
// present fields in ascending order. Text rides as UTF-8, binary fields as
// raw octets. Variable fields carry an ASCII decimal byte-count prefix.
package iso

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// FrameHeaderSize is the byte width of the length prefix on every frame.
	FrameHeaderSize = 2

	// MaxFrameSize is the largest payload a 2-byte frame header can carry.
	MaxFrameSize = 0xFFFF

	mtiSize    = 4
	bitmapSize = 8
)

var (
	// ErrFrameIncomplete is returned when the stream ends before a frame
	// header, or before the payload bytes the header promised.
	ErrFrameIncomplete = errors.New("incomplete frame")

	// ErrFrameMalformed is returned when a complete payload fails
	// structural decoding.
	ErrFrameMalformed = errors.New("malformed frame")

	// ErrFrameTooLarge is returned when a payload exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrValueTooLong is returned when a variable field value exceeds what
	// its length prefix can express.
	ErrValueTooLong = errors.New("value too long for field type")
)

// Decode parses one de-framed payload into a Message under the dictionary.
func Decode(payload []byte, dict *Dictionary) (*Message, error) {
	if len(payload) < mtiSize+bitmapSize {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrFrameMalformed, len(payload))
	}
	mti, err := ParseMTI(string(payload[:mtiSize]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameMalformed, err)
	}
	table, ok := dict.tables[mti]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported mti %s", ErrFrameMalformed, FormatMTI(mti))
	}
	m := NewMessage(mti)
	if err := decodeBody(m, payload[mtiSize:], table, dict); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode renders a message to its wire payload, without the frame header.
func Encode(m *Message) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(FormatMTI(m.MTI()))
	if err := encodeBody(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadFrame reads one length-prefixed payload from r. A clean EOF before
// the first header byte is reported as io.EOF so callers can tell an
// orderly close from a truncated frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short frame header", ErrFrameIncomplete)
		}
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}
	n := int(binary.BigEndian.Uint16(hdr[:]))
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: header promised %d payload bytes", ErrFrameIncomplete, n)
			}
			return nil, fmt.Errorf("failed to read frame payload: %w", err)
		}
	}
	return payload, nil
}

// WriteFrame writes payload behind its 2-byte big-endian length header.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint16(buf, uint16(len(payload)))
	copy(buf[FrameHeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadMessage reads and decodes one framed message.
func ReadMessage(r io.Reader, dict *Dictionary) (*Message, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(payload, dict)
}

// WriteMessage encodes and writes one framed message.
func WriteMessage(w io.Writer, m *Message) error {
	payload, err := Encode(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// decodeBody parses the bitmap and field data following the MTI. When dict
// is non-nil a present field 127 is re-parsed as a nested bitmap message
// under the sub-table; the nested level passes nil to stop the recursion.
func decodeBody(m *Message, data []byte, table map[int]FieldSpec, dict *Dictionary) error {
	if len(data) < bitmapSize {
		return fmt.Errorf("%w: missing primary bitmap", ErrFrameMalformed)
	}
	bitmap := data[:bitmapSize]
	pos := bitmapSize
	if bitmap[0]&0x80 != 0 {
		if len(data) < 2*bitmapSize {
			return fmt.Errorf("%w: secondary bitmap flagged but absent", ErrFrameMalformed)
		}
		bitmap = data[:2*bitmapSize]
		pos = 2 * bitmapSize
	}

	var present []int
	for n := 2; n <= len(bitmap)*8; n++ {
		if bitmap[(n-1)/8]&(0x80>>uint((n-1)%8)) != 0 {
			present = append(present, n)
		}
	}

	for i, n := range present {
		spec, ok := table[n]
		if !ok {
			return fmt.Errorf("%w: field %d not defined for mti %s", ErrFrameMalformed, n, FormatMTI(m.MTI()))
		}
		// The last flagged field may be missing entirely; tolerate it.
		if pos == len(data) && i == len(present)-1 {
			break
		}
		v, next, err := decodeValue(data, pos, n, spec, dict)
		if err != nil {
			return err
		}
		m.SetField(n, v)
		pos = next
	}
	return nil
}

func decodeValue(data []byte, pos, field int, spec FieldSpec, dict *Dictionary) (*Value, int, error) {
	if spec.Type.Variable() {
		pd := spec.Type.prefixDigits()
		if pos+pd > len(data) {
			return nil, 0, fmt.Errorf("%w: field %d length prefix truncated", ErrFrameMalformed, field)
		}
		n := 0
		for _, c := range data[pos : pos+pd] {
			if c < '0' || c > '9' {
				return nil, 0, fmt.Errorf("%w: field %d has non-numeric length prefix", ErrFrameMalformed, field)
			}
			n = n*10 + int(c-'0')
		}
		pos += pd
		if pos+n > len(data) {
			return nil, 0, fmt.Errorf("%w: field %d promises %d bytes", ErrFrameMalformed, field, n)
		}
		raw := data[pos : pos+n]
		pos += n

		if field == 127 && dict != nil {
			sub, err := decodeComposite(raw, dict)
			if err != nil {
				return nil, 0, err
			}
			v := NewComposite(sub)
			v.Length = n
			return v, pos, nil
		}
		if spec.Type.Binary() {
			return &Value{Type: spec.Type, Length: n, bin: append([]byte(nil), raw...)}, pos, nil
		}
		return &Value{Type: spec.Type, Length: n, str: string(raw)}, pos, nil
	}

	w := spec.Length
	if pos+w > len(data) {
		return nil, 0, fmt.Errorf("%w: field %d needs %d bytes", ErrFrameMalformed, field, w)
	}
	raw := data[pos : pos+w]
	pos += w
	if spec.Type.Binary() {
		return &Value{Type: spec.Type, Length: w, bin: append([]byte(nil), raw...)}, pos, nil
	}
	return &Value{Type: spec.Type, Length: w, str: string(raw)}, pos, nil
}

// decodeComposite parses the payload of field 127: a bitmap-led message
// without an MTI, under the sub-table. An empty payload yields an empty
// nested message.
func decodeComposite(data []byte, dict *Dictionary) (*Message, error) {
	sub := NewMessage(0)
	if len(data) == 0 {
		return sub, nil
	}
	if err := decodeBody(sub, data, dict.sub, nil); err != nil {
		return nil, err
	}
	return sub, nil
}

func encodeBody(buf *bytes.Buffer, m *Message) error {
	fields := m.Fields()
	var bitmap [2 * bitmapSize]byte
	secondary := false
	for _, n := range fields {
		bitmap[(n-1)/8] |= 0x80 >> uint((n-1)%8)
		if n > 64 {
			secondary = true
		}
	}
	if secondary {
		bitmap[0] |= 0x80
		buf.Write(bitmap[:])
	} else {
		buf.Write(bitmap[:bitmapSize])
	}
	for _, n := range fields {
		if err := encodeValue(buf, n, m.Field(n)); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(buf *bytes.Buffer, field int, v *Value) error {
	if sub := v.Composite(); sub != nil {
		var body bytes.Buffer
		if err := encodeBody(&body, sub); err != nil {
			return err
		}
		return writeVar(buf, field, v.Type, body.Bytes())
	}
	if v.Type.Variable() {
		return writeVar(buf, field, v.Type, v.Bytes())
	}
	if v.Type.Binary() {
		buf.Write(padBinary(v.bin, v.Length))
		return nil
	}
	buf.WriteString(padText(v.Type, v.str, v.Length))
	return nil
}

func writeVar(buf *bytes.Buffer, field int, t Type, data []byte) error {
	if len(data) > t.maxLength() {
		return fmt.Errorf("%w: field %d carries %d bytes as %s", ErrValueTooLong, field, len(data), t)
	}
	fmt.Fprintf(buf, "%0*d", t.prefixDigits(), len(data))
	buf.Write(data)
	return nil
}

// padText pads a fixed text value to its declared width. Alpha pads with
// trailing spaces and keeps the left of an overlong value; digit types pad
// with leading zeros and keep the right.
func padText(t Type, s string, width int) string {
	switch {
	case len(s) == width:
		return s
	case len(s) > width:
		if t == TypeAlpha {
			return s[:width]
		}
		return s[len(s)-width:]
	case t == TypeAlpha:
		return s + strings.Repeat(" ", width-len(s))
	default:
		return strings.Repeat("0", width-len(s)) + s
	}
}

func padBinary(b []byte, width int) []byte {
	if len(b) == width {
		return b
	}
	out := make([]byte, width)
	copy(out, b)
	return out
}
