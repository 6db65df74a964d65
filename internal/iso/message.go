package iso

import (
	"fmt"
	"sort"
)

// Message type indicators handled by the gateway. The MTI is held as a
// hex-nibble integer so that "0200" parses to 0x200 and the response MTI
// is always request+0x10.
const (
	MTIFinancialRequest  = 0x200
	MTIFinancialResponse = 0x210
	MTIValidationFailure = 0x231
	MTIReversalRequest   = 0x420
	MTIReversalResponse  = 0x430
	MTINetworkRequest    = 0x800
	MTINetworkResponse   = 0x810
)

// ResponseMTI returns the response indicator for a request MTI.
func ResponseMTI(mti int) int {
	return mti + 0x10
}

// ParseMTI converts a 4-digit indicator such as "0200" into its hex-nibble
// integer form.
func ParseMTI(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("mti must be 4 digits, got %q", s)
	}
	mti := 0
	for i := 0; i < 4; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("mti must be 4 digits, got %q", s)
		}
		mti = mti<<4 | int(c-'0')
	}
	return mti, nil
}

// FormatMTI renders a hex-nibble MTI back to its 4-digit wire form.
func FormatMTI(mti int) string {
	return fmt.Sprintf("%04x", mti)
}

// Message is a sparse ISO-8583 message: an MTI plus a mapping from field
// number to typed value. A composite field 127 holds a nested Message with
// MTI zero.
type Message struct {
	mti    int
	fields map[int]*Value
}

// NewMessage returns an empty message with the given MTI.
func NewMessage(mti int) *Message {
	return &Message{mti: mti, fields: make(map[int]*Value)}
}

// MTI returns the message type indicator.
func (m *Message) MTI() int {
	return m.mti
}

// SetMTI replaces the message type indicator.
func (m *Message) SetMTI(mti int) {
	m.mti = mti
}

// Has reports whether field n is present.
func (m *Message) Has(n int) bool {
	_, ok := m.fields[n]
	return ok
}

// Field returns the value of field n, or nil when absent.
func (m *Message) Field(n int) *Value {
	return m.fields[n]
}

// Text returns the textual value of field n, or "" when absent.
func (m *Message) Text(n int) string {
	return m.fields[n].Text()
}

// SetField stores a value under field n. A nil value removes the field.
func (m *Message) SetField(n int, v *Value) {
	if v == nil {
		delete(m.fields, n)
		return
	}
	m.fields[n] = v
}

// Remove drops field n if present.
func (m *Message) Remove(n int) {
	delete(m.fields, n)
}

// Fields returns the present field numbers in ascending order.
func (m *Message) Fields() []int {
	out := make([]int, 0, len(m.fields))
	for n := range m.fields {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Clone returns a deep copy of the message, including any nested
// composite field.
func (m *Message) Clone() *Message {
	c := NewMessage(m.mti)
	for n, v := range m.fields {
		c.fields[n] = v.Clone()
	}
	return c
}
