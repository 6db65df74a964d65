package iso

import (
	"strings"
)

// Type identifies the wire encoding of a field value.
type Type int

const (
	// TypeAlpha is fixed-width text, space-padded on the right.
	TypeAlpha Type = iota
	// TypeNumeric is fixed-width digits, zero-padded on the left.
	TypeNumeric
	// TypeAmount is fixed-width digits carrying a minor-unit amount.
	TypeAmount
	// TypeDate10 is a 10-digit MMddHHmmss timestamp.
	TypeDate10
	// TypeDate4 is a 4-digit MMdd date.
	TypeDate4
	// TypeTime is a 6-digit HHmmss time.
	TypeTime
	// TypeLLVAR is variable text with a 2-digit length prefix.
	TypeLLVAR
	// TypeLLLVAR is variable text with a 3-digit length prefix.
	TypeLLLVAR
	// TypeLLLLVAR is variable text with a 4-digit length prefix.
	TypeLLLLVAR
	// TypeBinary is fixed-width raw bytes.
	TypeBinary
	// TypeLLBIN is variable raw bytes with a 2-digit length prefix.
	TypeLLBIN
	// TypeLLLBIN is variable raw bytes with a 3-digit length prefix.
	TypeLLLBIN
)

// String returns the conventional name of the type.
func (t Type) String() string {
	switch t {
	case TypeAlpha:
		return "ALPHA"
	case TypeNumeric:
		return "NUMERIC"
	case TypeAmount:
		return "AMOUNT"
	case TypeDate10:
		return "DATE10"
	case TypeDate4:
		return "DATE4"
	case TypeTime:
		return "TIME"
	case TypeLLVAR:
		return "LLVAR"
	case TypeLLLVAR:
		return "LLLVAR"
	case TypeLLLLVAR:
		return "LLLLVAR"
	case TypeBinary:
		return "BINARY"
	case TypeLLBIN:
		return "LLBIN"
	case TypeLLLBIN:
		return "LLLBIN"
	}
	return "UNKNOWN"
}

// Variable reports whether the type carries a decimal length prefix.
func (t Type) Variable() bool {
	switch t {
	case TypeLLVAR, TypeLLLVAR, TypeLLLLVAR, TypeLLBIN, TypeLLLBIN:
		return true
	}
	return false
}

// Binary reports whether the type carries raw bytes rather than text.
func (t Type) Binary() bool {
	switch t {
	case TypeBinary, TypeLLBIN, TypeLLLBIN:
		return true
	}
	return false
}

// prefixDigits returns the width of the decimal length prefix, or 0 for
// fixed types.
func (t Type) prefixDigits() int {
	switch t {
	case TypeLLVAR, TypeLLBIN:
		return 2
	case TypeLLLVAR, TypeLLLBIN:
		return 3
	case TypeLLLLVAR:
		return 4
	}
	return 0
}

// maxLength returns the largest value length the prefix can express, or 0
// for fixed types.
func (t Type) maxLength() int {
	switch t.prefixDigits() {
	case 2:
		return 99
	case 3:
		return 999
	case 4:
		return 9999
	}
	return 0
}

// FieldSpec describes one field slot in a dictionary: its wire type and,
// for fixed types, its exact width. Variable types leave Length zero; the
// prefix carries the actual length.
type FieldSpec struct {
	Type   Type
	Length int
}

// Value is one typed field value. Text types keep their rendered string,
// binary types raw bytes, and a composite field a nested bitmap message.
type Value struct {
	Type   Type
	Length int

	str string
	bin []byte
	sub *Message
}

// NewText builds a fixed-width text value. The width is the declared field
// width; padding and truncation happen at encode time.
func NewText(t Type, s string, width int) *Value {
	return &Value{Type: t, Length: width, str: s}
}

// NewVar builds a variable-length text value.
func NewVar(t Type, s string) *Value {
	return &Value{Type: t, Length: len(s), str: s}
}

// NewBinary builds a fixed-width binary value.
func NewBinary(t Type, b []byte, width int) *Value {
	return &Value{Type: t, Length: width, bin: append([]byte(nil), b...)}
}

// NewVarBinary builds a variable-length binary value.
func NewVarBinary(t Type, b []byte) *Value {
	return &Value{Type: t, Length: len(b), bin: append([]byte(nil), b...)}
}

// NewComposite wraps a nested bitmap message as an LLLVAR field value.
func NewComposite(sub *Message) *Value {
	return &Value{Type: TypeLLLVAR, sub: sub}
}

// Text returns the textual value, or "" for binary and composite values.
func (v *Value) Text() string {
	if v == nil {
		return ""
	}
	return v.str
}

// Bytes returns the raw bytes of a binary value, or the UTF-8 bytes of a
// text value.
func (v *Value) Bytes() []byte {
	if v == nil {
		return nil
	}
	if v.Type.Binary() {
		return v.bin
	}
	return []byte(v.str)
}

// Composite returns the nested message of a composite value, or nil.
func (v *Value) Composite() *Message {
	if v == nil {
		return nil
	}
	return v.sub
}

// Empty reports whether the value carries no usable data. Text counts as
// empty when blank after trimming, binary when zero bytes long, composite
// when the nested message has no fields.
func (v *Value) Empty() bool {
	if v == nil {
		return true
	}
	if v.sub != nil {
		return len(v.sub.Fields()) == 0
	}
	if v.Type.Binary() {
		return len(v.bin) == 0
	}
	return strings.TrimSpace(v.str) == ""
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := &Value{Type: v.Type, Length: v.Length, str: v.str}
	if v.bin != nil {
		c.bin = append([]byte(nil), v.bin...)
	}
	if v.sub != nil {
		c.sub = v.sub.Clone()
	}
	return c
}
