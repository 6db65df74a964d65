package iso

import (
	"strings"
	"time"
)

// Dictionary holds the field table for every supported MTI, the sub-table
// for composite field 127, and the default-value templates responses are
// seeded from.
type Dictionary struct {
	tables    map[int]map[int]FieldSpec
	sub       map[int]FieldSpec
	templates map[int]*Message
}

// NewDictionary builds the gateway dialect: the full financial field table
// for MTIs 0200/0210/0231/0420/0430, the short network table for 0800/0810,
// and an all-LLVAR sub-table for the subfields of composite field 127.
func NewDictionary() *Dictionary {
	fin := financialTable()
	net := networkTable()

	d := &Dictionary{
		tables: map[int]map[int]FieldSpec{
			MTIFinancialRequest:  fin,
			MTIFinancialResponse: fin,
			MTIValidationFailure: fin,
			MTIReversalRequest:   fin,
			MTIReversalResponse:  fin,
			MTINetworkRequest:    net,
			MTINetworkResponse:   net,
		},
		sub:       subTable(),
		templates: make(map[int]*Message),
	}
	for mti := range d.tables {
		d.templates[mti] = baseTemplate(mti)
	}
	return d
}

// Defined reports whether the dictionary knows the MTI.
func (d *Dictionary) Defined(mti int) bool {
	_, ok := d.tables[mti]
	return ok
}

// Spec returns the field spec for a field of the given MTI.
func (d *Dictionary) Spec(mti, field int) (FieldSpec, bool) {
	t, ok := d.tables[mti]
	if !ok {
		return FieldSpec{}, false
	}
	s, ok := t[field]
	return s, ok
}

// SubSpec returns the spec for a subfield of composite field 127.
func (d *Dictionary) SubSpec(field int) (FieldSpec, bool) {
	s, ok := d.sub[field]
	return s, ok
}

// Template returns a fresh copy of the default-value template for the MTI,
// or nil when the MTI is not defined.
func (d *Dictionary) Template(mti int) *Message {
	t, ok := d.templates[mti]
	if !ok {
		return nil
	}
	return t.Clone()
}

func financialTable() map[int]FieldSpec {
	t := map[int]FieldSpec{
		2: {TypeLLVAR, 0},
		3: {TypeNumeric, 6},
		4: {TypeNumeric, 12},
		5: {TypeNumeric, 12},
		6: {TypeNumeric, 12},
		7: {TypeDate10, 10},

		8:  {TypeNumeric, 8},
		9:  {TypeNumeric, 8},
		10: {TypeNumeric, 8},
		11: {TypeNumeric, 6},
		12: {TypeNumeric, 6},
		13: {TypeNumeric, 4},
		14: {TypeNumeric, 4},
		15: {TypeNumeric, 4},
		16: {TypeNumeric, 4},
		17: {TypeNumeric, 4},
		18: {TypeNumeric, 4},
		19: {TypeNumeric, 3},
		20: {TypeNumeric, 3},
		21: {TypeNumeric, 3},
		22: {TypeNumeric, 3},
		23: {TypeNumeric, 3},
		24: {TypeNumeric, 3},
		25: {TypeNumeric, 2},
		26: {TypeNumeric, 2},
		27: {TypeNumeric, 1},

		28: {TypeAlpha, 9},
		29: {TypeAlpha, 9},
		30: {TypeAlpha, 9},
		31: {TypeAlpha, 9},

		32: {TypeLLVAR, 0},
		33: {TypeLLVAR, 0},
		34: {TypeLLVAR, 0},
		35: {TypeLLVAR, 0},
		36: {TypeLLLVAR, 0},
		37: {TypeAlpha, 12},
		38: {TypeAlpha, 6},
		39: {TypeAlpha, 2},
		40: {TypeAlpha, 3},
		41: {TypeAlpha, 8},
		42: {TypeAlpha, 15},
		43: {TypeAlpha, 40},
		44: {TypeLLVAR, 0},
		45: {TypeLLVAR, 0},
		46: {TypeLLLVAR, 0},
		47: {TypeLLLVAR, 0},
		48: {TypeLLLVAR, 0},
		49: {TypeNumeric, 3},
		50: {TypeNumeric, 3},
		51: {TypeNumeric, 3},
		52: {TypeBinary, 8},
		53: {TypeBinary, 48},
		54: {TypeLLLVAR, 0},
		55: {TypeLLLVAR, 0},
		56: {TypeLLLVAR, 0},
		57: {TypeLLLVAR, 0},
		58: {TypeLLLVAR, 0},
		59: {TypeLLLVAR, 0},
		60: {TypeLLLVAR, 0},
		61: {TypeLLLVAR, 0},
		62: {TypeLLLVAR, 0},
		63: {TypeLLLVAR, 0},
		64: {TypeBinary, 8},

		70: {TypeNumeric, 3},
		71: {TypeNumeric, 4},
		72: {TypeNumeric, 4},
		73: {TypeNumeric, 6},
		74: {TypeNumeric, 10},
		75: {TypeNumeric, 10},
		76: {TypeNumeric, 10},
		77: {TypeNumeric, 10},
		78: {TypeNumeric, 10},
		79: {TypeNumeric, 10},
		80: {TypeNumeric, 10},
		81: {TypeNumeric, 10},
		82: {TypeNumeric, 12},
		83: {TypeNumeric, 12},
		84: {TypeNumeric, 12},
		85: {TypeNumeric, 12},
		86: {TypeNumeric, 16},
		87: {TypeNumeric, 16},
		88: {TypeNumeric, 16},
		89: {TypeNumeric, 16},
		90: {TypeLLVAR, 0},
		91: {TypeAlpha, 1},
		92: {TypeAlpha, 2},
		93: {TypeAlpha, 6},
		94: {TypeAlpha, 7},
		95: {TypeAlpha, 42},
		96: {TypeBinary, 16},
		97: {TypeNumeric, 17},
		98: {TypeAlpha, 25},

		99:  {TypeLLVAR, 0},
		100: {TypeLLVAR, 0},
		101: {TypeLLVAR, 0},
		102: {TypeLLVAR, 0},
		103: {TypeLLVAR, 0},
		104: {TypeLLLVAR, 0},

		120: {TypeLLLVAR, 0},
		121: {TypeLLLVAR, 0},
		122: {TypeLLLVAR, 0},
		123: {TypeLLLVAR, 0},
		124: {TypeLLLVAR, 0},
		125: {TypeLLLVAR, 0},
		126: {TypeLLLVAR, 0},
		127: {TypeLLLVAR, 0},
		128: {TypeBinary, 8},
	}
	return t
}

func networkTable() map[int]FieldSpec {
	return map[int]FieldSpec{
		7:  {TypeDate10, 10},
		11: {TypeNumeric, 6},
		12: {TypeNumeric, 6},
		13: {TypeNumeric, 4},
		39: {TypeAlpha, 2},
		70: {TypeNumeric, 3},
	}
}

// subTable covers the subfields a composite 127 may carry. Every slot is
// LLVAR; subfield 1 is the nested bitmap indicator and never appears here.
func subTable() map[int]FieldSpec {
	t := make(map[int]FieldSpec, 127)
	for n := 2; n <= 128; n++ {
		t[n] = FieldSpec{TypeLLVAR, 0}
	}
	return t
}

// baseTemplate seeds the default values a response may fall back to when
// neither the request nor the host reply carries a field. All MTIs share
// the same base.
func baseTemplate(mti int) *Message {
	m := NewMessage(mti)

	m.SetField(2, NewVar(TypeLLVAR, ""))
	m.SetField(3, NewText(TypeNumeric, "000000", 6))
	m.SetField(4, NewText(TypeNumeric, "000000000000", 12))
	m.SetField(5, NewText(TypeNumeric, "000000000000", 12))
	m.SetField(6, NewText(TypeNumeric, "000000000000", 12))
	m.SetField(7, NewText(TypeDate10, time.Now().Format("0102150405"), 10))
	m.SetField(8, NewText(TypeNumeric, "0", 8))
	m.SetField(9, NewText(TypeNumeric, "0", 8))
	m.SetField(10, NewText(TypeNumeric, "0", 8))
	m.SetField(11, NewText(TypeNumeric, "000000", 6))
	m.SetField(12, NewText(TypeNumeric, "000000", 6))
	m.SetField(13, NewText(TypeNumeric, "0000", 4))
	for n := 14; n <= 18; n++ {
		m.SetField(n, NewText(TypeNumeric, "0000", 4))
	}
	for n := 19; n <= 24; n++ {
		m.SetField(n, NewText(TypeNumeric, "000", 3))
	}
	m.SetField(25, NewText(TypeNumeric, "00", 2))
	m.SetField(26, NewText(TypeNumeric, "00", 2))
	m.SetField(27, NewText(TypeNumeric, "0", 1))
	for n := 28; n <= 31; n++ {
		m.SetField(n, NewText(TypeAlpha, "C00000000", 9))
	}
	for n := 32; n <= 35; n++ {
		m.SetField(n, NewVar(TypeLLVAR, ""))
	}
	m.SetField(36, NewVar(TypeLLLVAR, ""))
	m.SetField(37, NewText(TypeAlpha, "", 12))
	m.SetField(38, NewText(TypeAlpha, strings.Repeat(" ", 6), 6))
	m.SetField(39, NewText(TypeAlpha, "00", 2))
	m.SetField(40, NewText(TypeAlpha, "000", 3))
	m.SetField(41, NewText(TypeAlpha, strings.Repeat(" ", 8), 8))
	m.SetField(42, NewText(TypeAlpha, "", 15))
	m.SetField(43, NewText(TypeAlpha, "", 40))
	m.SetField(44, NewVar(TypeLLVAR, ""))
	m.SetField(45, NewVar(TypeLLVAR, ""))
	m.SetField(46, NewVar(TypeLLLVAR, ""))
	m.SetField(47, NewVar(TypeLLLVAR, ""))
	m.SetField(48, NewVar(TypeLLLVAR, ""))
	m.SetField(49, NewText(TypeNumeric, "800", 3))
	m.SetField(50, NewText(TypeNumeric, "000", 3))
	m.SetField(51, NewText(TypeNumeric, "000", 3))
	m.SetField(52, NewBinary(TypeBinary, make([]byte, 8), 8))
	m.SetField(53, NewBinary(TypeBinary, make([]byte, 48), 48))
	for n := 54; n <= 63; n++ {
		m.SetField(n, NewVar(TypeLLLVAR, ""))
	}
	m.SetField(64, NewBinary(TypeBinary, make([]byte, 8), 8))
	m.SetField(70, NewText(TypeNumeric, "000", 3))
	m.SetField(71, NewText(TypeNumeric, "0", 4))
	m.SetField(72, NewText(TypeNumeric, "0", 4))
	m.SetField(73, NewText(TypeNumeric, "0", 6))
	for n := 74; n <= 81; n++ {
		m.SetField(n, NewText(TypeNumeric, "0", 10))
	}
	for n := 82; n <= 85; n++ {
		m.SetField(n, NewText(TypeNumeric, "0", 12))
	}
	for n := 86; n <= 89; n++ {
		m.SetField(n, NewText(TypeNumeric, "0", 16))
	}
	m.SetField(90, NewVar(TypeLLVAR, ""))
	m.SetField(91, NewText(TypeAlpha, " ", 1))
	m.SetField(92, NewText(TypeAlpha, "  ", 2))
	m.SetField(93, NewText(TypeAlpha, strings.Repeat(" ", 6), 6))
	m.SetField(94, NewText(TypeAlpha, strings.Repeat(" ", 7), 7))
	m.SetField(95, NewText(TypeAlpha, "", 42))
	m.SetField(96, NewBinary(TypeBinary, make([]byte, 16), 16))
	m.SetField(97, NewText(TypeNumeric, "0", 17))
	m.SetField(98, NewText(TypeAlpha, "", 25))
	for n := 99; n <= 103; n++ {
		m.SetField(n, NewVar(TypeLLVAR, ""))
	}
	m.SetField(104, NewVar(TypeLLLVAR, ""))
	for n := 120; n <= 127; n++ {
		m.SetField(n, NewVar(TypeLLLVAR, ""))
	}
	m.SetField(128, NewBinary(TypeBinary, make([]byte, 8), 8))

	return m
}
