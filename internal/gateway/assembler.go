package gateway

import (
	"sort"
	"strings"

	"github.com/pridebank/atmgw/internal/iso"
)

// forbiddenSubfields lists the composite-127 members that must never be
// echoed back to the switch.
var forbiddenSubfields = []int{22, 25}

// sanitizeCaps maps account-bearing fields to the longest digits-only
// value the switch accepts. Track data (35, 70 block) is exempt.
var sanitizeCaps = map[int]int{
	2:   19,
	32:  11,
	33:  11,
	99:  11,
	100: 11,
	101: 17,
	102: 28,
	103: 17,
	104: 999,
}

// Assemble builds a response of the given MTI from three value tiers: the
// inbound request, the converted host reply, and the dictionary template.
// Only fields in allowed are emitted. Request and reply contribute by
// first non-empty value; the template contributes by presence, blanks
// included, which keeps declined responses on the exact field set the
// switch expects even when the host reply is thin.
func Assemble(mti int, allowed map[int]bool, request, reply, template *iso.Message) *iso.Message {
	out := iso.NewMessage(mti)

	fields := make([]int, 0, len(allowed))
	for n := range allowed {
		fields = append(fields, n)
	}
	sort.Ints(fields)

	for _, n := range fields {
		v := pick(n, request, reply)
		if v == nil && template != nil && template.Has(n) {
			v = template.Field(n)
		}
		if v == nil {
			continue
		}
		out.SetField(n, prepared(n, v))
	}

	sanitize(out)
	return out
}

// pick returns the first non-empty value for field n, request first.
func pick(n int, request, reply *iso.Message) *iso.Value {
	for _, src := range []*iso.Message{request, reply} {
		if src == nil {
			continue
		}
		if v := src.Field(n); !v.Empty() {
			return v
		}
	}
	return nil
}

// prepared clones a source value into the response, dropping the
// forbidden subfields from a composite 127 on the way.
func prepared(n int, v *iso.Value) *iso.Value {
	c := v.Clone()
	if n == 127 {
		if sub := c.Composite(); sub != nil {
			for _, f := range forbiddenSubfields {
				sub.Remove(f)
			}
		}
	}
	return c
}

// sanitize rewrites the capped text fields to digits only, truncated to
// the cap. A value with no digits at all becomes "0".
func sanitize(out *iso.Message) {
	for n, max := range sanitizeCaps {
		v := out.Field(n)
		if v == nil || v.Type.Binary() || v.Composite() != nil {
			continue
		}
		digits := digitsOnly(v.Text())
		if digits == "" {
			digits = "0"
		}
		if len(digits) > max {
			digits = digits[:max]
		}
		out.SetField(n, iso.NewVar(v.Type, digits))
	}
}

// typedValue types a bare string for a response slot. Code-style fields
// ride fixed ALPHA at their natural width, printable data blobs LLLVAR,
// everything else LLVAR.
func typedValue(field int, s string) *iso.Value {
	switch field {
	case 11, 37, 38, 39:
		return iso.NewText(iso.TypeAlpha, s, len(s))
	case 48, 54:
		return iso.NewVar(iso.TypeLLLVAR, s)
	}
	return iso.NewVar(iso.TypeLLVAR, s)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
