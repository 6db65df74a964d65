// Package translate converts between the ISO-8583 dialect the ATM switch
// speaks and the JSON documents the ESB consumes. Request translation
// flattens fields into named JSON members; reply translation rebuilds
// response fields under the dictionary's typing rules.
package translate

import (
	"strings"

	"github.com/pridebank/atmgw/internal/iso"
)

// Translator converts in both directions under one dictionary.
type Translator struct {
	dict *iso.Dictionary
}

func NewTranslator(dict *iso.Dictionary) *Translator {
	return &Translator{dict: dict}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
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
