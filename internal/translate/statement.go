package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	maxStatementRecords = 10
	maxStatementBytes   = 999
)

var statementDateLayouts = []string{
	"02/01/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// renderStatement flattens statement records into the text the ATM
// prints: date, 12-digit absolute minor amount, currency with the cash
// marker and sign, then the currency again, one tilde-terminated segment
// per entry.
func renderStatement(records []map[string]interface{}, currency string) string {
	var b strings.Builder
	for i, rec := range records {
		if i == maxStatementRecords {
			break
		}
		b.WriteString(renderRecord(rec, currency))
	}
	return truncate(b.String(), maxStatementBytes)
}

func renderRecord(rec map[string]interface{}, currency string) string {
	amount := recordAmount(rec)
	sign := byte('C')
	if amount.IsNegative() {
		sign = 'D'
	} else if kind := cast.ToString(firstOf(rec, "type", "drCr", "sign")); kind != "" {
		if kind[0] == 'd' || kind[0] == 'D' {
			sign = 'D'
		}
	}

	ccy := digitsOnly(cast.ToString(rec["currency"]))
	if ccy == "" {
		ccy = currency
	} else {
		ccy = pad3(ccy)
	}

	minor := amount.Abs().Shift(2).Round(0)
	return fmt.Sprintf("%s|%012d|%s CSH %c|%s~", recordDate(rec), minor.IntPart(), ccy, sign, ccy)
}

func recordAmount(rec map[string]interface{}) decimal.Decimal {
	raw := strings.TrimSpace(cast.ToString(firstOf(rec, "amount", "value")))
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// recordDate renders the entry date as a 14-digit stamp. Digit strings
// pass through padded; anything else tries the known layouts.
func recordDate(rec map[string]interface{}) string {
	raw := strings.TrimSpace(cast.ToString(firstOf(rec, "date", "transactionDate", "tranDate")))
	if raw == "" {
		return strings.Repeat("0", 14)
	}
	if isDigits(raw) {
		if len(raw) > 14 {
			return raw[:14]
		}
		return raw + strings.Repeat("0", 14-len(raw))
	}
	for _, layout := range statementDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("20060102150405")
		}
	}
	return strings.Repeat("0", 14)
}

func firstOf(rec map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
