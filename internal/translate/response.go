package translate

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pridebank/atmgw/internal/esb"
	"github.com/pridebank/atmgw/internal/iso"
)

// NormalizeResponseCode maps an ESB outcome onto the two-digit code the
// ATM understands. Two-digit codes pass through verbatim; anything the
// table does not know declines as 96.
func NormalizeResponseCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == 2 && isDigits(code) {
		return code
	}
	switch strings.ToUpper(code) {
	case "OK", "SUCCESS", "APPROVED", "APPROVAL":
		return "00"
	case "INSUFFICIENT_FUNDS", "INSUFFICIENT FUNDS", "NOT_ENOUGH_FUNDS":
		return "51"
	case "INVALID_ACCOUNT", "ACCOUNT_NOT_FOUND", "NO_ACCOUNT":
		return "14"
	case "EXCEEDS_LIMIT", "LIMIT_EXCEEDED":
		return "61"
	case "AUTH_FAILED", "DECLINED":
		return "05"
	case "DUPLICATE":
		return "94"
	case "TIMEOUT", "UNAVAILABLE", "SERVICE_UNAVAILABLE":
		return "96"
	}
	return "96"
}

// SystemError reports whether the reply is unusable for a normal response:
// the ESB said so outright, or its code normalizes to 96.
func SystemError(reply *esb.TransactionResponse) bool {
	raw := strings.TrimSpace(reply.ResponseCode)
	return strings.EqualFold(raw, esb.CodeSystemError) || NormalizeResponseCode(raw) == "96"
}

// ToISO rebuilds response fields from the ESB reply. The result is a bare
// conversion keyed to requestMTI+0x10; merging against the request and the
// dictionary template happens in the gateway assembler.
func (t *Translator) ToISO(reply *esb.TransactionResponse, req *iso.Message) *iso.Message {
	out := iso.NewMessage(iso.ResponseMTI(req.MTI()))

	if code := strings.TrimSpace(reply.ResponseCode); code != "" {
		out.SetField(39, iso.NewText(iso.TypeAlpha, NormalizeResponseCode(code), 2))
	}
	if id := strings.TrimSpace(reply.TransactionID); id != "" {
		out.SetField(37, iso.NewText(iso.TypeAlpha, truncate(id, 12), 12))
	}
	if stan := digitsOnly(reply.STAN); stan != "" {
		if len(stan) > 6 {
			stan = stan[len(stan)-6:]
		}
		out.SetField(11, iso.NewText(iso.TypeNumeric, strings.Repeat("0", 6-len(stan))+stan, 6))
	}
	if minor := replyAmountMinor(reply); minor != "" {
		if len(minor) > 12 {
			minor = minor[len(minor)-12:]
		}
		out.SetField(4, iso.NewText(iso.TypeAmount, strings.Repeat("0", 12-len(minor))+minor, 12))
	}
	if ccy := strings.TrimSpace(reply.Currency); ccy != "" {
		if isDigits(ccy) {
			out.SetField(49, iso.NewText(iso.TypeNumeric, ccy, 3))
		} else {
			out.SetField(49, iso.NewText(iso.TypeAlpha, truncate(ccy, 3), 3))
		}
	}
	if reply.AvailableBalance != nil || reply.LedgerBalance != nil {
		out.SetField(54, iso.NewVar(iso.TypeLLLVAR, balanceData(reply, req)))
	}
	if text := statementText(reply, req); text != "" {
		field := 62
		if IsMiniStatement(req) {
			field = 48
		}
		out.SetField(field, iso.NewVar(iso.TypeLLLVAR, text))
	}
	if msg := strings.TrimSpace(reply.Message); msg != "" {
		out.SetField(44, iso.NewVar(iso.TypeLLVAR, truncate(msg, 25)))
	}
	if code := authCode(reply); code != "" {
		out.SetField(38, iso.NewText(iso.TypeAlpha, fmt.Sprintf("%-6s", truncate(code, 6)), 6))
	}
	if reply.MACBase64 != "" {
		// A MAC that does not decode is dropped rather than guessed.
		if mac, err := base64.StdEncoding.DecodeString(reply.MACBase64); err == nil {
			if len(mac) > 8 {
				mac = mac[:8]
			}
			out.SetField(64, iso.NewBinary(iso.TypeBinary, mac, 8))
		}
	}
	if acct := strings.TrimSpace(reply.FromAccount); acct != "" {
		out.SetField(102, iso.NewVar(iso.TypeLLVAR, truncate(acct, 28)))
	}
	if acct := strings.TrimSpace(reply.ToAccount); acct != "" {
		out.SetField(103, iso.NewVar(iso.TypeLLVAR, truncate(acct, 28)))
	}

	t.applyRawFields(out, reply.RawFields)
	return out
}

func authCode(reply *esb.TransactionResponse) string {
	if code := strings.TrimSpace(reply.AuthorizationCode); code != "" {
		return code
	}
	return strings.TrimSpace(reply.ApprovalCode)
}

func replyAmountMinor(reply *esb.TransactionResponse) string {
	if d := digitsOnly(reply.AmountMinor); d != "" {
		return d
	}
	if reply.Amount != nil {
		return digitsOnly(reply.Amount.Shift(2).Round(0).String())
	}
	return ""
}

// balanceData renders field 54: a ledger segment then an available
// segment, twenty characters each. A single present balance is mirrored
// into the missing one.
func balanceData(reply *esb.TransactionResponse, req *iso.Message) string {
	ledger := reply.LedgerBalance
	available := reply.AvailableBalance
	if ledger == nil {
		ledger = available
	}
	if available == nil {
		available = ledger
	}
	ccy := balanceCurrency(reply, req)
	return balanceSegment("01", ccy, *ledger) + balanceSegment("02", ccy, *available)
}

func balanceSegment(kind, ccy string, amount decimal.Decimal) string {
	sign := "C"
	if amount.IsNegative() {
		sign = "D"
	}
	minor := amount.Abs().Shift(2).Round(0)
	return "00" + kind + ccy + sign + fmt.Sprintf("%012d", minor.IntPart())
}

func balanceCurrency(reply *esb.TransactionResponse, req *iso.Message) string {
	if ccy := digitsOnly(reply.Currency); ccy != "" {
		return pad3(ccy)
	}
	if ccy := digitsOnly(req.Text(49)); ccy != "" {
		return pad3(ccy)
	}
	return "800"
}

func pad3(s string) string {
	if len(s) >= 3 {
		return s[:3]
	}
	return strings.Repeat("0", 3-len(s)) + s
}

func statementText(reply *esb.TransactionResponse, req *iso.Message) string {
	if text := reply.MiniStatementText; text != "" {
		return truncate(text, maxStatementBytes)
	}
	if len(reply.MiniStatement) == 0 {
		return ""
	}
	return renderStatement(reply.MiniStatement, balanceCurrency(reply, req))
}

// applyRawFields lays extra reply fields into the message. Simple keys
// name a field number; dotted keys group into one JSON object serialized
// into the parent field. Fields already populated win.
func (t *Translator) applyRawFields(out *iso.Message, raw map[string]string) {
	if len(raw) == 0 {
		return
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grouped := map[int]map[string]string{}
	for _, k := range keys {
		value := raw[k]
		if field, sub, ok := splitDottedKey(k); ok {
			g := grouped[field]
			if g == nil {
				g = map[string]string{}
				grouped[field] = g
			}
			g[sub] = value
			continue
		}
		field, err := strconv.Atoi(k)
		if err != nil || field < 2 || field > 128 || out.Has(field) {
			continue
		}
		t.setRawField(out, field, value)
	}

	for field, members := range grouped {
		if out.Has(field) || field < 2 || field > 128 {
			continue
		}
		blob, err := json.Marshal(members)
		if err != nil {
			continue
		}
		out.SetField(field, iso.NewVar(iso.TypeLLLVAR, string(blob)))
	}
}

func (t *Translator) setRawField(out *iso.Message, field int, value string) {
	if field == 64 {
		if mac, err := base64.StdEncoding.DecodeString(value); err == nil {
			if len(mac) > 8 {
				mac = mac[:8]
			}
			out.SetField(64, iso.NewBinary(iso.TypeBinary, mac, 8))
		}
		return
	}
	if spec, ok := t.dict.Spec(out.MTI(), field); ok {
		switch {
		case spec.Type.Variable() && !spec.Type.Binary():
			out.SetField(field, iso.NewVar(spec.Type, value))
		case !spec.Type.Binary():
			out.SetField(field, iso.NewText(spec.Type, value, spec.Length))
		}
		return
	}
	out.SetField(field, iso.NewVar(iso.TypeLLLVAR, value))
}

func splitDottedKey(k string) (field int, sub string, ok bool) {
	i := strings.IndexByte(k, '.')
	if i <= 0 || i == len(k)-1 {
		return 0, "", false
	}
	n, err := strconv.Atoi(k[:i])
	if err != nil {
		return 0, "", false
	}
	return n, k[i+1:], true
}
