package translate

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pridebank/atmgw/internal/esb"
	"github.com/pridebank/atmgw/internal/iso"
)

// consumedFields have a named JSON member; everything else travels in
// rawFields.
var consumedFields = map[int]bool{
	2: true, 3: true, 4: true, 7: true, 11: true, 12: true, 13: true,
	32: true, 37: true, 38: true, 39: true, 41: true, 42: true, 43: true,
	44: true, 49: true, 54: true, 55: true, 62: true, 64: true,
	102: true, 123: true, 127: true,
}

// TransactionType maps a processing code onto the ESB transaction type by
// its first two digits.
func TransactionType(processingCode string) string {
	if len(processingCode) < 2 {
		return esb.TypeOther
	}
	switch processingCode[:2] {
	case "00":
		return esb.TypePurchase
	case "01":
		return esb.TypeWithdrawal
	case "02", "21":
		return esb.TypeDeposit
	case "03":
		return esb.TypeTransfer
	case "31":
		return esb.TypeBalanceInquiry
	case "32", "38":
		return esb.TypeMiniStatement
	}
	return esb.TypeOther
}

// IsMiniStatement reports whether the request asks for a statement, which
// routes printable data to field 48 instead of 62 on the way back.
func IsMiniStatement(req *iso.Message) bool {
	pc := strings.TrimSpace(req.Text(3))
	return strings.HasPrefix(pc, "32") || strings.HasPrefix(pc, "38")
}

// MaskPAN hides the middle of a card number, keeping the issuer prefix and
// the last four digits. Anything shorter than a real PAN masks fully.
func MaskPAN(pan string) string {
	if len(pan) < 13 {
		return "****"
	}
	return pan[:6] + "******" + pan[len(pan)-4:]
}

// ExpandTransmissionTime turns the MMDDhhmmss transmission stamp into an
// ISO-8601 timestamp in the current year. Anything not ten digits passes
// through untouched.
func ExpandTransmissionTime(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if len(raw) != 10 || !isDigits(raw) {
		return raw
	}
	ts, err := time.Parse("0102150405", raw)
	if err != nil {
		return raw
	}
	ts = time.Date(now.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, time.UTC)
	return ts.Format("2006-01-02T15:04:05")
}

// ToRequest flattens a financial request into the ESB document. The card
// number is masked; the full PAN rides as accountNumber for account
// resolution on the bus.
func (t *Translator) ToRequest(req *iso.Message) *esb.TransactionRequest {
	out := &esb.TransactionRequest{
		MessageType: iso.FormatMTI(req.MTI()),
	}

	if pan := strings.TrimSpace(req.Text(2)); pan != "" {
		out.CardNumber = MaskPAN(pan)
		out.AccountNumber = pan
	}
	if pc := strings.TrimSpace(req.Text(3)); pc != "" {
		out.ProcessingCode = pc
		out.TransactionType = TransactionType(pc)
	}
	if raw := strings.TrimSpace(req.Text(4)); raw != "" {
		out.AmountMinor = raw
		if minor, err := decimal.NewFromString(raw); err == nil {
			major := minor.Shift(-2)
			out.Amount = &major
			out.AmountValue = &major
		}
	}
	if ts := strings.TrimSpace(req.Text(7)); ts != "" {
		out.TransmissionDateTime = ExpandTransmissionTime(ts, time.Now())
	}

	out.STAN = strings.TrimSpace(req.Text(11))
	out.TimeLocal = strings.TrimSpace(req.Text(12))
	out.DateLocal = strings.TrimSpace(req.Text(13))
	out.AcquiringInstitutionID = strings.TrimSpace(req.Text(32))
	out.RRN = strings.TrimSpace(req.Text(37))
	out.AuthorizationCode = strings.TrimSpace(req.Text(38))
	out.ResponseCode = strings.TrimSpace(req.Text(39))
	out.TerminalID = strings.TrimSpace(req.Text(41))
	out.MerchantID = strings.TrimSpace(req.Text(42))
	out.MerchantInfo = strings.TrimSpace(req.Text(43))
	out.AdditionalResponseData = strings.TrimSpace(req.Text(44))
	out.CurrencyCode = strings.TrimSpace(req.Text(49))
	out.BalanceData = strings.TrimSpace(req.Text(54))
	out.MiniStatement = strings.TrimSpace(req.Text(62))
	out.FromAccount = strings.TrimSpace(req.Text(102))
	out.PrivateData = strings.TrimSpace(req.Text(123))

	if v := req.Field(55); !v.Empty() {
		out.EMVDataBase64 = base64.StdEncoding.EncodeToString(v.Bytes())
	}
	if v := req.Field(64); !v.Empty() {
		out.MACBase64 = base64.StdEncoding.EncodeToString(v.Bytes())
	}

	out.RawFields = requestRawFields(req)
	return out
}

// requestRawFields collects fields without a named member, binary values
// base64-encoded and 127 subfields under dotted keys.
func requestRawFields(req *iso.Message) map[string]string {
	var out map[string]string
	put := func(k, v string) {
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}

	for _, n := range req.Fields() {
		if consumedFields[n] {
			continue
		}
		v := req.Field(n)
		if v.Empty() {
			continue
		}
		if v.Type.Binary() {
			put(strconv.Itoa(n), base64.StdEncoding.EncodeToString(v.Bytes()))
			continue
		}
		put(strconv.Itoa(n), v.Text())
	}

	if sub := req.Field(127).Composite(); sub != nil {
		for _, n := range sub.Fields() {
			v := sub.Field(n)
			if v.Empty() {
				continue
			}
			put(fmt.Sprintf("127.%d", n), v.Text())
		}
	}
	return out
}
