package translate

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pridebank/atmgw/internal/esb"
	"github.com/pridebank/atmgw/internal/iso"
)

func financialRequest() *iso.Message {
	req := iso.NewMessage(iso.MTIFinancialRequest)
	req.SetField(2, iso.NewVar(iso.TypeLLVAR, "4761739001010119"))
	req.SetField(3, iso.NewText(iso.TypeNumeric, "011000", 6))
	req.SetField(4, iso.NewText(iso.TypeAmount, "000000050000", 12))
	req.SetField(7, iso.NewText(iso.TypeDate10, "0825143021", 10))
	req.SetField(11, iso.NewText(iso.TypeNumeric, "123456", 6))
	req.SetField(41, iso.NewText(iso.TypeAlpha, "ATM00001", 8))
	req.SetField(49, iso.NewText(iso.TypeNumeric, "800", 3))
	return req
}

func TestToRequestNamedMembers(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()
	req.SetField(37, iso.NewText(iso.TypeAlpha, "523614123456", 12))
	req.SetField(102, iso.NewVar(iso.TypeLLVAR, "0155001234567"))

	out := tr.ToRequest(req)

	assert.Equal(t, "0200", out.MessageType)
	assert.Equal(t, "476173******0119", out.CardNumber)
	assert.Equal(t, "4761739001010119", out.AccountNumber)
	assert.Equal(t, "011000", out.ProcessingCode)
	assert.Equal(t, esb.TypeWithdrawal, out.TransactionType)
	assert.Equal(t, "000000050000", out.AmountMinor)
	require.NotNil(t, out.Amount)
	assert.Equal(t, "500", out.Amount.String())
	assert.Equal(t, "123456", out.STAN)
	assert.Equal(t, "ATM00001", out.TerminalID)
	assert.Equal(t, "800", out.CurrencyCode)
	assert.Equal(t, "523614123456", out.RRN)
	assert.Equal(t, "0155001234567", out.FromAccount)

	want := fmt.Sprintf("%d-08-25T14:30:21", time.Now().Year())
	assert.Equal(t, want, out.TransmissionDateTime)
}

func TestMaskPAN(t *testing.T) {
	tests := []struct {
		pan  string
		want string
	}{
		{"4761739001010119", "476173******0119"},
		{"4761739001010", "476173******1010"},
		{"476173900101", "****"},
		{"", "****"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskPAN(tt.pan), "pan %q", tt.pan)
	}
}

func TestTransactionType(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"001000", esb.TypePurchase},
		{"011000", esb.TypeWithdrawal},
		{"021000", esb.TypeDeposit},
		{"211000", esb.TypeDeposit},
		{"031000", esb.TypeTransfer},
		{"311000", esb.TypeBalanceInquiry},
		{"321000", esb.TypeMiniStatement},
		{"381000", esb.TypeMiniStatement},
		{"991000", esb.TypeOther},
		{"0", esb.TypeOther},
		{"", esb.TypeOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TransactionType(tt.code), "code %q", tt.code)
	}
}

func TestExpandTransmissionTime(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ten_digits", "0825143021", "2026-08-25T14:30:21"},
		{"other_month", "0101000000", "2026-01-01T00:00:00"},
		{"already_iso", "2026-08-25T14:30:21", "2026-08-25T14:30:21"},
		{"wrong_width", "825143021", "825143021"},
		{"impossible_date", "0231120000", "0231120000"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandTransmissionTime(tt.in, now))
		})
	}
}

func TestToRequestRawFields(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()
	req.SetField(90, iso.NewVar(iso.TypeLLVAR, "0200123456082514302100"))
	req.SetField(52, iso.NewBinary(iso.TypeBinary, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 8))

	sub := iso.NewMessage(0)
	sub.SetField(2, iso.NewVar(iso.TypeLLVAR, "SWITCH-KEY"))
	sub.SetField(20, iso.NewVar(iso.TypeLLVAR, "X9"))
	req.SetField(127, iso.NewComposite(sub))

	out := tr.ToRequest(req)

	assert.Equal(t, "0200123456082514302100", out.RawFields["90"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4, 5, 6, 7, 8}), out.RawFields["52"])
	assert.Equal(t, "SWITCH-KEY", out.RawFields["127.2"])
	assert.Equal(t, "X9", out.RawFields["127.20"])

	_, hasParent := out.RawFields["127"]
	assert.False(t, hasParent, "composite parent must not appear as a key")
	_, hasPAN := out.RawFields["2"]
	assert.False(t, hasPAN, "named members must not leak into rawFields")
}

func TestToRequestEncodesBinary(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()
	req.SetField(55, iso.NewVar(iso.TypeLLLVAR, "9F2608AABBCCDD"))
	req.SetField(64, iso.NewBinary(iso.TypeBinary, []byte{0xCA, 0xFE, 0, 0, 0, 0, 0, 1}, 8))

	out := tr.ToRequest(req)

	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("9F2608AABBCCDD")), out.EMVDataBase64)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xCA, 0xFE, 0, 0, 0, 0, 0, 1}), out.MACBase64)
}

func TestToRequestSerializesClean(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	out := tr.ToRequest(financialRequest())

	blob, err := json.Marshal(out)
	require.NoError(t, err)

	assert.Equal(t, "WITHDRAWAL", gjson.GetBytes(blob, "transactionType").String())
	assert.Equal(t, "476173******0119", gjson.GetBytes(blob, "cardNumber").String())
	assert.False(t, gjson.GetBytes(blob, "narration").Exists(), "empty members are omitted")
	assert.False(t, gjson.GetBytes(blob, "rawFields").Exists())
	assert.True(t, gjson.GetBytes(blob, "fee").Exists())
}
