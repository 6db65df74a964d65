package translate

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pridebank/atmgw/internal/esb"
	"github.com/pridebank/atmgw/internal/iso"
)

func TestNormalizeResponseCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00", "00"},
		{"51", "51"},
		{" 05 ", "05"},
		{"OK", "00"},
		{"success", "00"},
		{"Approved", "00"},
		{"APPROVAL", "00"},
		{"INSUFFICIENT_FUNDS", "51"},
		{"INSUFFICIENT FUNDS", "51"},
		{"NOT_ENOUGH_FUNDS", "51"},
		{"INVALID_ACCOUNT", "14"},
		{"ACCOUNT_NOT_FOUND", "14"},
		{"NO_ACCOUNT", "14"},
		{"EXCEEDS_LIMIT", "61"},
		{"LIMIT_EXCEEDED", "61"},
		{"AUTH_FAILED", "05"},
		{"DECLINED", "05"},
		{"DUPLICATE", "94"},
		{"TIMEOUT", "96"},
		{"UNAVAILABLE", "96"},
		{"SERVICE_UNAVAILABLE", "96"},
		{"SOMETHING_ELSE", "96"},
		{"", "96"},
		{"1", "96"},
		{"123", "96"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeResponseCode(tt.in), "code %q", tt.in)
	}
}

func TestSystemError(t *testing.T) {
	assert.True(t, SystemError(&esb.TransactionResponse{ResponseCode: "SYSTEM_ERROR"}))
	assert.True(t, SystemError(&esb.TransactionResponse{ResponseCode: " system_error "}))
	assert.True(t, SystemError(&esb.TransactionResponse{ResponseCode: "TIMEOUT"}))
	assert.True(t, SystemError(&esb.TransactionResponse{ResponseCode: "96"}))
	assert.False(t, SystemError(&esb.TransactionResponse{ResponseCode: "00"}))
	assert.False(t, SystemError(&esb.TransactionResponse{ResponseCode: "51"}))
}

func TestToISOFields(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()

	amount := decimal.RequireFromString("500")
	reply := &esb.TransactionResponse{
		ResponseCode:      "APPROVED",
		TransactionID:     "FT26082512345678",
		STAN:              "TXN-98765432",
		Amount:            &amount,
		Currency:          "800",
		Message:           "Transaction approved OK today",
		AuthorizationCode: "9876543",
		MACBase64:         base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
		FromAccount:       "0155-00123",
	}

	conv := tr.ToISO(reply, req)

	assert.Equal(t, iso.MTIFinancialResponse, conv.MTI())
	assert.Equal(t, "00", conv.Text(39))
	assert.Equal(t, "FT2608251234", conv.Text(37))
	assert.Equal(t, "765432", conv.Text(11))
	assert.Equal(t, "000000050000", conv.Text(4))
	assert.Equal(t, "800", conv.Text(49))
	assert.Equal(t, "Transaction approved OK t", conv.Text(44))
	assert.Len(t, conv.Text(44), 25)
	assert.Equal(t, "987654", conv.Text(38))
	assert.Equal(t, "0155-00123", conv.Text(102))

	mac := conv.Field(64)
	require.NotNil(t, mac)
	assert.Equal(t, 8, mac.Length)
	assert.Equal(t, []byte{1, 2, 3}, mac.Bytes())
}

func TestToISOAuthCodePadding(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()

	reply := &esb.TransactionResponse{ResponseCode: "00", ApprovalCode: "12345"}
	conv := tr.ToISO(reply, req)

	assert.Equal(t, "12345 ", conv.Text(38))
}

func TestToISOBalanceData(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()
	req.SetField(3, iso.NewText(iso.TypeNumeric, "311000", 6))

	ledger := decimal.RequireFromString("1234.56")
	available := decimal.RequireFromString("-1234.56")
	reply := &esb.TransactionResponse{
		ResponseCode:     "00",
		LedgerBalance:    &ledger,
		AvailableBalance: &available,
	}

	conv := tr.ToISO(reply, req)
	got := conv.Text(54)

	require.Len(t, got, 40)
	assert.Equal(t, "0001800C000000123456", got[:20])
	assert.Equal(t, "0002800D000000123456", got[20:])
}

func TestToISOSingleBalanceMirrors(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()

	available := decimal.RequireFromString("500")
	reply := &esb.TransactionResponse{ResponseCode: "00", AvailableBalance: &available}

	conv := tr.ToISO(reply, req)
	got := conv.Text(54)

	require.Len(t, got, 40)
	assert.Equal(t, "0001800C000000050000", got[:20])
	assert.Equal(t, "0002800C000000050000", got[20:])
}

func TestToISOStatementRouting(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	reply := &esb.TransactionResponse{ResponseCode: "00", MiniStatementText: "STMT"}

	mini := financialRequest()
	mini.SetField(3, iso.NewText(iso.TypeNumeric, "381000", 6))
	conv := tr.ToISO(reply, mini)
	assert.Equal(t, "STMT", conv.Text(48))
	assert.False(t, conv.Has(62))

	other := financialRequest()
	conv = tr.ToISO(reply, other)
	assert.Equal(t, "STMT", conv.Text(62))
	assert.False(t, conv.Has(48))
}

func TestToISOStatementTruncates(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()

	reply := &esb.TransactionResponse{
		ResponseCode:      "00",
		MiniStatementText: strings.Repeat("x", 1500),
	}
	conv := tr.ToISO(reply, req)

	assert.Len(t, conv.Text(62), 999)
}

func TestRenderStatement(t *testing.T) {
	records := []map[string]interface{}{
		{"date": "14/08/2026", "amount": "2500.00", "type": "DEBIT"},
		{"date": "2026-08-15T09:30:00", "amount": 100.5, "currency": "840"},
	}

	got := renderStatement(records, "800")
	want := "20260814000000|000000250000|800 CSH D|800~" +
		"20260815093000|000000010050|840 CSH C|840~"
	assert.Equal(t, want, got)
}

func TestRenderStatementCapsRecords(t *testing.T) {
	var records []map[string]interface{}
	for i := 0; i < 15; i++ {
		records = append(records, map[string]interface{}{
			"date":   "01/08/2026",
			"amount": "10",
		})
	}

	got := renderStatement(records, "800")
	assert.Equal(t, maxStatementRecords, strings.Count(got, "~"))
}

func TestToISORawFields(t *testing.T) {
	tr := NewTranslator(iso.NewDictionary())
	req := financialRequest()

	reply := &esb.TransactionResponse{
		ResponseCode: "00",
		Currency:     "800",
		RawFields: map[string]string{
			"49":    "840",
			"63":    "EXTRA",
			"110":   "UNMAPPED",
			"123.1": "A",
			"123.2": "B",
		},
	}
	conv := tr.ToISO(reply, req)

	assert.Equal(t, "800", conv.Text(49), "populated fields win over rawFields")
	assert.Equal(t, "EXTRA", conv.Text(63))
	assert.Equal(t, "UNMAPPED", conv.Text(110))

	blob := conv.Text(123)
	assert.Equal(t, "A", gjson.Get(blob, "1").String())
	assert.Equal(t, "B", gjson.Get(blob, "2").String())
}
