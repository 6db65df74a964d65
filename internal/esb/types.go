// Package esb speaks the core-banking bus dialect: JSON transaction
// documents posted over HTTP basic auth, one route per transaction type.
package esb

import (
	"github.com/shopspring/decimal"

	"github.com/pridebank/atmgw/internal/charges"
)

// Transaction types the gateway routes on the ESB.
const (
	TypeWithdrawal     = "WITHDRAWAL"
	TypeDeposit        = "DEPOSIT"
	TypePurchase       = "PURCHASE"
	TypeBalanceInquiry = "BALANCE_INQUIRY"
	TypeMiniStatement  = "MINI_STATEMENT"
	TypeTransfer       = "TRANSFER"
	TypeOther          = "OTHER"
)

// CodeSystemError marks replies the gateway could not obtain or decode.
// It normalizes to ISO response code 96 on the way back to the ATM.
const CodeSystemError = "SYSTEM_ERROR"

// TransactionRequest is the JSON document posted to the ESB for one ATM
// transaction. Optional members are omitted when empty; Fee is always
// serialized because downstream billing expects the member to exist.
type TransactionRequest struct {
	MessageType            string           `json:"messageType,omitempty"`
	TransactionType        string           `json:"transactionType,omitempty"`
	CardNumber             string           `json:"cardNumber,omitempty"`
	AccountNumber          string           `json:"accountNumber,omitempty"`
	Amount                 *decimal.Decimal `json:"amount,omitempty"`
	AmountValue            *decimal.Decimal `json:"amountValue,omitempty"`
	AmountMinor            string           `json:"amountMinor,omitempty"`
	Currency               string           `json:"currency,omitempty"`
	CurrencyCode           string           `json:"currencyCode,omitempty"`
	STAN                   string           `json:"stan,omitempty"`
	TerminalID             string           `json:"terminalId,omitempty"`
	ProcessingCode         string           `json:"processingCode,omitempty"`
	FromAccount            string           `json:"fromAccount,omitempty"`
	ToAccount              string           `json:"toAccount,omitempty"`
	TargetAccount          string           `json:"targetAccount,omitempty"`
	TransmissionDateTime   string           `json:"transmissionDateTime,omitempty"`
	TimeLocal              string           `json:"timeLocal,omitempty"`
	DateLocal              string           `json:"dateLocal,omitempty"`
	AcquiringInstitutionID string           `json:"acquiringInstitutionId,omitempty"`
	RRN                    string           `json:"rrn,omitempty"`
	AuthorizationCode      string           `json:"authorizationCode,omitempty"`
	ResponseCode           string           `json:"responseCode,omitempty"`
	MerchantID             string           `json:"merchantId,omitempty"`
	MerchantInfo           string           `json:"merchantInfo,omitempty"`
	AdditionalResponseData string           `json:"additionalResponseData,omitempty"`
	BalanceData            string           `json:"balanceData,omitempty"`
	MiniStatement          string           `json:"miniStatement,omitempty"`
	PrivateData            string           `json:"privateData,omitempty"`
	EMVDataBase64          string           `json:"emvDataBase64,omitempty"`
	MACBase64              string           `json:"macBase64,omitempty"`
	ExternalRef            string           `json:"externalRef,omitempty"`
	Fee                    int              `json:"fee"`
	Narration              string           `json:"narration,omitempty"`
	PhoneNo                string           `json:"phoneNo,omitempty"`
	ServiceID              int              `json:"serviceId,omitempty"`
	FromDate               string           `json:"fromDate,omitempty"`
	ToDate                 string           `json:"toDate,omitempty"`

	Charges    []charges.Charge    `json:"charges,omitempty"`
	Commission *charges.Commission `json:"commission,omitempty"`

	// RawFields carries ISO fields the schema above has no member for,
	// keyed by field number ("90", "127.2").
	RawFields map[string]string `json:"rawFields,omitempty"`
}

// TransactionResponse is the ESB's reply. The zero value is unusable on
// purpose: every path through Client.Send fills at least ResponseCode.
type TransactionResponse struct {
	ResponseCode      string           `json:"responseCode"`
	Message           string           `json:"message,omitempty"`
	AuthorizationCode string           `json:"authorizationCode,omitempty"`
	ApprovalCode      string           `json:"approvalCode,omitempty"`
	STAN              string           `json:"stan,omitempty"`
	TransactionID     string           `json:"transactionId,omitempty"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	AvailableBalance  *decimal.Decimal `json:"availableBalance,omitempty"`
	LedgerBalance     *decimal.Decimal `json:"ledgerBalance,omitempty"`
	AmountMinor       string           `json:"amountMinor,omitempty"`
	Currency          string           `json:"currency,omitempty"`
	MiniStatementText string           `json:"miniStatementText,omitempty"`
	FromAccount       string           `json:"fromAccount,omitempty"`
	ToAccount         string           `json:"toAccount,omitempty"`
	MACBase64         string           `json:"macBase64,omitempty"`

	// MiniStatement holds the entry list for statement replies; rendering
	// into field 48/62 text happens on the ISO side.
	MiniStatement []map[string]interface{} `json:"miniStatement,omitempty"`

	// RawFields carries extra ISO fields the ESB wants on the reply,
	// keyed like TransactionRequest.RawFields.
	RawFields map[string]string `json:"rawFields,omitempty"`
}
