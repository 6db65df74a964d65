package esb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pridebank/atmgw/internal/charges"
	"github.com/pridebank/atmgw/internal/logging"
)

// Options configures the HTTP client. Route paths are appended to BaseURL
// verbatim; an empty path disables that transaction type.
type Options struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration

	Withdrawal     string
	Deposit        string
	Purchase       string
	BalanceInquiry string
	MiniStatement  string
	Transfer       string
}

// Client posts transaction documents to the ESB.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	paths      map[string]string
	log        logging.Logger
}

// NewClient creates an ESB client from Options.
func NewClient(opts Options, log logging.Logger) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		username: opts.Username,
		password: opts.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		paths: map[string]string{
			TypeWithdrawal:     opts.Withdrawal,
			TypeDeposit:        opts.Deposit,
			TypePurchase:       opts.Purchase,
			TypeBalanceInquiry: opts.BalanceInquiry,
			TypeMiniStatement:  opts.MiniStatement,
			TypeTransfer:       opts.Transfer,
		},
		log: log.Module("esb"),
	}
}

// Send posts one transaction and normalizes the outcome into a
// TransactionResponse. Transport and decoding failures come back as
// SYSTEM_ERROR replies rather than errors, so the caller always has a
// reply to translate for the ATM.
func (c *Client) Send(ctx context.Context, txn *TransactionRequest) *TransactionResponse {
	path, ok := c.paths[txn.TransactionType]
	if !ok || path == "" {
		c.log.Warn("no route for transaction type", "type", txn.TransactionType)
		return &TransactionResponse{
			ResponseCode: CodeSystemError,
			Message:      fmt.Sprintf("no route for %s", txn.TransactionType),
		}
	}

	body, err := json.Marshal(txn)
	if err != nil {
		return &TransactionResponse{ResponseCode: CodeSystemError, Message: "failed to marshal request"}
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TransactionResponse{ResponseCode: CodeSystemError, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	c.log.Debug("posting transaction", "type", txn.TransactionType, "url", url, "stan", txn.STAN)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("esb request failed", "type", txn.TransactionType, "error", err)
		return &TransactionResponse{ResponseCode: CodeSystemError, Message: err.Error()}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransactionResponse{ResponseCode: CodeSystemError, Message: "failed to read esb response"}
	}

	reply := c.normalize(resp.StatusCode, resp.Status, responseBody)
	c.log.Debug("esb reply", "type", txn.TransactionType, "status", resp.StatusCode, "code", reply.ResponseCode)
	return reply
}

// normalize maps HTTP status classes onto decline codes when the body
// carries no usable reply of its own.
func (c *Client) normalize(status int, statusText string, body []byte) *TransactionResponse {
	switch {
	case status >= 200 && status < 300:
		if len(bytes.TrimSpace(body)) == 0 {
			return &TransactionResponse{ResponseCode: "00", Message: statusText}
		}
		var out TransactionResponse
		if err := json.Unmarshal(body, &out); err != nil {
			c.log.Error("undecodable esb reply", "status", status, "error", err)
			return &TransactionResponse{ResponseCode: CodeSystemError, Message: "undecodable esb reply"}
		}
		if out.AmountMinor == "" && out.Amount != nil {
			out.AmountMinor = charges.MinorUnits(*out.Amount).String()
		}
		return &out
	case status >= 300 && status < 400:
		return &TransactionResponse{ResponseCode: "51", Message: statusText}
	case status >= 400 && status < 500:
		return &TransactionResponse{ResponseCode: "14", Message: statusText}
	default:
		return &TransactionResponse{ResponseCode: "96", Message: statusText}
	}
}
