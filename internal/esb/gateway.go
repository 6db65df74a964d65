package esb

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pridebank/atmgw/internal/charges"
	"github.com/pridebank/atmgw/internal/logging"
)

// statementWindowMonths is how far back a mini statement reaches.
const statementWindowMonths = 3

// defaultServiceID identifies the ATM channel on the ESB.
const defaultServiceID = 110

// Accounts names the internal accounts transactions settle against.
type Accounts struct {
	InterSwitchSettlement      string
	PrideCommissionsSettlement string
	InterSwitchCommissions     string
}

// Gateway enriches translated requests with fees, settlement routing and
// references before posting them through the client.
type Gateway struct {
	client   *Client
	engine   *charges.Engine
	accounts Accounts
	now      func() time.Time
	log      logging.Logger
}

// NewGateway wires the client to the fee engine and account map.
func NewGateway(client *Client, engine *charges.Engine, accounts Accounts, log logging.Logger) *Gateway {
	return &Gateway{
		client:   client,
		engine:   engine,
		accounts: accounts,
		now:      time.Now,
		log:      log.Module("esb"),
	}
}

// Send enriches txn in place and posts it.
func (g *Gateway) Send(ctx context.Context, txn *TransactionRequest) *TransactionResponse {
	g.enrich(txn)
	return g.client.Send(ctx, txn)
}

func (g *Gateway) enrich(txn *TransactionRequest) {
	now := g.now()

	if txn.Currency == "" {
		txn.Currency = "UGX"
	}
	if txn.ServiceID == 0 {
		txn.ServiceID = defaultServiceID
	}
	txn.ExternalRef = newExternalRef(now)

	switch txn.TransactionType {
	case TypeDeposit:
		txn.FromAccount = g.accounts.InterSwitchSettlement
		if txn.TargetAccount == "" {
			if txn.ToAccount != "" {
				txn.TargetAccount = txn.ToAccount
			} else {
				txn.TargetAccount = txn.AccountNumber
			}
		}
		txn.Charges = g.engine.Charges(majorAmount(txn))
		if commission := g.engine.InterSwitchCommission(); commission.IsPositive() {
			txn.Commission = &charges.Commission{
				Amount:      commission,
				Description: "Commission for " + txn.ExternalRef,
				FromAccount: g.accounts.PrideCommissionsSettlement,
				ToAccount:   g.accounts.InterSwitchCommissions,
			}
		}

	case TypeWithdrawal, TypePurchase:
		if txn.FromAccount == "" {
			txn.FromAccount = txn.AccountNumber
		}
		txn.TargetAccount = g.accounts.InterSwitchSettlement
		txn.Charges = g.engine.Charges(majorAmount(txn))

	case TypeBalanceInquiry, TypeMiniStatement:
		if txn.FromAccount != "" {
			txn.AccountNumber = txn.FromAccount
		} else if txn.ToAccount != "" {
			txn.AccountNumber = txn.ToAccount
		}
		if txn.TransactionType == TypeMiniStatement {
			txn.FromDate = now.AddDate(0, -statementWindowMonths, 0).Format("02/01/2006")
			txn.ToDate = now.Format("02/01/2006")
		}
	}

	g.log.Debug("enriched transaction",
		"type", txn.TransactionType, "ref", txn.ExternalRef, "charges", len(txn.Charges))
}

func majorAmount(txn *TransactionRequest) decimal.Decimal {
	if txn.Amount != nil {
		return *txn.Amount
	}
	if txn.AmountMinor != "" {
		if d, err := decimal.NewFromString(txn.AmountMinor); err == nil {
			return d.Shift(-2)
		}
	}
	return decimal.Zero
}

// newExternalRef builds a reconciliation reference: timestamp to the
// millisecond plus a random alpha and numeric tail.
func newExternalRef(now time.Time) string {
	letters := make([]byte, 5)
	for i := range letters {
		letters[i] = byte('A' + rand.Intn(26))
	}
	return fmt.Sprintf("Ref %s%03d%s%05d",
		now.Format("20060102150405"),
		now.Nanosecond()/int(time.Millisecond),
		letters,
		rand.Intn(100000))
}
