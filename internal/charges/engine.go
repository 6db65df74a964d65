// Package charges prices ATM transactions: a banded base fee split
// between the bank and the switch operator, excise duty on the base, and
// the flat switch commission on deposits.
package charges

import "github.com/shopspring/decimal"

// Charge is one fee line attached to an ESB transaction.
type Charge struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ToAccount   string          `json:"toAccount"`
}

// Commission is a fee moved between two internal accounts.
type Commission struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
}

// MaxTransactionMinor is the largest amount, in minor units, the gateway
// forwards to the ESB.
var MaxTransactionMinor = decimal.NewFromInt(500000000)

// LimitExceeded reports whether a minor-unit amount is above the cap.
func LimitExceeded(amountMinor decimal.Decimal) bool {
	return amountMinor.GreaterThan(MaxTransactionMinor)
}

// MinorUnits converts a major-unit amount to minor units, rounding half
// away from zero.
func MinorUnits(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(2).Round(0)
}

// Params configures the fee engine. Monetary values are in major units.
type Params struct {
	BaseInitial           float64
	BaseBandSize          float64
	BaseIncrement         float64
	ExciseRate            float64
	PrideSharePercent     float64
	InterSwitchCommission float64

	TaxAccount               string
	PrideChargeAccount       string
	InterSwitchChargeAccount string
}

// Engine computes the fee lines for one transaction.
type Engine struct {
	baseInitial           decimal.Decimal
	baseBandSize          decimal.Decimal
	baseIncrement         decimal.Decimal
	exciseRate            decimal.Decimal
	prideShare            decimal.Decimal
	interSwitchCommission decimal.Decimal

	taxAccount         string
	prideAccount       string
	interSwitchAccount string
}

func NewEngine(p Params) *Engine {
	return &Engine{
		baseInitial:           decimal.NewFromFloat(p.BaseInitial),
		baseBandSize:          decimal.NewFromFloat(p.BaseBandSize),
		baseIncrement:         decimal.NewFromFloat(p.BaseIncrement),
		exciseRate:            decimal.NewFromFloat(p.ExciseRate),
		prideShare:            decimal.NewFromFloat(p.PrideSharePercent),
		interSwitchCommission: decimal.NewFromFloat(p.InterSwitchCommission),
		taxAccount:            p.TaxAccount,
		prideAccount:          p.PrideChargeAccount,
		interSwitchAccount:    p.InterSwitchChargeAccount,
	}
}

// BaseFee returns the banded base fee for a major-unit amount: the initial
// fee covers the first band, then one increment per started band above it.
func (e *Engine) BaseFee(amount decimal.Decimal) decimal.Decimal {
	if e.baseBandSize.IsZero() || amount.LessThanOrEqual(e.baseBandSize) {
		return e.baseInitial
	}
	bands := amount.Sub(e.baseBandSize).Div(e.baseBandSize).Ceil()
	return e.baseInitial.Add(e.baseIncrement.Mul(bands))
}

// Charges prices one debit transaction. The base fee is split by the
// configured share, excise duty is levied on the full base, and zero
// lines are dropped.
func (e *Engine) Charges(amount decimal.Decimal) []Charge {
	base := e.BaseFee(amount)
	pride := base.Mul(e.prideShare).Round(0)
	interSwitch := base.Sub(pride)
	excise := base.Mul(e.exciseRate).Round(0)

	var out []Charge
	if pride.IsPositive() {
		out = append(out, Charge{Amount: pride, Description: "PRIDE CHARGE", ToAccount: e.prideAccount})
	}
	if interSwitch.IsPositive() {
		out = append(out, Charge{Amount: interSwitch, Description: "INTER SWITCH CHARGE", ToAccount: e.interSwitchAccount})
	}
	if excise.IsPositive() {
		out = append(out, Charge{Amount: excise, Description: "EXCISE DUTY", ToAccount: e.taxAccount})
	}
	return out
}

// InterSwitchCommission returns the flat per-deposit commission owed to
// the switch operator.
func (e *Engine) InterSwitchCommission() decimal.Decimal {
	return e.interSwitchCommission
}
