// Package gateway drives one ISO-8583 exchange end to end: validate the
// inbound request, forward it to the core-banking ESB, convert the reply
// and assemble a response carrying exactly the field set the switch
// accepts for that exchange.
package gateway

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pridebank/atmgw/internal/charges"
	"github.com/pridebank/atmgw/internal/esb"
	"github.com/pridebank/atmgw/internal/iso"
	"github.com/pridebank/atmgw/internal/logging"
	"github.com/pridebank/atmgw/internal/translate"
)

// limitMessage is the decline text for amounts above the gateway cap. The
// wire truncates it to the 25 characters field 44 carries.
const limitMessage = "Transaction amount exceeds allowed limit"

// Sender posts one translated transaction to the core-banking ESB. The
// reply is never nil; transport failures surface as a SYSTEM_ERROR reply.
type Sender interface {
	Send(ctx context.Context, txn *esb.TransactionRequest) *esb.TransactionResponse
}

// Processor turns one decoded inbound message into its response message.
type Processor struct {
	dict       *iso.Dictionary
	translator *translate.Translator
	sender     Sender
	log        logging.Logger
}

// NewProcessor wires a processor over the shared dictionary, the
// translator and the ESB sender.
func NewProcessor(dict *iso.Dictionary, translator *translate.Translator, sender Sender, log logging.Logger) *Processor {
	return &Processor{
		dict:       dict,
		translator: translator,
		sender:     sender,
		log:        log.Module("gateway"),
	}
}

// Process dispatches on the request MTI. Financial requests are validated
// and limit-checked before the ESB sees them; reversal advices skip
// validation and answer on the request's own field set; network
// management echoes locally without an ESB call. Process never returns
// nil.
func (p *Processor) Process(ctx context.Context, req *iso.Message) *iso.Message {
	if req == nil {
		return p.errorResponse(nil, "96", "")
	}

	switch req.MTI() {
	case iso.MTINetworkRequest:
		return p.networkEcho(req)
	case iso.MTIReversalRequest, iso.MTIReversalResponse:
		return p.reversal(ctx, req)
	case iso.MTIFinancialRequest:
		if err := ValidateFinancial(req); err != nil {
			p.log.Warn("request rejected",
				"mti", iso.FormatMTI(req.MTI()),
				"stan", strings.TrimSpace(req.Text(11)),
				"reason", err.Error())
			return p.errorResponse(req, "30", err.Error())
		}
		return p.financial(ctx, req)
	default:
		p.log.Warn("unexpected mti, forwarding as financial", "mti", iso.FormatMTI(req.MTI()))
		return p.financial(ctx, req)
	}
}

// networkEcho answers 0800 from the request alone: the response carries
// exactly the request's fields with the request's values.
func (p *Processor) networkEcho(req *iso.Message) *iso.Message {
	mti := iso.ResponseMTI(req.MTI())
	return Assemble(mti, requestFieldSet(req), req, nil, p.dict.Template(mti))
}

// reversal forwards an advice to the ESB but answers from the request
// field set alone, so the echo never grows fields the switch did not
// send. The outcome still lands in 39 when the advice carried one.
func (p *Processor) reversal(ctx context.Context, req *iso.Message) *iso.Message {
	txn := p.translator.ToRequest(req)
	reply := p.sender.Send(ctx, txn)
	conv := p.translator.ToISO(reply, req)

	mti := iso.ResponseMTI(req.MTI())
	allowed := requestFieldSet(req)

	resp := Assemble(mti, allowed, req, conv, p.dict.Template(mti))
	p.postProcess(resp, conv, req, allowed)
	return resp
}

// financial runs the full pipeline for a validated request: limit gate,
// ESB call, reply conversion and assembly on the allowed field set.
func (p *Processor) financial(ctx context.Context, req *iso.Message) *iso.Message {
	if minor, err := decimal.NewFromString(strings.TrimSpace(req.Text(4))); err == nil && charges.LimitExceeded(minor) {
		p.log.Warn("amount above gateway limit",
			"stan", strings.TrimSpace(req.Text(11)),
			"amount_minor", minor.String())
		return p.errorResponse(req, "61", limitMessage)
	}

	txn := p.translator.ToRequest(req)
	reply := p.sender.Send(ctx, txn)
	if translate.SystemError(reply) {
		p.log.Error("esb call failed",
			"stan", txn.STAN,
			"code", reply.ResponseCode,
			"message", reply.Message)
		return p.errorResponse(req, "96", reply.Message)
	}

	conv := p.translator.ToISO(reply, req)

	mti := iso.ResponseMTI(req.MTI())
	allowed := requestFieldSet(req)
	allowed[38] = true
	allowed[39] = true
	allowed[54] = true
	if translate.IsMiniStatement(req) {
		allowed[48] = true
	}

	resp := Assemble(mti, allowed, req, conv, p.dict.Template(mti))
	p.postProcess(resp, conv, req, allowed)
	return resp
}

// errorResponse declines locally: the request echo plus a response code
// and an optional 25-character reason. The decline values outrank the
// echo, and code "30" rides the validation-failure MTI.
func (p *Processor) errorResponse(req *iso.Message, code, msg string) *iso.Message {
	if req == nil {
		resp := iso.NewMessage(iso.MTIFinancialResponse)
		resp.SetField(39, typedValue(39, code))
		return resp
	}

	mti := iso.ResponseMTI(req.MTI())
	if code == "30" {
		mti = iso.MTIValidationFailure
	}

	decline := iso.NewMessage(mti)
	decline.SetField(39, typedValue(39, code))
	msg = strings.TrimSpace(msg)
	if msg != "" {
		decline.SetField(44, typedValue(44, truncate(msg, 25)))
	}

	allowed := requestFieldSet(req)
	allowed[39] = true
	if msg != "" {
		allowed[44] = true
	}
	return Assemble(mti, allowed, decline, req, p.dict.Template(mti))
}

// postProcess aligns the response code and approval artifacts with the
// host outcome. Only fields already in the allowed set are touched, so
// echo-shaped responses stay on their exact field set.
func (p *Processor) postProcess(resp, conv, req *iso.Message, allowed map[int]bool) {
	rc := strings.TrimSpace(conv.Text(39))
	if rc == "" {
		rc = strings.TrimSpace(resp.Text(39))
	}
	if rc != "00" {
		if rc != "" {
			setCode(resp, rc, allowed)
		}
		return
	}

	pc := strings.TrimSpace(req.Text(3))
	if len(pc) < 2 {
		return
	}
	switch pc[:2] {
	case "00", "01", "02", "21", "31":
		setCode(resp, "00", allowed)
		adoptFrom(resp, conv, 38, allowed)
		adoptFrom(resp, conv, 54, allowed)
	case "38":
		setCode(resp, "00", allowed)
		adoptFrom(resp, conv, 38, allowed)
		adoptFrom(resp, conv, 54, allowed)
		adoptFrom(resp, conv, 48, allowed)
	}
}

// setCode places a response code, respecting the allowed set.
func setCode(resp *iso.Message, code string, allowed map[int]bool) {
	if allowed[39] {
		resp.SetField(39, typedValue(39, code))
	}
}

// adoptFrom overwrites field n with the converted reply's value when the
// reply carries one. Approval artifacts must reflect the host, not the
// request echo.
func adoptFrom(resp, conv *iso.Message, n int, allowed map[int]bool) {
	if !allowed[n] {
		return
	}
	if v := conv.Field(n); !v.Empty() {
		resp.SetField(n, v.Clone())
	}
}

func requestFieldSet(req *iso.Message) map[int]bool {
	fields := req.Fields()
	allowed := make(map[int]bool, len(fields)+4)
	for _, n := range fields {
		allowed[n] = true
	}
	return allowed
}
