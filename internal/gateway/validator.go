package gateway

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"

	"github.com/pridebank/atmgw/internal/iso"
)

// ValidateFinancial checks the mandatory field set of a financial request
// before it is translated: PAN, processing code, amount, transmission
// time, STAN, terminal and currency must all be usable. Failures are
// collected into a single error with each message keyed by its field
// number, so the switch operator sees every problem at once.
func ValidateFinancial(req *iso.Message) error {
	return validation.Errors{
		"field 2":  validation.Validate(strings.TrimSpace(req.Text(2)), validation.Required, validation.Length(13, 0)),
		"field 3":  validation.Validate(strings.TrimSpace(req.Text(3)), validation.Required),
		"field 4":  validation.Validate(strings.TrimSpace(req.Text(4)), validation.Required, validation.Length(12, 12), is.Digit),
		"field 7":  validation.Validate(strings.TrimSpace(req.Text(7)), validation.Required, validation.By(validTransmissionTime)),
		"field 11": validation.Validate(strings.TrimSpace(req.Text(11)), validation.Required),
		"field 41": validation.Validate(strings.TrimSpace(req.Text(41)), validation.Required),
		"field 49": validation.Validate(strings.TrimSpace(req.Text(49)), validation.Required, validation.Length(3, 3), is.Digit),
	}.Filter()
}

// validTransmissionTime accepts a 10-digit MMDDhhmmss value that parses to
// a real calendar moment. Emptiness is left to the Required rule.
func validTransmissionTime(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if len(s) != 10 {
		return errors.New("must be a 10-digit MMDDhhmmss timestamp")
	}
	if _, err := time.Parse("0102150405", s); err != nil {
		return errors.New("must be a valid MMDDhhmmss timestamp")
	}
	return nil
}
