package config

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
)

// ValidateConfig performs validation on the complete configuration.
// Credentials, paths and accounts may legitimately be empty (a gateway
// pointed at a stub ESB); structural mistakes are fatal.
func ValidateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return errors.Wrap(err, "server config validation failed")
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return errors.Wrap(err, "log config validation failed")
	}
	if err := validateESBConfig(&config.ESB); err != nil {
		return errors.Wrap(err, "esb config validation failed")
	}
	return nil
}

func validateServerConfig(server *ServerConfig) error {
	return validation.ValidateStruct(server,
		validation.Field(&server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&server.Threads, validation.Required, validation.Min(1)),
		validation.Field(&server.SocketTimeoutMs, validation.Required, validation.Min(1)),
	)
}

func validateLogConfig(log *LogConfig) error {
	return validation.ValidateStruct(log,
		validation.Field(&log.Level, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal", "panic")),
		validation.Field(&log.Format, validation.In("text", "json")),
	)
}

func validateESBConfig(esb *ESBConfig) error {
	if err := validation.ValidateStruct(esb,
		validation.Field(&esb.BaseURL, is.RequestURL),
		validation.Field(&esb.TimeoutMs, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	return validateChargesConfig(&esb.Charges)
}

func validateChargesConfig(charges *ChargesConfig) error {
	return validation.ValidateStruct(charges,
		validation.Field(&charges.BaseInitial, validation.Min(0.0)),
		validation.Field(&charges.BaseBandSize, validation.Min(0.0)),
		validation.Field(&charges.BaseIncrement, validation.Min(0.0)),
		validation.Field(&charges.ExciseRate, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&charges.PrideSharePercent, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&charges.InterSwitchCommission, validation.Min(0.0)),
	)
}
