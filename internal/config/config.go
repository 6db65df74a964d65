// Package config loads and validates the gateway configuration from its
// TOML file and ATMGW_ environment variables, with built-in defaults for
// everything that has one.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete atmgw configuration.
type Config struct {
	Server ServerConfig `toml:"server" mapstructure:"server"`
	Log    LogConfig    `toml:"log" mapstructure:"log"`
	ESB    ESBConfig    `toml:"esb" mapstructure:"esb"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig holds the ATM-facing TCP listener settings.
type ServerConfig struct {
	Port            int `toml:"port" mapstructure:"port"`
	Threads         int `toml:"threads" mapstructure:"threads"`
	SocketTimeoutMs int `toml:"socket_timeout_ms" mapstructure:"socket_timeout_ms"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// ESBConfig holds everything about the core-banking side: the endpoint,
// credentials, per-operation path suffixes, settlement and collection
// accounts, and the charge parameters.
type ESBConfig struct {
	BaseURL   string `toml:"base_url" mapstructure:"base_url"`
	Username  string `toml:"username" mapstructure:"username"`
	Password  string `toml:"password" mapstructure:"password"`
	TimeoutMs int    `toml:"timeout_ms" mapstructure:"timeout_ms"`

	// Path suffixes per transaction type, joined onto BaseURL.
	Withdrawal     string `toml:"withdrawal" mapstructure:"withdrawal"`
	Deposit        string `toml:"deposit" mapstructure:"deposit"`
	Purchase       string `toml:"purchase" mapstructure:"purchase"`
	BalanceInquiry string `toml:"balance_inquiry" mapstructure:"balance_inquiry"`
	MiniStatement  string `toml:"mini_statement" mapstructure:"mini_statement"`
	Transfer       string `toml:"transfer" mapstructure:"transfer"`

	InterSwitchSettlementAccount      string `toml:"inter_switch_settlement_account" mapstructure:"inter_switch_settlement_account"`
	TaxAccount                        string `toml:"tax_account" mapstructure:"tax_account"`
	PrideChargeAccount                string `toml:"pride_charge_account" mapstructure:"pride_charge_account"`
	InterSwitchChargeAccount          string `toml:"inter_switch_charge_account" mapstructure:"inter_switch_charge_account"`
	InterSwitchCommissionsAccount     string `toml:"inter_switch_commissions_account" mapstructure:"inter_switch_commissions_account"`
	PrideCommissionsSettlementAccount string `toml:"pride_commissions_settlement_account" mapstructure:"pride_commissions_settlement_account"`

	Charges ChargesConfig `toml:"charges" mapstructure:"charges"`
}

// ChargesConfig parameterizes the fee engine. Amounts are major currency
// units; rates are fractions of one.
type ChargesConfig struct {
	BaseInitial           float64 `toml:"base_initial" mapstructure:"base_initial"`
	BaseBandSize          float64 `toml:"base_band_size" mapstructure:"base_band_size"`
	BaseIncrement         float64 `toml:"base_increment" mapstructure:"base_increment"`
	ExciseRate            float64 `toml:"excise_rate" mapstructure:"excise_rate"`
	PrideSharePercent     float64 `toml:"pride_share_percent" mapstructure:"pride_share_percent"`
	InterSwitchCommission float64 `toml:"inter_switch_commission" mapstructure:"inter_switch_commission"`
}

// GetConfigPath returns the path of the file this configuration was
// loaded from, or "" when running on defaults and environment only.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// ListenAddress returns the bind address for the ATM listener.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// SocketTimeout returns the per-read idle timeout for ATM connections.
func (c *Config) SocketTimeout() time.Duration {
	return time.Duration(c.Server.SocketTimeoutMs) * time.Millisecond
}

// ESBTimeout returns the per-call HTTP timeout toward the ESB.
func (c *Config) ESBTimeout() time.Duration {
	return time.Duration(c.ESB.TimeoutMs) * time.Millisecond
}
