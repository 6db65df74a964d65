package config

import "github.com/spf13/viper"

// setDefaults registers every key the gateway understands. Keys without a
// meaningful default get an empty value so environment overrides are
// always picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	// ATM-facing listener
	v.SetDefault("server.port", 7790)
	v.SetDefault("server.threads", 20)
	v.SetDefault("server.socket_timeout_ms", 300000)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// ESB endpoint
	v.SetDefault("esb.base_url", "")
	v.SetDefault("esb.username", "")
	v.SetDefault("esb.password", "")
	v.SetDefault("esb.timeout_ms", 30000)

	// Per-operation path suffixes
	v.SetDefault("esb.withdrawal", "")
	v.SetDefault("esb.deposit", "")
	v.SetDefault("esb.purchase", "")
	v.SetDefault("esb.balance_inquiry", "")
	v.SetDefault("esb.mini_statement", "")
	v.SetDefault("esb.transfer", "")

	// Settlement and collection accounts
	v.SetDefault("esb.inter_switch_settlement_account", "")
	v.SetDefault("esb.tax_account", "")
	v.SetDefault("esb.pride_charge_account", "")
	v.SetDefault("esb.inter_switch_charge_account", "")
	v.SetDefault("esb.inter_switch_commissions_account", "")
	v.SetDefault("esb.pride_commissions_settlement_account", "")

	// Charge engine parameters
	v.SetDefault("esb.charges.base_initial", 2500)
	v.SetDefault("esb.charges.base_band_size", 500000)
	v.SetDefault("esb.charges.base_increment", 1000)
	v.SetDefault("esb.charges.excise_rate", 0.0)
	v.SetDefault("esb.charges.pride_share_percent", 0.20)
	v.SetDefault("esb.charges.inter_switch_commission", 0.0)
}
