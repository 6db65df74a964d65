package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pridebank/atmgw/internal/charges"
	"github.com/pridebank/atmgw/internal/config"
	"github.com/pridebank/atmgw/internal/esb"
	"github.com/pridebank/atmgw/internal/gateway"
	"github.com/pridebank/atmgw/internal/iso"
	"github.com/pridebank/atmgw/internal/logging"
	"github.com/pridebank/atmgw/internal/server"
	"github.com/pridebank/atmgw/internal/translate"
)

// serveCmd starts the gateway. It is also the root command's default
// action.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ISO-8583 gateway",
	Long: `Start the gateway: listen for framed ISO-8583 connections from the
switch and bridge each request onto the core-banking ESB.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	if quiet {
		level = "error"
	}
	log := logging.New(level, cfg.Log.Format)

	dict := iso.NewDictionary()
	translator := translate.NewTranslator(dict)

	engine := charges.NewEngine(charges.Params{
		BaseInitial:           cfg.ESB.Charges.BaseInitial,
		BaseBandSize:          cfg.ESB.Charges.BaseBandSize,
		BaseIncrement:         cfg.ESB.Charges.BaseIncrement,
		ExciseRate:            cfg.ESB.Charges.ExciseRate,
		PrideSharePercent:     cfg.ESB.Charges.PrideSharePercent,
		InterSwitchCommission: cfg.ESB.Charges.InterSwitchCommission,

		TaxAccount:               cfg.ESB.TaxAccount,
		PrideChargeAccount:       cfg.ESB.PrideChargeAccount,
		InterSwitchChargeAccount: cfg.ESB.InterSwitchChargeAccount,
	})

	client := esb.NewClient(esb.Options{
		BaseURL:  cfg.ESB.BaseURL,
		Username: cfg.ESB.Username,
		Password: cfg.ESB.Password,
		Timeout:  cfg.ESBTimeout(),

		Withdrawal:     cfg.ESB.Withdrawal,
		Deposit:        cfg.ESB.Deposit,
		Purchase:       cfg.ESB.Purchase,
		BalanceInquiry: cfg.ESB.BalanceInquiry,
		MiniStatement:  cfg.ESB.MiniStatement,
		Transfer:       cfg.ESB.Transfer,
	}, log)

	gw := esb.NewGateway(client, engine, esb.Accounts{
		InterSwitchSettlement:      cfg.ESB.InterSwitchSettlementAccount,
		PrideCommissionsSettlement: cfg.ESB.PrideCommissionsSettlementAccount,
		InterSwitchCommissions:     cfg.ESB.InterSwitchCommissionsAccount,
	}, log)

	processor := gateway.NewProcessor(dict, translator, gw, log)

	srv := server.New(server.Options{
		Addr:        cfg.ListenAddress(),
		Threads:     cfg.Server.Threads,
		ReadTimeout: cfg.SocketTimeout(),
	}, dict, processor, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("gateway starting",
		"addr", cfg.ListenAddress(),
		"esb", cfg.ESB.BaseURL,
		"threads", cfg.Server.Threads)

	return srv.Run(ctx)
}
