// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package main provides swapd, the long-running daemon that drives trades:
// it owns the chain observer and wallet service connections, persists
// trade state, runs this party's relay when playing the maker, and
// exposes an RPC surface for swapcli.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log"
	"github.com/urfave/cli/v2"

	"github.com/PHCitizen/bch-xmr-swap/chainobserver"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/protocol/swap"
	"github.com/PHCitizen/bch-xmr-swap/relay"
	"github.com/PHCitizen/bch-xmr-swap/rpc"
	"github.com/PHCitizen/bch-xmr-swap/runner"
	"github.com/PHCitizen/bch-xmr-swap/walletservice"
)

const (
	flagDataDir          = "data-dir"
	flagElectrumAddr     = "electrum"
	flagWalletRPC        = "wallet-rpc"
	flagRPCAddr          = "rpc-address"
	flagRelayAddr        = "relay-address"
	flagBchNetwork       = "bch-network"
	flagXmrNetwork       = "xmr-network"
	flagBchRecvAddress   = "bch-recv-address"
	flagMinConfirmations = "min-confirmations"
	flagPollInterval     = "poll-interval"
	flagLogLevel         = "log-level"
)

var version = "dev"

func main() {
	if err := cliApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "swapd:", err)
		os.Exit(1)
	}
}

func cliApp() *cli.App {
	return &cli.App{
		Name:    "swapd",
		Usage:   "BCH/Monero atomic swap daemon",
		Version: version,
		Action:  runDaemon,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagDataDir,
				EnvVars: []string{"SWAPD_DATA_DIR"},
				Value:   defaultDataDir(),
				Usage:   "Directory holding trade files and the completed-trade archive",
			},
			&cli.StringFlag{
				Name:    flagElectrumAddr,
				EnvVars: []string{"SWAPD_ELECTRUM_ADDR"},
				Value:   "127.0.0.1:50001",
				Usage:   "host:port of an Electrum-protocol BCH full node",
			},
			&cli.StringFlag{
				Name:    flagWalletRPC,
				EnvVars: []string{"SWAPD_WALLET_RPC"},
				Value:   "http://127.0.0.1:28084/json_rpc",
				Usage:   "URL of a running monero-wallet-rpc instance",
			},
			&cli.StringFlag{
				Name:    flagRPCAddr,
				EnvVars: []string{"SWAPD_RPC_ADDRESS"},
				Value:   "127.0.0.1:5000",
				Usage:   "address swapcli connects to",
			},
			&cli.StringFlag{
				Name:    flagRelayAddr,
				EnvVars: []string{"SWAPD_RELAY_ADDRESS"},
				Value:   "0.0.0.0:5001",
				Usage:   "address this daemon's relay listens on when making trades",
			},
			&cli.StringFlag{
				Name:    flagBchNetwork,
				EnvVars: []string{"SWAPD_BCH_NETWORK"},
				Value:   "Mainnet",
				Usage:   "Mainnet, Testnet, or Regtest",
			},
			&cli.StringFlag{
				Name:    flagXmrNetwork,
				EnvVars: []string{"SWAPD_XMR_NETWORK"},
				Value:   "Mainnet",
				Usage:   "Mainnet, Testnet, or Stagenet",
			},
			&cli.StringFlag{
				Name:    flagBchRecvAddress,
				EnvVars: []string{"SWAPD_BCH_RECV_ADDRESS"},
				Required: true,
				Usage:   "CashAddr this daemon's own relay pays out to when it mints a trade as Bob",
			},
			&cli.UintFlag{
				Name:    flagMinConfirmations,
				EnvVars: []string{"SWAPD_MIN_CONFIRMATIONS"},
				Value:   1,
				Usage:   "confirmations required before a deposit is considered final",
			},
			&cli.DurationFlag{
				Name:    flagPollInterval,
				EnvVars: []string{"SWAPD_POLL_INTERVAL"},
				Value:   15 * time.Second,
				Usage:   "how often each active trade polls chain and wallet state",
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				EnvVars: []string{"SWAPD_LOG_LEVEL"},
				Value:   "info",
				Usage:   "debug, info, warn, or error",
			},
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".swapd"
	}
	return home + "/.swapd"
}

func runDaemon(c *cli.Context) error {
	if err := logging.SetLogLevel("*", c.String(flagLogLevel)); err != nil {
		return fmt.Errorf("swapd: setting log level: %w", err)
	}
	log := logging.Logger("swapd")

	bchNetwork, err := common.ParseBchNetwork(c.String(flagBchNetwork))
	if err != nil {
		return fmt.Errorf("swapd: %w", err)
	}
	xmrNetwork, err := common.ParseXmrNetwork(c.String(flagXmrNetwork))
	if err != nil {
		return fmt.Errorf("swapd: %w", err)
	}
	bchRecv, err := contract.LockingScriptForAddress(c.String(flagBchRecvAddress))
	if err != nil {
		return fmt.Errorf("swapd: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dataDir := c.String(flagDataDir)
	tradesDir := dataDir + "/trades"
	if err := os.MkdirAll(tradesDir, 0o700); err != nil {
		return fmt.Errorf("swapd: creating trades directory: %w", err)
	}

	observer, err := chainobserver.Dial(ctx, c.String(flagElectrumAddr))
	if err != nil {
		return fmt.Errorf("swapd: connecting to electrum server: %w", err)
	}
	defer observer.Close()

	wallet := walletservice.New(c.String(flagWalletRPC))

	archiveDB, err := swap.NewDB(dataDir + "/archive")
	if err != nil {
		return fmt.Errorf("swapd: opening trade archive: %w", err)
	}
	archive, err := swap.NewManager(archiveDB)
	if err != nil {
		return fmt.Errorf("swapd: opening trade archive manager: %w", err)
	}

	engine := runner.NewEngine(
		ctx,
		tradesDir,
		observer,
		wallet,
		archive,
		uint32(c.Uint(flagMinConfirmations)),
		c.Duration(flagPollInterval),
		xmrNetwork,
		bchNetwork,
		bchRecv,
	)

	if err := engine.Resume(); err != nil {
		log.Warnf("resuming in-flight trades: %s", err)
	}

	relayServer, err := relay.NewServer(&relay.Config{
		Ctx:     ctx,
		Address: c.String(flagRelayAddr),
		Store:   engine,
	})
	if err != nil {
		return fmt.Errorf("swapd: starting relay server: %w", err)
	}

	rpcServer, err := rpc.NewServer(&rpc.Config{
		Ctx:          ctx,
		Address:      c.String(flagRPCAddr),
		Version:      version,
		ShutdownFunc: cancel,
		SwapBackend:  engine,
	})
	if err != nil {
		return fmt.Errorf("swapd: starting rpc server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Infof("received %s, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 2)
	go func() { errCh <- relayServer.Start() }()
	go func() { errCh <- rpcServer.Start() }()

	log.Infof("swapd listening: rpc=%s relay=%s", rpcServer.HTTPURL(), relayServer.HTTPURL())

	<-ctx.Done()
	_ = relayServer.Stop()
	_ = rpcServer.Stop()
	return nil
}
