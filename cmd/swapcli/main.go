// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package main provides swapcli, a command-line client for a local swapd
// instance.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/skip2/go-qrcode"
	"github.com/urfave/cli/v2"

	"github.com/PHCitizen/bch-xmr-swap/rpc"
	"github.com/PHCitizen/bch-xmr-swap/rpcclient"
)

const flagSwapdAddress = "swapd-address"

var swapdAddressFlag = &cli.StringFlag{
	Name:    flagSwapdAddress,
	Aliases: []string{"a"},
	EnvVars: []string{"SWAPCLI_SWAPD_ADDRESS"},
	Value:   "http://127.0.0.1:5000",
	Usage:   "address of a running swapd's rpc server",
}

func main() {
	if err := cliApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("swapcli:"), err)
		os.Exit(1)
	}
}

func newClient(ctx *cli.Context) *rpcclient.Client {
	return rpcclient.New(ctx.String(flagSwapdAddress))
}

func cliApp() *cli.App {
	return &cli.App{
		Name:  "swapcli",
		Usage: "Client for swapd",
		Commands: []*cli.Command{
			{
				Name:   "version",
				Usage:  "Print swapd's build version",
				Action: runVersion,
				Flags:  []cli.Flag{swapdAddressFlag},
			},
			{
				Name:   "shutdown",
				Usage:  "Ask swapd to shut down",
				Action: runShutdown,
				Flags:  []cli.Flag{swapdAddressFlag},
			},
			{
				Name:  "make",
				Usage: "Create a new trade, playing the maker (Bob)",
				Flags: append([]cli.Flag{
					swapdAddressFlag,
					&cli.StringFlag{Name: "xmr-network", Value: "Mainnet"},
					&cli.StringFlag{Name: "bch-network", Value: "Mainnet"},
					&cli.StringFlag{Name: "bch-recv-address", Required: true, Usage: "CashAddr to receive BCH on success"},
					&cli.Uint64Flag{Name: "xmr-amount-piconero", Required: true},
					&cli.Uint64Flag{Name: "bch-amount-sats", Required: true},
					&cli.Int64Flag{Name: "timelock1", Value: 144},
					&cli.Int64Flag{Name: "timelock2", Value: 144},
				}),
				Action: runMake,
			},
			{
				Name:  "take",
				Usage: "Negotiate a new trade with a maker's relay, playing the taker (Alice)",
				Flags: append([]cli.Flag{
					swapdAddressFlag,
					&cli.StringFlag{Name: "xmr-network", Value: "Mainnet"},
					&cli.StringFlag{Name: "bch-network", Value: "Mainnet"},
					&cli.StringFlag{Name: "bch-recv-address", Required: true, Usage: "CashAddr to receive BCH on success"},
					&cli.Uint64Flag{Name: "xmr-amount-piconero", Required: true},
					&cli.Uint64Flag{Name: "bch-amount-sats", Required: true},
					&cli.Int64Flag{Name: "timelock1", Value: 144},
					&cli.Int64Flag{Name: "timelock2", Value: 144},
					&cli.StringFlag{Name: "peer-url", Required: true, Usage: "base URL of the maker's relay"},
				}),
				Action: runTake,
			},
			{
				Name:      "status",
				Usage:     "Show a trade's current state and deposit addresses",
				ArgsUsage: "<trade-id>",
				Flags: []cli.Flag{
					swapdAddressFlag,
					&cli.BoolFlag{Name: "qr", Usage: "also print deposit addresses as QR codes"},
				},
				Action: runStatus,
			},
			{
				Name:   "ongoing",
				Usage:  "List trade IDs currently being driven",
				Flags:  []cli.Flag{swapdAddressFlag},
				Action: runOngoing,
			},
			{
				Name:   "past",
				Usage:  "List completed trades",
				Flags:  []cli.Flag{swapdAddressFlag},
				Action: runPast,
			},
			{
				Name:      "recover",
				Usage:     "Force an out-of-cycle chain/wallet recheck of a trade",
				ArgsUsage: "<trade-id>",
				Flags:     []cli.Flag{swapdAddressFlag},
				Action:    runRecover,
			},
		},
	}
}

func runVersion(ctx *cli.Context) error {
	var resp rpc.VersionResponse
	if err := newClient(ctx).Call("daemon.Version", &rpc.VersionRequest{}, &resp); err != nil {
		return err
	}
	fmt.Println(resp.SwapdVersion)
	return nil
}

func runShutdown(ctx *cli.Context) error {
	var resp rpc.ShutdownResponse
	return newClient(ctx).Call("daemon.Shutdown", &rpc.ShutdownRequest{}, &resp)
}

func runMake(ctx *cli.Context) error {
	req := &rpc.MakeRequest{
		XmrNetwork:        ctx.String("xmr-network"),
		BchNetwork:        ctx.String("bch-network"),
		BchRecvAddress:    ctx.String("bch-recv-address"),
		XmrAmountPiconero: ctx.Uint64("xmr-amount-piconero"),
		BchAmountSats:     ctx.Uint64("bch-amount-sats"),
		Timelock1:         ctx.Int64("timelock1"),
		Timelock2:         ctx.Int64("timelock2"),
	}
	var resp rpc.MakeResponse
	if err := newClient(ctx).Call("swap.Make", req, &resp); err != nil {
		return err
	}
	fmt.Println(color.GreenString("created trade %s", resp.TradeID))
	return nil
}

func runTake(ctx *cli.Context) error {
	req := &rpc.TakeRequest{
		XmrNetwork:        ctx.String("xmr-network"),
		BchNetwork:        ctx.String("bch-network"),
		BchRecvAddress:    ctx.String("bch-recv-address"),
		XmrAmountPiconero: ctx.Uint64("xmr-amount-piconero"),
		BchAmountSats:     ctx.Uint64("bch-amount-sats"),
		Timelock1:         ctx.Int64("timelock1"),
		Timelock2:         ctx.Int64("timelock2"),
		PeerURL:           ctx.String("peer-url"),
	}
	var resp rpc.TakeResponse
	if err := newClient(ctx).Call("swap.Take", req, &resp); err != nil {
		return err
	}
	fmt.Println(color.GreenString("taking trade %s", resp.TradeID))
	return nil
}

func runStatus(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("usage: swapcli status <trade-id>")
	}

	req := &rpc.StatusRequest{TradeID: ctx.Args().Get(0)}
	var resp rpc.StatusResponse
	if err := newClient(ctx).Call("swap.Status", req, &resp); err != nil {
		return err
	}

	fmt.Printf("role:  %s\n", resp.RoleKind)
	fmt.Printf("state: %s\n", resp.State)
	fmt.Printf("done:  %v\n", resp.Done)
	if resp.BchDepositAddress != "" {
		fmt.Printf("bch deposit address: %s\n", resp.BchDepositAddress)
	}
	if resp.XmrDepositAddress != "" {
		fmt.Printf("xmr deposit address: %s\n", resp.XmrDepositAddress)
	}

	if ctx.Bool("qr") {
		if resp.BchDepositAddress != "" {
			if err := printQR(resp.BchDepositAddress, false); err != nil {
				return err
			}
		}
		if resp.XmrDepositAddress != "" {
			if err := printQR(resp.XmrDepositAddress, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func printQR(content string, inverted bool) error {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return err
	}
	fmt.Println(code.ToString(inverted))
	return nil
}

func runOngoing(ctx *cli.Context) error {
	var resp rpc.OngoingResponse
	if err := newClient(ctx).Call("swap.Ongoing", &rpc.OngoingRequest{}, &resp); err != nil {
		return err
	}
	for _, id := range resp.TradeIDs {
		fmt.Println(id)
	}
	return nil
}

func runPast(ctx *cli.Context) error {
	var resp rpc.PastResponse
	if err := newClient(ctx).Call("swap.Past", &rpc.PastRequest{}, &resp); err != nil {
		return err
	}
	for _, info := range resp.Swaps {
		fmt.Printf("%s\t%s\t%s\n", info.ID, info.RoleKind, info.Status)
	}
	return nil
}

func runRecover(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("usage: swapcli recover <trade-id>")
	}
	req := &rpc.RecoverRequest{TradeID: ctx.Args().Get(0)}
	var resp rpc.RecoverResponse
	return newClient(ctx).Call("swap.Recover", req, &resp)
}
