// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package walletservice wraps monero-wallet-rpc to satisfy spec.md §1's
// WalletService collaborator: creating the joint view-only wallet from a
// shared ViewPair, and reporting its unlocked balance so a role's state
// machine can confirm an XMR deposit. It uses the same
// `github.com/MarinX/monerorpc/wallet` client the teacher imports for its
// own balance queries in rpc/server.go, rather than hand-rolling a
// monero-wallet-rpc JSON-RPC client.
package walletservice

import (
	"encoding/hex"
	"fmt"

	"github.com/MarinX/monerorpc/wallet"
	logging "github.com/ipfs/go-log"

	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
)

var log = logging.Logger("walletservice")

// Service wraps a monero-wallet-rpc endpoint.
type Service struct {
	client *wallet.Client
}

// New builds a Service talking to the monero-wallet-rpc instance at
// rpcURL (eg. "http://127.0.0.1:28084/json_rpc").
func New(rpcURL string) *Service {
	return &Service{client: wallet.New(wallet.Config{Address: rpcURL})}
}

// walletFilename derives a stable per-trade wallet file name from the
// shared spend public key, so restarting the daemon reopens the same
// on-disk wallet instead of generating a fresh one.
func walletFilename(vp monero.ViewPair) string {
	spend := vp.Spend.Bytes()
	return "swap-" + hex.EncodeToString(spend[:8])
}

// OpenOrCreateViewWallet opens the joint view-only wallet for vp,
// generating it from keys first if it does not already exist. network
// selects which address prefix the view-only wallet is created under.
func (s *Service) OpenOrCreateViewWallet(network common.XmrNetwork, vp monero.ViewPair, restoreHeight uint64) error {
	filename := walletFilename(vp)
	view := vp.View.Bytes()

	address, err := monero.Address(network, vp)
	if err != nil {
		return fmt.Errorf("walletservice: deriving view wallet address: %w", err)
	}

	_, genErr := s.client.GenerateFromKeys(&wallet.RequestGenerateFromKeys{
		Filename:      filename,
		Password:      "",
		Address:       address,
		Viewkey:       hex.EncodeToString(view[:]),
		Spendkey:      "",
		RestoreHeight: restoreHeight,
		Autosave:      true,
	})
	if genErr != nil {
		log.Debugf("walletservice: wallet %s may already exist: %s", filename, genErr)
	}

	if err := s.client.OpenWallet(&wallet.RequestOpenWallet{
		Filename: filename,
		Password: "",
	}); err != nil {
		return fmt.Errorf("walletservice: opening wallet %s: %w", filename, err)
	}

	return nil
}

// UnlockedBalance returns the wallet's current unlocked balance.
func (s *Service) UnlockedBalance() (coins.PiconeroAmount, error) {
	resp, err := s.client.GetBalance(&wallet.RequestGetBalance{AccountIndex: 0})
	if err != nil {
		return 0, fmt.Errorf("walletservice: get_balance: %w", err)
	}
	return coins.NewPiconeroAmount(uint64(resp.UnlockedBalance)), nil
}

// Refresh asks the wallet to rescan the chain for new outputs.
func (s *Service) Refresh() error {
	if err := s.client.Refresh(&wallet.RequestRefresh{}); err != nil {
		return fmt.Errorf("walletservice: refresh: %w", err)
	}
	return nil
}
