// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package chainobserver

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/PHCitizen/bch-xmr-swap/contract"
)

type addressHistoryEntry struct {
	TxHash string `json:"tx_hash"`
	Height int64  `json:"height"`
}

type txGetResult struct {
	Confirmations uint32 `json:"confirmations"`
	Hex           string `json:"hex"`
}

// ConfirmedTx pairs a decoded transaction with its confirmation count.
type ConfirmedTx struct {
	Tx            *contract.Transaction
	Confirmations uint32
}

// Caller is the subset of *Electrum's behavior ScanAddressConfirmedTx and
// BroadcastTransaction need, factored out so they can be tested against a
// fake Electrum connection without opening a real socket.
type Caller interface {
	Call(method string, params interface{}) (json.RawMessage, error)
}

// ScanAddressConfirmedTx fetches every transaction that has ever touched
// address and returns the ones with at least minConf confirmations,
// mirroring original_source/protocol/src/blockchain/mod.rs's
// scan_address_conf_tx: mempool entries (height == 0) are skipped before
// even checking confirmations, since Electrum reports height 0 for them
// regardless of how long they have sat unconfirmed.
func ScanAddressConfirmedTx(e Caller, address string, minConf uint32) ([]ConfirmedTx, error) {
	historyRaw, err := e.Call("blockchain.address.get_history", []interface{}{address, true})
	if err != nil {
		return nil, fmt.Errorf("chainobserver: get_history: %w", err)
	}

	var history []addressHistoryEntry
	if err := json.Unmarshal(historyRaw, &history); err != nil {
		return nil, fmt.Errorf("chainobserver: decoding history: %w", err)
	}

	var out []ConfirmedTx
	for _, entry := range history {
		if entry.Height == 0 {
			continue
		}

		txRaw, err := e.Call("blockchain.transaction.get", []interface{}{entry.TxHash, true})
		if err != nil {
			return nil, fmt.Errorf("chainobserver: transaction.get %s: %w", entry.TxHash, err)
		}

		var info txGetResult
		if err := json.Unmarshal(txRaw, &info); err != nil {
			return nil, fmt.Errorf("chainobserver: decoding tx info: %w", err)
		}
		if info.Confirmations < minConf {
			continue
		}

		raw, err := hex.DecodeString(info.Hex)
		if err != nil {
			return nil, fmt.Errorf("chainobserver: invalid tx hex: %w", err)
		}

		tx, err := contract.DecodeTransaction(raw)
		if err != nil {
			log.Warnf("chainobserver: skipping malformed transaction %s: %s", entry.TxHash, err)
			continue
		}

		out = append(out, ConfirmedTx{Tx: tx, Confirmations: info.Confirmations})
	}

	return out, nil
}

// BroadcastTransaction submits a raw serialized transaction to the
// network.
func BroadcastTransaction(e Caller, raw []byte) (string, error) {
	resultRaw, err := e.Call("blockchain.transaction.broadcast", []interface{}{hex.EncodeToString(raw)})
	if err != nil {
		return "", fmt.Errorf("chainobserver: broadcast: %w", err)
	}

	var txid string
	if err := json.Unmarshal(resultRaw, &txid); err != nil {
		return "", fmt.Errorf("chainobserver: decoding broadcast result: %w", err)
	}
	return txid, nil
}
