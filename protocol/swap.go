// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package protocol

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/common"
)

// Swap is the trade-scoped immutable data both role state machines close
// over, per spec.md §3.
type Swap struct {
	ID string

	XmrNetwork common.XmrNetwork
	BchNetwork common.BchNetwork

	Keys *KeyPrivate

	// BchRecv is this party's recipient locking script (the Script bytes
	// of the address funds are paid out to on success).
	BchRecv []byte

	XmrAmount coins.PiconeroAmount
	BchAmount coins.SatAmount

	// Timelock1 is the SwapLock reclaim delay, BIP-68 sequence units,
	// must be <= 0xFFFF.
	Timelock1 int64
	// Timelock2 is the Refund timeout, same units and limit.
	Timelock2 int64
}

// New builds a fresh Swap with a random ID and random KeyPrivate.
func New(
	xmrNetwork common.XmrNetwork,
	bchNetwork common.BchNetwork,
	bchRecv []byte,
	xmrAmount coins.PiconeroAmount,
	bchAmount coins.SatAmount,
	timelock1, timelock2 int64,
) (*Swap, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	keys, err := GenerateKeyPrivate()
	if err != nil {
		return nil, err
	}

	return &Swap{
		ID:         id,
		XmrNetwork: xmrNetwork,
		BchNetwork: bchNetwork,
		Keys:       keys,
		BchRecv:    bchRecv,
		XmrAmount:  xmrAmount,
		BchAmount:  bchAmount,
		Timelock1:  timelock1,
		Timelock2:  timelock2,
	}, nil
}

type swapWire struct {
	ID         string            `json:"id"`
	XmrNetwork common.XmrNetwork `json:"xmr_network"`
	BchNetwork common.BchNetwork `json:"bch_network"`
	Keys       *KeyPrivate       `json:"keys"`
	BchRecv    string            `json:"bch_recv"`
	XmrAmount  uint64            `json:"xmr_amount"`
	BchAmount  uint64            `json:"bch_amount"`
	Timelock1  int64             `json:"timelock1"`
	Timelock2  int64             `json:"timelock2"`
}

// MarshalJSON implements json.Marshaler, hex-encoding BchRecv rather than
// relying on Go's default []byte-as-base64 encoding, to match spec.md
// §9's hex convention for every other byte field on the wire.
func (s *Swap) MarshalJSON() ([]byte, error) {
	return json.Marshal(swapWire{
		ID:         s.ID,
		XmrNetwork: s.XmrNetwork,
		BchNetwork: s.BchNetwork,
		Keys:       s.Keys,
		BchRecv:    hex.EncodeToString(s.BchRecv),
		XmrAmount:  s.XmrAmount.Piconero(),
		BchAmount:  s.BchAmount.Sats(),
		Timelock1:  s.Timelock1,
		Timelock2:  s.Timelock2,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Swap) UnmarshalJSON(data []byte) error {
	var wire swapWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	recv, err := hex.DecodeString(wire.BchRecv)
	if err != nil {
		return fmt.Errorf("protocol: invalid bch_recv hex: %w", err)
	}

	s.ID = wire.ID
	s.XmrNetwork = wire.XmrNetwork
	s.BchNetwork = wire.BchNetwork
	s.Keys = wire.Keys
	s.BchRecv = recv
	s.XmrAmount = coins.NewPiconeroAmount(wire.XmrAmount)
	s.BchAmount = coins.NewSatAmount(wire.BchAmount)
	s.Timelock1 = wire.Timelock1
	s.Timelock2 = wire.Timelock2
	return nil
}
