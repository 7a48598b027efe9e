// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package swap provides the management layer swapd uses to track ongoing
// and completed trades, grounded on the teacher's
// protocol/swap/manager.go ongoing/past split. It is a bookkeeping
// convenience distinct from the per-trade persist.Trade file that holds
// the one unit of truth spec.md §4.6/§6 requires (swap parameters plus
// refund private key): this package only ever archives a terminal
// trade's summary so an operator can query history without re-parsing
// every JSON file on disk, per SPEC_FULL.md §3's "Completed-trade
// archive".
package swap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ChainSafe/chaindb"
)

var errNoSwapWithID = errors.New("protocol/swap: unable to find swap with given ID")

const keyPrefix = "swap/"

// Status labels where a trade's Info sits in its lifecycle.
type Status int

const (
	// StatusOngoing means the trade has not reached a terminal state.
	StatusOngoing Status = iota
	// StatusSuccess means the role reached its terminal success state
	// (alice.ValidEncSig / bob.SwapSuccess).
	StatusSuccess
	// StatusRefunded means the trade was abandoned via the refund path.
	StatusRefunded
	// StatusAborted means the trade was abandoned via SafeDelete (a
	// terminal cryptographic check failed before any funds moved).
	StatusAborted
)

// IsOngoing reports whether s is the non-terminal status.
func (s Status) IsOngoing() bool {
	return s == StatusOngoing
}

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOngoing:
		return "ongoing"
	case StatusSuccess:
		return "success"
	case StatusRefunded:
		return "refunded"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Info is the archived summary of one trade, independent of the bulky
// cryptographic Role/Swap state the per-trade JSON file carries.
type Info struct {
	ID        string     `json:"id"`
	RoleKind  string     `json:"role"` // "alice" or "bob"
	Status    Status     `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Database is the storage collaborator Manager builds on. It is
// satisfied by a chaindb-backed LevelDB/Badger store.
type Database interface {
	PutSwap(info *Info) error
	GetSwap(id string) (*Info, error)
	GetAllSwaps() ([]*Info, error)
	Close() error
}

type chainDatabase struct {
	db chaindb.Database
}

// NewDB opens (creating if necessary) a chaindb-backed archive at path.
func NewDB(path string) (Database, error) {
	db, err := chaindb.NewBadgerDB(path)
	if err != nil {
		return nil, fmt.Errorf("protocol/swap: opening archive db: %w", err)
	}
	return &chainDatabase{db: db}, nil
}

func (d *chainDatabase) PutSwap(info *Info) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("protocol/swap: encoding info: %w", err)
	}
	return d.db.Put([]byte(keyPrefix+info.ID), raw)
}

func (d *chainDatabase) GetSwap(id string) (*Info, error) {
	raw, err := d.db.Get([]byte(keyPrefix + id))
	if err != nil {
		if errors.Is(err, chaindb.ErrKeyNotFound) {
			return nil, errNoSwapWithID
		}
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("protocol/swap: decoding info: %w", err)
	}
	return &info, nil
}

func (d *chainDatabase) GetAllSwaps() ([]*Info, error) {
	iter := d.db.NewIterator()
	defer iter.Release()

	var out []*Info
	for iter.Next() {
		key := string(iter.Key())
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}

		var info Info
		if err := json.Unmarshal(iter.Value(), &info); err != nil {
			return nil, fmt.Errorf("protocol/swap: decoding info: %w", err)
		}
		out = append(out, &info)
	}
	return out, nil
}

func (d *chainDatabase) Close() error {
	return d.db.Close()
}
