// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package persist durably records the one piece of state a crash must
// never lose: a trade's Swap parameters and its refund private key,
// per spec.md's persistence format. Each trade gets its own JSON file,
// guarded by an exclusive advisory lock for the lifetime of the process
// driving it, mirroring the original implementation's single-file,
// single-process-owner design (original_source/protocol/src/persist.rs).
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
	"github.com/PHCitizen/bch-xmr-swap/protocol/role"
)

// ErrNotFound is returned by Open when no trade file exists at the given
// path.
var ErrNotFound = errors.New("persist: trade file not found")

// Config is the on-disk body of a trade file: the original implementation's
// persist.rs wraps the whole running state machine in its Config.swap
// field (protocol::SwapWrapper), so a crash loses nothing but the
// in-flight network message. RoleKind and State play that role here,
// kept alongside rather than inside Swap because protocol.Swap is this
// module's name for the trade's immutable parameters, not its mutable
// progress.
type Config struct {
	Swap             *protocol.Swap `json:"swap"`
	RefundPrivateKey string         `json:"refund_private_key"`
	RoleKind         string         `json:"role_kind"`
	State            json.RawMessage `json:"state"`
}

type configWire struct {
	Swap             json.RawMessage `json:"swap"`
	RefundPrivateKey string          `json:"refund_private_key"`
	RoleKind         string          `json:"role_kind"`
	State            json.RawMessage `json:"state"`
}

// Trade owns one trade's file handle and advisory lock for the lifetime
// of the runner process driving it.
type Trade struct {
	path   string
	lock   *flock.Flock
	Config Config
}

// Create makes a new trade file at path and takes its exclusive lock. It
// fails if a file already exists there — callers that want to resume an
// existing trade should use Open instead. r is the freshly constructed
// role.Role (role.NewAlice/role.NewBob) driving this trade.
func Create(path string, swap *protocol.Swap, refundKey *bch.PrivateKey, r role.Role) (*Trade, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("persist: creating trade directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("persist: creating trade file: %w", err)
	}
	_ = f.Close()

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("persist: locking trade file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("persist: trade file %s is locked by another process", path)
	}

	roleKind, err := r.MarshalKind()
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	state, err := r.EncodeState()
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	t := &Trade{
		path: path,
		lock: lock,
		Config: Config{
			Swap:             swap,
			RefundPrivateKey: refundKey.String(),
			RoleKind:         roleKind,
			State:            state,
		},
	}
	if err := t.Save(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return t, nil
}

// Open restores a trade file at path and takes its exclusive lock.
func Open(path string) (*Trade, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("persist: statting trade file: %w", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("persist: locking trade file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("persist: trade file %s is locked by another process", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("persist: reading trade file: %w", err)
	}

	var wire configWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("persist: decoding trade file: %w", err)
	}

	var swap protocol.Swap
	if err := json.Unmarshal(wire.Swap, &swap); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("persist: decoding swap: %w", err)
	}

	return &Trade{
		path: path,
		lock: lock,
		Config: Config{
			Swap:             &swap,
			RefundPrivateKey: wire.RefundPrivateKey,
			RoleKind:         wire.RoleKind,
			State:            wire.State,
		},
	}, nil
}

// ID returns the trade's swap ID, for callers that only hold a *Trade
// handle and need something to report back to an operator.
func (t *Trade) ID() string {
	return t.Config.Swap.ID
}

// Role decodes the trade's persisted role kind and state into a live
// role.Role the runner can resume driving.
func (t *Trade) Role() (role.Role, error) {
	return role.DecodeState(t.Config.Swap, t.Config.RoleKind, t.Config.State)
}

// SetRole re-encodes r into the Config so the next Save call persists it.
// The runner calls this after every Transition, per spec.md's crash
// recovery invariant: a trade must never resume from a state earlier
// than the last acknowledged transition.
func (t *Trade) SetRole(r role.Role) error {
	roleKind, err := r.MarshalKind()
	if err != nil {
		return err
	}
	state, err := r.EncodeState()
	if err != nil {
		return err
	}
	t.Config.RoleKind = roleKind
	t.Config.State = state
	return nil
}

// Save truncates and rewrites the trade file with the current Config,
// matching the original implementation's save() (set_len(0), rewind,
// write).
func (t *Trade) Save() error {
	raw, err := json.MarshalIndent(t.Config, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: encoding trade file: %w", err)
	}

	f, err := os.OpenFile(t.path, os.O_RDWR|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("persist: reopening trade file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(raw); err != nil {
		return fmt.Errorf("persist: writing trade file: %w", err)
	}
	return nil
}

// Delete releases the lock and removes the trade file, used when a role's
// Transition returns SafeDeleteAction.
func (t *Trade) Delete() error {
	defer t.lock.Unlock()
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("persist: deleting trade file: %w", err)
	}
	return nil
}

// Close releases the advisory lock without deleting the file, used when a
// trade is merely suspended (eg. process shutdown mid-swap).
func (t *Trade) Close() error {
	return t.lock.Unlock()
}
