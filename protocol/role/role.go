// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package role wraps protocol/alice and protocol/bob behind a single
// tagged union so the runner, persistence layer, and relay can drive
// either half of a trade without a type switch at every call site, per
// spec.md §9's "dual-role polymorphism". It lives apart from package
// protocol itself to avoid an import cycle: protocol/alice and
// protocol/bob both import protocol, so only a separate package can
// import both of them.
package role

import (
	"encoding/json"
	"fmt"

	"github.com/PHCitizen/bch-xmr-swap/protocol"
	"github.com/PHCitizen/bch-xmr-swap/protocol/alice"
	"github.com/PHCitizen/bch-xmr-swap/protocol/bob"
)

// Kind tags which half of the trade a Role is driving.
type Kind int

const (
	// KindAlice holds XMR and wants BCH.
	KindAlice Kind = iota
	// KindBob holds BCH and wants XMR.
	KindBob
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindAlice:
		return "alice"
	case KindBob:
		return "bob"
	default:
		return "unknown"
	}
}

// Role is the tagged union of the two concrete role state machines. Only
// the field matching Kind is populated.
type Role struct {
	Kind  Kind
	Alice *alice.Alice
	Bob   *bob.Bob
}

// NewAlice wraps a fresh Alice state machine for swap.
func NewAlice(swap *protocol.Swap) Role {
	return Role{Kind: KindAlice, Alice: alice.New(swap)}
}

// NewBob wraps a fresh Bob state machine for swap.
func NewBob(swap *protocol.Swap) Role {
	return Role{Kind: KindBob, Bob: bob.New(swap)}
}

// Swap returns the trade-scoped immutable parameters, regardless of
// which concrete role is active.
func (r Role) Swap() *protocol.Swap {
	switch r.Kind {
	case KindAlice:
		return r.Alice.Swap
	case KindBob:
		return r.Bob.Swap
	default:
		panic("role: zero-value Role has no swap")
	}
}

// Transition dispatches to the active role's Transition, rewrapping the
// result in the same Kind.
func (r Role) Transition(t protocol.Transition) (Role, []protocol.Action, *protocol.Error) {
	switch r.Kind {
	case KindAlice:
		next, actions, err := r.Alice.Transition(t)
		return Role{Kind: KindAlice, Alice: next}, actions, err
	case KindBob:
		next, actions, err := r.Bob.Transition(t)
		return Role{Kind: KindBob, Bob: next}, actions, err
	default:
		panic("role: zero-value Role has no transition")
	}
}

// GetTransition dispatches to the active role's GetTransition.
func (r Role) GetTransition() protocol.Transition {
	switch r.Kind {
	case KindAlice:
		return r.Alice.GetTransition()
	case KindBob:
		return r.Bob.GetTransition()
	default:
		return nil
	}
}

// StateKind returns a human-readable label for the active role's current
// state, for logging and status reporting.
func (r Role) StateKind() string {
	switch r.Kind {
	case KindAlice:
		return r.Alice.State.Kind.String()
	case KindBob:
		return r.Bob.State.Kind.String()
	default:
		return "unknown"
	}
}

// Done reports whether the trade has reached a terminal state on this
// side (success or safe deletion already handled by the runner).
func (r Role) Done() bool {
	switch r.Kind {
	case KindAlice:
		return r.Alice.State.Kind == alice.ValidEncSig
	case KindBob:
		return r.Bob.State.Kind == bob.SwapSuccess
	default:
		return false
	}
}

// MarshalKind renders the Kind tag as the persist package writes it to
// disk alongside the role-specific state.
func (r Role) MarshalKind() (string, error) {
	switch r.Kind {
	case KindAlice, KindBob:
		return r.Kind.String(), nil
	default:
		return "", fmt.Errorf("role: cannot marshal zero-value Role")
	}
}

// kindFromString parses the string MarshalKind produces.
func kindFromString(s string) (Kind, error) {
	switch s {
	case "alice":
		return KindAlice, nil
	case "bob":
		return KindBob, nil
	default:
		return 0, fmt.Errorf("role: unknown role kind %q", s)
	}
}

// EncodeState marshals the active role's State, for persist.Trade to
// write alongside the trade's swap parameters so a crashed runner can
// resume mid-transition instead of restarting the whole trade.
func (r Role) EncodeState() (json.RawMessage, error) {
	switch r.Kind {
	case KindAlice:
		return json.Marshal(r.Alice.State)
	case KindBob:
		return json.Marshal(r.Bob.State)
	default:
		return nil, fmt.Errorf("role: cannot encode state of zero-value Role")
	}
}

// DecodeState reconstructs a Role around swap from a MarshalKind string
// and the State bytes EncodeState produced, the inverse persist.Open
// calls on restart.
func DecodeState(swap *protocol.Swap, kindStr string, state json.RawMessage) (Role, error) {
	kind, err := kindFromString(kindStr)
	if err != nil {
		return Role{}, err
	}

	switch kind {
	case KindAlice:
		a := alice.New(swap)
		if len(state) > 0 {
			if err := json.Unmarshal(state, &a.State); err != nil {
				return Role{}, fmt.Errorf("role: decoding alice state: %w", err)
			}
		}
		return Role{Kind: KindAlice, Alice: a}, nil
	case KindBob:
		b := bob.New(swap)
		if len(state) > 0 {
			if err := json.Unmarshal(state, &b.State); err != nil {
				return Role{}, fmt.Errorf("role: decoding bob state: %w", err)
			}
		}
		return Role{Kind: KindBob, Bob: b}, nil
	default:
		return Role{}, fmt.Errorf("role: unknown role kind %d", kind)
	}
}
