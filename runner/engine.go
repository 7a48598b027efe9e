// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logging "github.com/ipfs/go-log"

	"github.com/PHCitizen/bch-xmr-swap/chainobserver"
	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/crypto/adaptor"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
	"github.com/PHCitizen/bch-xmr-swap/persist"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
	"github.com/PHCitizen/bch-xmr-swap/protocol/bob"
	"github.com/PHCitizen/bch-xmr-swap/protocol/role"
	swapdb "github.com/PHCitizen/bch-xmr-swap/protocol/swap"
	"github.com/PHCitizen/bch-xmr-swap/relay"
	"github.com/PHCitizen/bch-xmr-swap/walletservice"
)

var log = logging.Logger("runner")

//go:generate mockgen -source=engine.go -destination=mocks/engine_mocks.go -package=mocks

// ChainObserver is the subset of *chainobserver.Electrum's behavior Engine
// depends on, factored out as an interface so tests can drive Engine
// against a mocked chain instead of a live Electrum connection, per
// spec.md §1's "chain observer" external collaborator.
type ChainObserver interface {
	ScanAddressConfirmedTx(address string, minConf uint32) ([]chainobserver.ConfirmedTx, error)
	BroadcastTransaction(raw []byte) (string, error)
}

// WalletService is the subset of *walletservice.Service's behavior Engine
// depends on, factored out as an interface so tests can drive Engine
// against a mocked wallet instead of a live monero-wallet-rpc instance,
// per spec.md §1's "Monero wallet service" external collaborator.
type WalletService interface {
	OpenOrCreateViewWallet(network common.XmrNetwork, vp monero.ViewPair, restoreHeight uint64) error
	Refresh() error
	UnlockedBalance() (coins.PiconeroAmount, error)
}

// Engine is the orchestrator spec.md §4.5 describes: the only component
// that touches the chain observer, wallet service, persistence, and peer
// relay directly. It implements relay.Store so a relay.Server can sit in
// front of it to accept a counterparty's public Transitions, and it
// drives its own trades forward by polling the chain observer and wallet
// service for the private Transitions those collaborators feed the role
// state machine.
type Engine struct {
	ctx context.Context

	tradesDir        string
	observer         ChainObserver
	wallet           WalletService
	archive          swapdb.Manager
	minConfirmations uint32
	pollInterval     time.Duration

	// defaultXmrNetwork and defaultBchNetwork are the networks this side's
	// own relay mints new Bob trades under when approached via
	// POST /trader, since that wire body carries no network field
	// (spec.md §6): a relay only ever serves one network pair.
	defaultXmrNetwork common.XmrNetwork
	defaultBchNetwork common.BchNetwork
	// defaultBchRecv is this side's own BCH payout script for trades this
	// relay creates as Bob.
	defaultBchRecv []byte

	mu     sync.Mutex
	trades map[string]*activeTrade
}

// activeTrade is one trade's live, in-memory view: its persisted role plus
// everything the watch loop needs to know what chain/wallet state to poll
// for next.
type activeTrade struct {
	mu sync.Mutex

	trade *persist.Trade
	role  role.Role
	peer  *peerClient // nil when this side never calls out (the maker/Bob side)

	watchSwapLockAddress string
	watchRefundAddress   string
	watchXmrAddress      string
	createdView          bool

	cancel context.CancelFunc
	done   bool
}

var _ relay.Store = (*Engine)(nil)

// NewEngine builds an Engine persisting trades under tradesDir. observer
// and wallet are typically *chainobserver.Electrum and
// *walletservice.Service in production and a mock ChainObserver/
// WalletService in tests. defaultXmrNetwork, defaultBchNetwork, and
// defaultBchRecv are the terms this daemon's own relay mints new Bob
// trades under, since POST /trader's wire body carries no network or
// recipient-address field (spec.md §6).
func NewEngine(
	ctx context.Context,
	tradesDir string,
	observer ChainObserver,
	wallet WalletService,
	archive swapdb.Manager,
	minConfirmations uint32,
	pollInterval time.Duration,
	defaultXmrNetwork common.XmrNetwork,
	defaultBchNetwork common.BchNetwork,
	defaultBchRecv []byte,
) *Engine {
	return &Engine{
		ctx:               ctx,
		tradesDir:         tradesDir,
		observer:          observer,
		wallet:            wallet,
		archive:           archive,
		minConfirmations:  minConfirmations,
		pollInterval:      pollInterval,
		defaultXmrNetwork: defaultXmrNetwork,
		defaultBchNetwork: defaultBchNetwork,
		defaultBchRecv:    defaultBchRecv,
		trades:            make(map[string]*activeTrade),
	}
}

func (e *Engine) tradePath(id string) string {
	return filepath.Join(e.tradesDir, id+".json")
}

// CreateTrade implements relay.Store: it is invoked when a remote
// counterparty POSTs negotiation terms to this daemon's own relay
// (spec.md §6). No key material ever arrives on that wire — this side
// mints its own fresh KeyPrivate and trade ID via protocol.New, exactly
// as Make does for a locally-initiated trade. This side of the protocol
// always plays Bob, the maker who waits to be approached, per the
// original implementation's web-server/src/trader.rs, so params.Path must
// be "xmr->bch" (an XMR-sender approaching a BCH-sender's relay); any
// other value is a path this daemon never implements.
func (e *Engine) CreateTrade(params relay.CreateTradeParams) (string, error) {
	if params.Path != "xmr->bch" {
		return "", relay.ErrUnknownPath
	}
	if params.Timelock1 <= 0 || params.Timelock1 > contract.MaxTimelock || params.Timelock2 <= 0 || params.Timelock2 > contract.MaxTimelock {
		return "", relay.NewValidationError("timelock out of range")
	}
	if params.BchAmount == 0 || params.XmrAmount == 0 {
		return "", relay.NewValidationError("amount must be nonzero")
	}

	swap, err := protocol.New(
		e.defaultXmrNetwork, e.defaultBchNetwork, e.defaultBchRecv,
		coins.NewPiconeroAmount(params.XmrAmount), coins.NewSatAmount(params.BchAmount),
		params.Timelock1, params.Timelock2,
	)
	if err != nil {
		return "", relay.NewValidationError(err.Error())
	}

	if _, err := e.startTrade(swap, role.NewBob(swap), nil); err != nil {
		return "", err
	}
	return swap.ID, nil
}

// CreateTradeWithSwap registers and begins driving a trade as Bob from a
// Swap minted by the caller (rpc.SwapService.Make, for a locally-initiated
// trade with no remote relay involved). Like CreateTrade it always plays
// Bob; unlike CreateTrade, the caller already generated swap's ID and
// KeyPrivate via protocol.New, since Make's caller is this daemon's own
// operator rather than an unauthenticated remote party.
func (e *Engine) CreateTradeWithSwap(swap *protocol.Swap) error {
	_, err := e.startTrade(swap, role.NewBob(swap), nil)
	return err
}

// StartAlice registers and begins driving a new trade as Alice, the
// taker who approaches a maker's relay at peerURL, per the original
// implementation's client/src/main.rs. The peer's relay assigns the
// trade ID; Alice never picks her own.
func (e *Engine) StartAlice(
	xmrNetwork common.XmrNetwork, bchNetwork common.BchNetwork, bchRecv []byte,
	xmrAmount coins.PiconeroAmount, bchAmount coins.SatAmount,
	timelock1, timelock2 int64, peerURL string,
) (*persist.Trade, error) {
	peer := newPeerClient(peerURL, "")
	tradeID, err := peer.createTrade(relay.CreateTradeParams{
		Path:      "xmr->bch",
		Timelock1: timelock1,
		Timelock2: timelock2,
		BchAmount: bchAmount.Sats(),
		XmrAmount: xmrAmount.Piconero(),
	})
	if err != nil {
		return nil, fmt.Errorf("runner: registering trade with peer: %w", err)
	}
	peer.tradeID = tradeID

	swap, err := protocol.New(xmrNetwork, bchNetwork, bchRecv, xmrAmount, bchAmount, timelock1, timelock2)
	if err != nil {
		return nil, err
	}
	swap.ID = tradeID

	return e.startTrade(swap, role.NewAlice(swap), peer)
}

func (e *Engine) startTrade(swap *protocol.Swap, r role.Role, peer *peerClient) (*persist.Trade, error) {
	trade, err := persist.Create(e.tradePath(swap.ID), swap, swap.Keys.Ves, r)
	if err != nil {
		return nil, err
	}

	at := &activeTrade{trade: trade, role: r, peer: peer}
	e.register(swap.ID, at)

	if err := e.runOutbound(at); err != nil {
		log.Warnf("swap %s: initial outbound transition failed: %s", swap.ID, err)
	}
	return trade, nil
}

// Resume reloads every trade file under tradesDir and restarts its watch
// loop, for recovering from a daemon restart mid-swap.
func (e *Engine) Resume() error {
	entries, err := os.ReadDir(e.tradesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("runner: reading trades directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(e.tradesDir, entry.Name())
		trade, err := persist.Open(path)
		if err != nil {
			log.Warnf("runner: skipping unreadable trade file %s: %s", path, err)
			continue
		}

		r, err := trade.Role()
		if err != nil {
			log.Warnf("runner: skipping trade %s with undecodable state: %s", trade.Config.Swap.ID, err)
			_ = trade.Close()
			continue
		}

		at := &activeTrade{trade: trade, role: r}
		e.register(trade.Config.Swap.ID, at)
		log.Infof("swap %s: resumed in state %s", trade.Config.Swap.ID, at.role.StateKind())
	}
	return nil
}

func (e *Engine) register(id string, at *activeTrade) {
	ctx, cancel := context.WithCancel(e.ctx)
	at.cancel = cancel

	e.mu.Lock()
	e.trades[id] = at
	e.mu.Unlock()

	go e.watch(ctx, id, at)
}

func (e *Engine) get(id string) (*activeTrade, error) {
	e.mu.Lock()
	at, ok := e.trades[id]
	e.mu.Unlock()
	if !ok {
		return nil, relay.ErrNotFound
	}
	return at, nil
}

// TradeStatus is the operator-facing summary of one active trade, for
// swapcli's status queries.
type TradeStatus struct {
	ID       string
	RoleKind string
	State    string
	Done     bool

	// BchDepositAddress is the SwapLock contract's CashAddr, once both
	// parties' keys are known, for QR display.
	BchDepositAddress string
	// XmrDepositAddress is the joint view-only account's address, once
	// the shared view key has been established, for QR display.
	XmrDepositAddress string
}

// Status returns the current summary of trade id, or relay.ErrNotFound.
func (e *Engine) Status(id string) (*TradeStatus, error) {
	at, err := e.get(id)
	if err != nil {
		return nil, err
	}
	at.mu.Lock()
	defer at.mu.Unlock()

	roleKind, _ := at.role.MarshalKind()
	status := &TradeStatus{
		ID:       id,
		RoleKind: roleKind,
		State:    at.role.StateKind(),
		Done:     at.done,
	}

	if pair := contractPair(at.role); pair != nil {
		status.BchDepositAddress = pair.SwapLock.CashAddress()
	}
	if addr, err := SharedViewAddress(at.role); err == nil {
		status.XmrDepositAddress = addr
	}
	return status, nil
}

// contractPair returns the role's negotiated contract pair, or nil if the
// parties have not reached that stage yet.
func contractPair(r role.Role) *contract.Pair {
	switch r.Kind {
	case role.KindAlice:
		return r.Alice.State.ContractPair
	case role.KindBob:
		return r.Bob.State.ContractPair
	default:
		return nil
	}
}

// ListActive returns the IDs of every trade this engine is currently
// driving (ongoing, not yet archived).
func (e *Engine) ListActive() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.trades))
	for id := range e.trades {
		ids = append(ids, id)
	}
	return ids
}

// Archive returns the completed-trade archive backing this engine, for
// swapcli's "past" query.
func (e *Engine) Archive() swapdb.Manager {
	return e.archive
}

// Recover forces an immediate out-of-cycle poll of trade id's watched
// chain and wallet state, rather than waiting for the next scheduled
// tick, for an operator who suspects a push notification was missed.
func (e *Engine) Recover(id string) error {
	at, err := e.get(id)
	if err != nil {
		return err
	}
	e.pollTrade(id, at)
	return nil
}

// SubmitTransition implements relay.Store.
func (e *Engine) SubmitTransition(id string, t protocol.Transition) (protocol.Transition, error) {
	at, err := e.get(id)
	if err != nil {
		return nil, err
	}
	return e.apply(at, t)
}

// GetTransition implements relay.Store.
func (e *Engine) GetTransition(id string) (protocol.Transition, error) {
	at, err := e.get(id)
	if err != nil {
		return nil, err
	}
	at.mu.Lock()
	defer at.mu.Unlock()
	return at.role.GetTransition(), nil
}

// apply feeds t to the trade's role machine, persists the result, and
// interprets whatever Actions the transition emitted. It is the single
// choke point both the HTTP edge (SubmitTransition) and the background
// watch loop funnel private and public transitions through.
func (e *Engine) apply(at *activeTrade, t protocol.Transition) (protocol.Transition, error) {
	at.mu.Lock()
	defer at.mu.Unlock()

	if at.done {
		return nil, fmt.Errorf("runner: trade %s already finished", at.trade.Config.Swap.ID)
	}

	next, actions, protoErr := at.role.Transition(t)
	at.role = next

	if err := at.trade.SetRole(at.role); err != nil {
		log.Errorf("swap %s: encoding role state: %s", at.trade.Config.Swap.ID, err)
	} else if err := at.trade.Save(); err != nil {
		log.Errorf("swap %s: saving trade file: %s", at.trade.Config.Swap.ID, err)
	}

	e.runActions(at, actions)

	if protoErr != nil {
		return nil, protoErr
	}
	return at.role.GetTransition(), nil
}

// runOutbound pushes the trade's current GetTransition() to its peer, if
// one is configured, and immediately applies whatever transition the peer
// sends back. Used on trade creation (Alice's Msg0) and opportunistically
// whenever a private transition advances local state far enough to have
// something new worth sending.
func (e *Engine) runOutbound(at *activeTrade) error {
	at.mu.Lock()
	peer := at.peer
	outbound := at.role.GetTransition()
	at.mu.Unlock()

	if peer == nil || outbound == nil {
		return nil
	}

	reply, err := peer.submit(outbound)
	if err != nil {
		return err
	}
	if reply == nil {
		return nil
	}
	_, err = e.apply(at, reply)
	return err
}

// runActions interprets the side effects a Transition emitted. It must be
// called with at.mu held.
func (e *Engine) runActions(at *activeTrade, actions []protocol.Action) {
	id := at.trade.Config.Swap.ID

	for _, action := range actions {
		switch a := action.(type) {
		case protocol.SafeDeleteAction:
			log.Warnf("swap %s: safe-deleting trade, no funds were locked", id)
			at.done = true
			if err := at.trade.Delete(); err != nil {
				log.Errorf("swap %s: deleting trade file: %s", id, err)
			}
			at.cancel()

		case protocol.TradeSuccessAction:
			log.Infof("swap %s: trade succeeded", id)
			at.done = true
			e.archiveTrade(id, at, swapdb.StatusSuccess)
			if err := at.trade.Delete(); err != nil {
				log.Errorf("swap %s: deleting trade file: %s", id, err)
			}
			at.cancel()

		case protocol.RefundAction:
			log.Warnf("swap %s: pursuing refund path", id)

		case protocol.WatchBchAddressAction:
			at.watchSwapLockAddress = a.SwapLockAddress
			at.watchRefundAddress = a.RefundAddress

		case protocol.WatchXmrAction:
			at.watchXmrAddress = a.Address

		case protocol.CreateXmrViewAction:
			if !at.createdView {
				restoreHeight := uint64(0)
				if at.role.Kind == role.KindBob {
					restoreHeight = at.role.Bob.State.RestoreHeight
				}
				if err := e.wallet.OpenOrCreateViewWallet(at.trade.Config.Swap.XmrNetwork, a.ViewPair, restoreHeight); err != nil {
					log.Errorf("swap %s: opening view wallet: %s", id, err)
				} else {
					at.createdView = true
				}
			}

		case protocol.LockBchAction:
			log.Infof("swap %s: awaiting BCH deposit of %s to %s", id, a.Amount.AsBCHString(), a.Address)

		case protocol.LockXmrAction:
			log.Infof("swap %s: awaiting XMR deposit of %s to %s", id, a.Amount.AsMoneroString(), a.Address)

		case protocol.UnlockBchNormalAction:
			e.broadcastUnlock(id, at, false)

		case protocol.UnlockBchFallbackAction:
			e.broadcastUnlock(id, at, true)
		}
	}

	if !at.done {
		go func() {
			if err := e.runOutbound(at); err != nil {
				log.Warnf("swap %s: pushing outbound transition: %s", id, err)
			}
		}()
	}
}

func (e *Engine) archiveTrade(id string, at *activeTrade, status swapdb.Status) {
	roleKind, _ := at.role.MarshalKind()
	if err := e.archive.AddSwap(&swapdb.Info{
		ID:        id,
		RoleKind:  roleKind,
		Status:    status,
		StartTime: time.Now(),
	}); err != nil {
		log.Errorf("swap %s: archiving: %s", id, err)
	}
}

// broadcastUnlock builds and broadcasts Alice's happy-path or timelock-path
// spend of the SwapLock outpoint. fallback selects the timelock branch
// (push(nil) unlocker, nSequence set to the covenant's relative timelock,
// per spec.md §9's resolved Open Question on the refund path). The
// timelock branch runs only for UnlockBchFallbackAction, which neither role
// emits; RefundAction is only logged, and no check is made here that the
// timelock has matured before broadcasting.
func (e *Engine) broadcastUnlock(id string, at *activeTrade, fallback bool) {
	if at.role.Kind != role.KindAlice {
		return
	}

	var raw []byte
	if fallback {
		state := at.role.Alice.State
		if state.Outpoint == nil || state.ContractPair == nil {
			log.Warnf("swap %s: cannot build fallback unlock, missing outpoint", id)
			return
		}

		lock := state.ContractPair.SwapLock
		unlocker := lock.UnlockingScript(nil)
		output := contract.TxOut{
			Value:  int64(at.trade.Config.Swap.BchAmount.Sats()) - lock.MiningFee,
			Script: lock.FailedOutput,
		}
		raw = contract.EncodeTransaction(2, 0, []contract.SpendingInput{{
			PreviousOutpoint: *state.Outpoint,
			ScriptSig:        unlocker,
			Sequence:         uint32(lock.Timelock),
		}}, []contract.TxOut{output})
	} else {
		tx, err := at.role.Alice.GetUnlockTx()
		if err != nil {
			log.Errorf("swap %s: building unlock tx: %s", id, err)
			return
		}
		raw = contract.EncodeTransaction(tx.Version, tx.LockTime, []contract.SpendingInput{{
			PreviousOutpoint: tx.Input.PreviousOutpoint,
			ScriptSig:        tx.Input.ScriptSig,
			Sequence:         0xFFFFFFFF,
		}}, []contract.TxOut{tx.Output})
	}

	txid, err := e.observer.BroadcastTransaction(raw)
	if err != nil {
		log.Errorf("swap %s: broadcasting unlock transaction: %s", id, err)
		return
	}
	log.Infof("swap %s: broadcast unlock transaction %s", id, txid)
}

// watch is the per-trade background loop: it polls the chain observer and
// wallet service for whatever this trade currently cares about, feeding
// any newly observed event into the role machine as a private Transition.
func (e *Engine) watch(ctx context.Context, id string, at *activeTrade) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollTrade(id, at)
		}
	}
}

func (e *Engine) pollTrade(id string, at *activeTrade) {
	at.mu.Lock()
	done := at.done
	swaplockAddr := at.watchSwapLockAddress
	refundAddr := at.watchRefundAddress
	xmrAddr := at.watchXmrAddress
	kind := at.role.Kind
	watchingSwapLockSpend := kind == role.KindBob && at.role.Bob.State.Kind == bob.MoneroLocked
	at.mu.Unlock()

	if done {
		return
	}

	if swaplockAddr != "" {
		e.pollBchAddress(id, at, swaplockAddr)
	}
	if refundAddr != "" {
		e.pollBchAddress(id, at, refundAddr)
	}

	if watchingSwapLockSpend {
		e.pollSwapLockSpend(id, at)
	}

	if xmrAddr != "" {
		e.pollXmrBalance(id, at)
	}
}

func (e *Engine) pollBchAddress(id string, at *activeTrade, address string) {
	confirmed, err := e.observer.ScanAddressConfirmedTx(address, e.minConfirmations)
	if err != nil {
		log.Warnf("swap %s: scanning %s: %s", id, address, err)
		return
	}

	for _, c := range confirmed {
		if _, err := e.apply(at, protocol.BchConfirmedTxTransition{Tx: c.Tx}); err != nil {
			log.Debugf("swap %s: applying observed transaction: %s", id, err)
		}
	}
}

// pollSwapLockSpend is Bob's side of watching for Alice's happy-path
// spend: unlike Alice, Bob's state machine does not classify raw
// transactions itself (it only ever sees a DecSigTransition), so the
// runner does the classification and signature extraction spec.md §4.4
// assigns it.
func (e *Engine) pollSwapLockSpend(id string, at *activeTrade) {
	at.mu.Lock()
	state := at.role.Bob.State
	at.mu.Unlock()
	if state.ContractPair == nil {
		return
	}

	confirmed, err := e.observer.ScanAddressConfirmedTx(state.ContractPair.SwapLock.CashAddress(), e.minConfirmations)
	if err != nil {
		log.Warnf("swap %s: scanning swaplock spend: %s", id, err)
		return
	}

	swap := at.trade.Config.Swap
	for _, c := range confirmed {
		_, kind, found := contract.AnalyzeTx(
			c.Tx, state.ContractPair, int64(swap.BchAmount.Sats()), state.AliceBchRecv, swap.BchRecv,
		)
		if !found || kind != contract.KindSwapLockToAlice {
			continue
		}

		der, ok := contract.UnlockerPush(c.Tx.Inputs[0].ScriptSig)
		if !ok {
			log.Warnf("swap %s: could not extract signature from swaplock spend", id)
			continue
		}
		sig, err := adaptor.SignatureFromDER(der)
		if err != nil {
			log.Warnf("swap %s: decoding swaplock spend signature: %s", id, err)
			continue
		}

		if _, err := e.apply(at, protocol.DecSigTransition{Sig: sig}); err != nil {
			log.Debugf("swap %s: applying decsig: %s", id, err)
		}
	}
}

func (e *Engine) pollXmrBalance(id string, at *activeTrade) {
	if err := e.wallet.Refresh(); err != nil {
		log.Debugf("swap %s: refreshing wallet: %s", id, err)
	}

	balance, err := e.wallet.UnlockedBalance()
	if err != nil {
		log.Warnf("swap %s: checking unlocked balance: %s", id, err)
		return
	}
	if balance == 0 {
		return
	}

	if _, err := e.apply(at, protocol.XmrLockVerifiedTransition{Amount: balance}); err != nil {
		log.Debugf("swap %s: applying xmr lock verified: %s", id, err)
	}
}

// SharedViewAddress returns the Monero address of a trade's joint
// view-only account, for operator display (eg. a QR-coded deposit
// address), or an error if the trade has not reached that stage yet.
func SharedViewAddress(r role.Role) (string, error) {
	var vp monero.ViewPair
	switch r.Kind {
	case role.KindAlice:
		vp = r.Alice.State.SharedView
	case role.KindBob:
		vp = r.Bob.State.SharedView
	default:
		return "", fmt.Errorf("runner: zero-value role has no shared view")
	}
	if vp.Spend == nil {
		return "", fmt.Errorf("runner: shared view not yet established")
	}
	return monero.Address(r.Swap().XmrNetwork, vp)
}
