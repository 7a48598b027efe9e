// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package rpc

import (
	"net/http"

	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/persist"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
	swapdb "github.com/PHCitizen/bch-xmr-swap/protocol/swap"
	"github.com/PHCitizen/bch-xmr-swap/runner"
)

// SwapBackend is the collaborator SwapService drives, satisfied by
// *runner.Engine; kept as an interface so this package never imports
// runner's concrete struct into test doubles. CreateTradeWithSwap mints a
// fresh Swap (and this side's own KeyPrivate) locally before registering
// it, used by Make; StartAlice negotiates a trade ID with a remote peer's
// relay first, used by Take, since the taker never picks her own ID.
type SwapBackend interface {
	CreateTradeWithSwap(swap *protocol.Swap) error
	StartAlice(
		xmrNetwork common.XmrNetwork, bchNetwork common.BchNetwork, bchRecv []byte,
		xmrAmount coins.PiconeroAmount, bchAmount coins.SatAmount,
		timelock1, timelock2 int64, peerURL string,
	) (*persist.Trade, error)
	Status(id string) (*runner.TradeStatus, error)
	ListActive() []string
	Archive() swapdb.Manager
	Recover(id string) error
}

var _ SwapBackend = (*runner.Engine)(nil)

// SwapService implements gorilla/rpc's calling convention for this
// system's trade operations.
type SwapService struct {
	backend SwapBackend
}

// NewSwapService constructs a SwapService.
func NewSwapService(backend SwapBackend) *SwapService {
	return &SwapService{backend: backend}
}

// MakeRequest is SwapService.Make's request: the parameters of a new
// trade this daemon will play Bob (the maker) in.
type MakeRequest struct {
	XmrNetwork        string `json:"xmr_network"`
	BchNetwork        string `json:"bch_network"`
	BchRecvAddress    string `json:"bch_recv_address"`
	XmrAmountPiconero uint64 `json:"xmr_amount_piconero"`
	BchAmountSats     uint64 `json:"bch_amount_sats"`
	Timelock1         int64  `json:"timelock1"`
	Timelock2         int64  `json:"timelock2"`
}

// MakeResponse is SwapService.Make's reply.
type MakeResponse struct {
	TradeID string `json:"trade_id"`
}

// Make builds a fresh Swap and registers it with this daemon's own relay,
// always playing Bob, the maker who waits to be approached.
func (s *SwapService) Make(_ *http.Request, req *MakeRequest, resp *MakeResponse) error {
	xmrNetwork, err := common.ParseXmrNetwork(req.XmrNetwork)
	if err != nil {
		return err
	}
	bchNetwork, err := common.ParseBchNetwork(req.BchNetwork)
	if err != nil {
		return err
	}

	recvScript, err := contract.LockingScriptForAddress(req.BchRecvAddress)
	if err != nil {
		return err
	}

	swap, err := protocol.New(
		xmrNetwork, bchNetwork, recvScript,
		coins.NewPiconeroAmount(req.XmrAmountPiconero),
		coins.NewSatAmount(req.BchAmountSats),
		req.Timelock1, req.Timelock2,
	)
	if err != nil {
		return err
	}

	if err := s.backend.CreateTradeWithSwap(swap); err != nil {
		return err
	}

	resp.TradeID = swap.ID
	return nil
}

// TakeRequest is SwapService.Take's request: the terms of a trade to
// negotiate with a maker's relay at PeerURL. It carries no key material
// and no trade ID of its own — like MakeRequest, it is the negotiable
// terms only; the maker's relay mints the trade ID and Alice mints her
// own KeyPrivate locally once it is known.
type TakeRequest struct {
	XmrNetwork        string `json:"xmr_network"`
	BchNetwork        string `json:"bch_network"`
	BchRecvAddress    string `json:"bch_recv_address"`
	XmrAmountPiconero uint64 `json:"xmr_amount_piconero"`
	BchAmountSats     uint64 `json:"bch_amount_sats"`
	Timelock1         int64  `json:"timelock1"`
	Timelock2         int64  `json:"timelock2"`
	PeerURL           string `json:"peer_url"`
}

// TakeResponse is SwapService.Take's reply.
type TakeResponse struct {
	TradeID string `json:"trade_id"`
}

// Take begins driving a new trade as Alice (the taker), approaching the
// maker's relay at req.PeerURL and adopting whatever trade ID it assigns.
func (s *SwapService) Take(_ *http.Request, req *TakeRequest, resp *TakeResponse) error {
	xmrNetwork, err := common.ParseXmrNetwork(req.XmrNetwork)
	if err != nil {
		return err
	}
	bchNetwork, err := common.ParseBchNetwork(req.BchNetwork)
	if err != nil {
		return err
	}

	recvScript, err := contract.LockingScriptForAddress(req.BchRecvAddress)
	if err != nil {
		return err
	}

	trade, err := s.backend.StartAlice(
		xmrNetwork, bchNetwork, recvScript,
		coins.NewPiconeroAmount(req.XmrAmountPiconero), coins.NewSatAmount(req.BchAmountSats),
		req.Timelock1, req.Timelock2, req.PeerURL,
	)
	if err != nil {
		return err
	}
	resp.TradeID = trade.ID()
	return nil
}

// StatusRequest is SwapService.Status's request.
type StatusRequest struct {
	TradeID string `json:"trade_id"`
}

// StatusResponse is SwapService.Status's reply.
type StatusResponse struct {
	RoleKind          string `json:"role"`
	State             string `json:"state"`
	Done              bool   `json:"done"`
	BchDepositAddress string `json:"bch_deposit_address,omitempty"`
	XmrDepositAddress string `json:"xmr_deposit_address,omitempty"`
}

// Status reports a currently-active trade's role, state, and (once known)
// deposit addresses.
func (s *SwapService) Status(_ *http.Request, req *StatusRequest, resp *StatusResponse) error {
	status, err := s.backend.Status(req.TradeID)
	if err != nil {
		return err
	}
	resp.RoleKind = status.RoleKind
	resp.State = status.State
	resp.Done = status.Done
	resp.BchDepositAddress = status.BchDepositAddress
	resp.XmrDepositAddress = status.XmrDepositAddress
	return nil
}

// OngoingRequest is SwapService.Ongoing's (empty) request.
type OngoingRequest struct{}

// OngoingResponse is SwapService.Ongoing's reply.
type OngoingResponse struct {
	TradeIDs []string `json:"trade_ids"`
}

// Ongoing lists every trade currently being driven.
func (s *SwapService) Ongoing(_ *http.Request, _ *OngoingRequest, resp *OngoingResponse) error {
	resp.TradeIDs = s.backend.ListActive()
	return nil
}

// PastRequest is SwapService.Past's (empty) request.
type PastRequest struct{}

// PastResponse is SwapService.Past's reply.
type PastResponse struct {
	Swaps []*swapdb.Info `json:"swaps"`
}

// Past lists every archived (terminal) trade.
func (s *SwapService) Past(_ *http.Request, _ *PastRequest, resp *PastResponse) error {
	ids, err := s.backend.Archive().GetPastIDs()
	if err != nil {
		return err
	}

	resp.Swaps = make([]*swapdb.Info, 0, len(ids))
	for _, id := range ids {
		info, err := s.backend.Archive().GetPastSwap(id)
		if err != nil {
			return err
		}
		resp.Swaps = append(resp.Swaps, info)
	}
	return nil
}

// RecoverRequest is SwapService.Recover's request.
type RecoverRequest struct {
	TradeID string `json:"trade_id"`
}

// RecoverResponse is SwapService.Recover's (empty) reply.
type RecoverResponse struct{}

// Recover forces an immediate out-of-cycle chain/wallet re-check of
// trade_id, for an operator recovering from a missed push notification.
func (s *SwapService) Recover(_ *http.Request, req *RecoverRequest, _ *RecoverResponse) error {
	return s.backend.Recover(req.TradeID)
}
