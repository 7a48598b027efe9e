// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package rpc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/cashaddr"
	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/persist"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
	"github.com/PHCitizen/bch-xmr-swap/protocol/role"
	swapdb "github.com/PHCitizen/bch-xmr-swap/protocol/swap"
	"github.com/PHCitizen/bch-xmr-swap/runner"
)

func testRecvAddress() string {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}
	return cashaddr.Encode(hash, "bitcoincash", 0)
}

type fakeBackend struct {
	created     *protocol.Swap
	recovered   string
	takePeerURL string
	takeRecv    []byte
	tradesDir   string
}

func (f *fakeBackend) CreateTradeWithSwap(swap *protocol.Swap) error {
	f.created = swap
	return nil
}

func (f *fakeBackend) StartAlice(
	xmrNetwork common.XmrNetwork, bchNetwork common.BchNetwork, bchRecv []byte,
	xmrAmount coins.PiconeroAmount, bchAmount coins.SatAmount,
	timelock1, timelock2 int64, peerURL string,
) (*persist.Trade, error) {
	f.takePeerURL = peerURL
	f.takeRecv = bchRecv

	swap, err := protocol.New(xmrNetwork, bchNetwork, bchRecv, xmrAmount, bchAmount, timelock1, timelock2)
	if err != nil {
		return nil, err
	}
	refundKey, err := bch.RandomPrivateKey()
	if err != nil {
		return nil, err
	}
	return persist.Create(filepath.Join(f.tradesDir, swap.ID+".json"), swap, refundKey, role.NewAlice(swap))
}

func (f *fakeBackend) Status(id string) (*runner.TradeStatus, error) {
	return &runner.TradeStatus{ID: id, RoleKind: "bob", State: "Init"}, nil
}

func (f *fakeBackend) ListActive() []string {
	return []string{"trade-1", "trade-2"}
}

func (f *fakeBackend) Archive() swapdb.Manager {
	return nil
}

func (f *fakeBackend) Recover(id string) error {
	f.recovered = id
	return nil
}

func TestSwapService_Ongoing(t *testing.T) {
	svc := NewSwapService(&fakeBackend{})

	var resp OngoingResponse
	require.NoError(t, svc.Ongoing(nil, &OngoingRequest{}, &resp))
	require.Equal(t, []string{"trade-1", "trade-2"}, resp.TradeIDs)
}

func TestSwapService_Status(t *testing.T) {
	svc := NewSwapService(&fakeBackend{})

	var resp StatusResponse
	require.NoError(t, svc.Status(nil, &StatusRequest{TradeID: "trade-1"}, &resp))
	require.Equal(t, "bob", resp.RoleKind)
	require.Equal(t, "Init", resp.State)
}

func TestSwapService_Recover(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewSwapService(backend)

	var resp RecoverResponse
	require.NoError(t, svc.Recover(nil, &RecoverRequest{TradeID: "trade-9"}, &resp))
	require.Equal(t, "trade-9", backend.recovered)
}

func TestSwapService_Make_GeneratesOwnKeys(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewSwapService(backend)

	req := &MakeRequest{
		XmrNetwork:        "Mainnet",
		BchNetwork:        "Mainnet",
		BchRecvAddress:    testRecvAddress(),
		XmrAmountPiconero: 1_000_000,
		BchAmountSats:     50_000,
		Timelock1:         144,
		Timelock2:         144,
	}
	var resp MakeResponse
	require.NoError(t, svc.Make(nil, req, &resp))
	require.NotNil(t, backend.created)
	require.Equal(t, resp.TradeID, backend.created.ID)
	require.NotNil(t, backend.created.Keys, "Make must mint a fresh KeyPrivate locally")
}

// TestSwapService_Take_NeverCarriesKeyMaterial locks in the fix for the
// key-leakage bug: TakeRequest's field set mirrors MakeRequest's
// negotiation terms and has no way to carry a *protocol.Swap (and
// therefore no Keys field) across the RPC boundary.
func TestSwapService_Take_NeverCarriesKeyMaterial(t *testing.T) {
	backend := &fakeBackend{tradesDir: t.TempDir()}
	svc := NewSwapService(backend)

	req := &TakeRequest{
		XmrNetwork:        "Mainnet",
		BchNetwork:        "Mainnet",
		BchRecvAddress:    testRecvAddress(),
		XmrAmountPiconero: 1_000_000,
		BchAmountSats:     50_000,
		Timelock1:         144,
		Timelock2:         144,
		PeerURL:           "http://peer.example:5001",
	}
	var resp TakeResponse
	require.NoError(t, svc.Take(nil, req, &resp))
	require.Equal(t, "http://peer.example:5001", backend.takePeerURL)
	require.NotEmpty(t, backend.takeRecv)
	require.NotEmpty(t, resp.TradeID)
}
