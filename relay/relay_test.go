// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/protocol"
)

// fakeStore is a Store double that records exactly what CreateTrade was
// called with, so a test can assert no key material ever reaches it.
type fakeStore struct {
	lastParams  CreateTradeParams
	createErr   error
	tradeID     string
	transitions map[string]protocol.Transition
	getErr      error
	submitCalls int
}

func (f *fakeStore) CreateTrade(params CreateTradeParams) (string, error) {
	f.lastParams = params
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.tradeID, nil
}

func (f *fakeStore) SubmitTransition(id string, t protocol.Transition) (protocol.Transition, error) {
	f.submitCalls++
	if f.transitions == nil {
		f.transitions = make(map[string]protocol.Transition)
	}
	f.transitions[id] = t
	return f.transitions[id], nil
}

func (f *fakeStore) GetTransition(id string) (protocol.Transition, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.transitions[id], nil
}

func newTestServer(store Store) *Server {
	return &Server{store: store}
}

func doCreateTrade(t *testing.T, s *Server, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/trader", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.createTrade(rec, req)
	return rec
}

func TestCreateTrade_NeverAcceptsKeyMaterial(t *testing.T) {
	store := &fakeStore{tradeID: "trade-1"}
	s := newTestServer(store)

	// A caller that tries to smuggle a "keys" field in the body finds it
	// silently dropped: CreateTradeParams has no field to decode it into.
	raw := []byte(`{"path":"xmr->bch","timelock1":144,"timelock2":144,"bch_amount":50000,"xmr_amount":1000000,"keys":{"monero_spend":"ff"}}`)
	req := httptest.NewRequest(http.MethodPost, "/trader", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.createTrade(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "xmr->bch", store.lastParams.Path)
	require.Equal(t, int64(144), store.lastParams.Timelock1)
	require.Equal(t, uint64(50000), store.lastParams.BchAmount)
	require.Equal(t, uint64(1000000), store.lastParams.XmrAmount)

	var resp createTradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "trade-1", resp.TradeID)
}

func TestCreateTrade_UnknownPathReturns501(t *testing.T) {
	store := &fakeStore{createErr: ErrUnknownPath}
	s := newTestServer(store)

	rec := doCreateTrade(t, s, CreateTradeParams{Path: "bch->xmr", Timelock1: 144, Timelock2: 144, BchAmount: 1, XmrAmount: 1})
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestCreateTrade_ValidationErrorReturns400(t *testing.T) {
	store := &fakeStore{createErr: NewValidationError("timelock out of range")}
	s := newTestServer(store)

	rec := doCreateTrade(t, s, CreateTradeParams{Path: "xmr->bch", Timelock1: 999999, Timelock2: 144, BchAmount: 1, XmrAmount: 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTrade_InternalErrorReturns500(t *testing.T) {
	store := &fakeStore{createErr: require.AnError}
	s := newTestServer(store)

	rec := doCreateTrade(t, s, CreateTradeParams{Path: "xmr->bch", Timelock1: 144, Timelock2: 144, BchAmount: 1, XmrAmount: 1})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateTrade_MalformedBodyReturns400(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	req := httptest.NewRequest(http.MethodPost, "/trader", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	s.createTrade(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitTransition_RejectsPrivateKind(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	// BchConfirmedTxTransition never has a wire encoding (it is a
	// runner-private kind), so it cannot be delivered via this route at
	// all; submitting an encodable-but-private kind like a raw DecSig
	// envelope must be rejected before reaching the store.
	raw := []byte(`{"DecSig":"` + hexZeros(64) + `"}`)
	req := httptest.NewRequest(http.MethodPatch, "/trader/trade-1", bytes.NewReader(raw))
	req = mux.SetURLVars(req, map[string]string{"id": "trade-1"})
	rec := httptest.NewRecorder()
	s.submitTransition(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, 0, store.submitCalls)
}

func TestGetTransition_NotFound(t *testing.T) {
	store := &fakeStore{getErr: ErrNotFound}
	s := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/trader/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	s.getTransition(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func hexZeros(n int) string {
	b := make([]byte, n*2)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
