// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package runner is the orchestrator spec.md §4.5 describes: it is the
// only component that touches the chain observer, wallet service, and
// peer relay directly, translating what it observes into Transitions
// for a role.Role and interpreting the Actions that role emits.
package runner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/PHCitizen/bch-xmr-swap/net/message"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
	"github.com/PHCitizen/bch-xmr-swap/relay"
)

// peerClient is a thin HTTP client for a counterparty's relay server, per
// spec.md §1's stateless relay. tradeID is unknown (empty) until
// createTrade's response assigns one; the taker never picks its own.
type peerClient struct {
	baseURL string
	http    *http.Client
	tradeID string
}

func newPeerClient(baseURL, tradeID string) *peerClient {
	return &peerClient{baseURL: baseURL, http: http.DefaultClient, tradeID: tradeID}
}

// createTrade proposes a trade to the peer's relay per spec.md §6's
// POST /trader contract: only negotiation terms cross the wire, never key
// material, and the peer's response assigns the trade ID.
func (c *peerClient) createTrade(params relay.CreateTradeParams) (string, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Post(c.baseURL+"/trader", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("runner: posting trade to peer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("runner: peer rejected trade creation: %s: %s", resp.Status, raw)
	}

	var reply struct {
		TradeID string `json:"trade_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("runner: decoding peer's trade creation response: %w", err)
	}
	return reply.TradeID, nil
}

// submit sends a public Transition to the peer and returns whatever
// Transition the peer's GetTransition() yielded in response, or nil.
func (c *peerClient) submit(t protocol.Transition) (protocol.Transition, error) {
	raw, err := message.Encode(t)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPatch, c.baseURL+"/trader/"+c.tradeID, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runner: submitting transition to peer: %w", err)
	}
	defer resp.Body.Close()

	return decodeTransitionResponse(resp)
}

// poll fetches the peer's next outbound Transition, or nil if they have
// none pending.
func (c *peerClient) poll() (protocol.Transition, error) {
	resp, err := c.http.Get(c.baseURL + "/trader/" + c.tradeID)
	if err != nil {
		return nil, fmt.Errorf("runner: polling peer: %w", err)
	}
	defer resp.Body.Close()

	return decodeTransitionResponse(resp)
}

func decodeTransitionResponse(resp *http.Response) (protocol.Transition, error) {
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("runner: peer returned %s: %s", resp.Status, raw)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return message.Decode(raw)
}
