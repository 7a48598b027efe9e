// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package chainobserver watches the BCH chain for deposits into the
// SwapLock and Refund covenant addresses, via a multiplexed Electrum
// protocol client. It is grounded directly on
// original_source/protocol/src/blockchain/mod.rs's TcpElectrum: one TCP
// connection, newline-delimited JSON-RPC requests tagged with a
// monotonic ID, a map of in-flight requests keyed by that ID, and a
// fan-out channel for server-pushed notifications (new blocks, address
// history changes) that arrive with no matching ID.
package chainobserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	logging "github.com/ipfs/go-log"
)

var log = logging.Logger("chainobserver")

// pingInterval matches the 5-second keepalive the original client sends.
const pingInterval = 5 * time.Second

type rpcRequest struct {
	ID     uint64      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type rpcEnvelope struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// Electrum is a multiplexed client for a single Electrum-protocol TCP
// connection.
type Electrum struct {
	conn   net.Conn
	writer *bufio.Writer

	mu       sync.Mutex
	nextID   uint64
	inFlight map[uint64]chan rpcEnvelope

	notifyMu sync.Mutex
	notify   []chan json.RawMessage

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens a TCP connection to an Electrum server and starts its
// background reader and pinger goroutines.
func Dial(ctx context.Context, addr string) (*Electrum, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("chainobserver: dialing %s: %w", addr, err)
	}

	e := &Electrum{
		conn:     conn,
		writer:   bufio.NewWriter(conn),
		inFlight: make(map[uint64]chan rpcEnvelope),
		closed:   make(chan struct{}),
	}

	go e.readLoop()
	go e.pingLoop()

	return e, nil
}

func (e *Electrum) readLoop() {
	scanner := bufio.NewScanner(e.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env rpcEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			log.Warnf("chainobserver: malformed line from server: %s", err)
			continue
		}

		if env.ID == nil {
			e.broadcast(append([]byte(nil), line...))
			continue
		}

		e.mu.Lock()
		ch, ok := e.inFlight[*env.ID]
		if ok {
			delete(e.inFlight, *env.ID)
		}
		e.mu.Unlock()

		if ok {
			ch <- env
		}
	}

	e.closeOnce.Do(func() { close(e.closed) })
}

func (e *Electrum) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.closed:
			return
		case <-ticker.C:
			if _, err := e.Call("server.ping", []interface{}{}); err != nil {
				log.Warnf("chainobserver: ping failed: %s", err)
			}
		}
	}
}

func (e *Electrum) broadcast(raw json.RawMessage) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	for _, ch := range e.notify {
		select {
		case ch <- raw:
		default:
			log.Warnf("chainobserver: notification subscriber is slow, dropping a message")
		}
	}
}

// Subscribe returns a channel that receives every server-pushed
// notification with no matching request ID (eg.
// `blockchain.headers.subscribe` pushes, address history updates).
func (e *Electrum) Subscribe() <-chan json.RawMessage {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	ch := make(chan json.RawMessage, 16)
	e.notify = append(e.notify, ch)
	return ch
}

// Call issues a request and blocks for its matching response.
func (e *Electrum) Call(method string, params interface{}) (json.RawMessage, error) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	ch := make(chan rpcEnvelope, 1)
	e.inFlight[id] = ch
	e.mu.Unlock()

	payload, err := json.Marshal(rpcRequest{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')

	e.mu.Lock()
	_, err = e.writer.Write(payload)
	if err == nil {
		err = e.writer.Flush()
	}
	e.mu.Unlock()
	if err != nil {
		e.mu.Lock()
		delete(e.inFlight, id)
		e.mu.Unlock()
		return nil, fmt.Errorf("chainobserver: writing request: %w", err)
	}

	select {
	case env := <-ch:
		if len(env.Error) > 0 && string(env.Error) != "null" {
			return nil, fmt.Errorf("chainobserver: server error: %s", env.Error)
		}
		return env.Result, nil
	case <-e.closed:
		return nil, errors.New("chainobserver: connection closed")
	}
}

// Close closes the underlying connection.
func (e *Electrum) Close() error {
	e.closeOnce.Do(func() { close(e.closed) })
	return e.conn.Close()
}

// ScanAddressConfirmedTx delegates to the package-level function of the
// same name, letting *Electrum satisfy runner.ChainObserver.
func (e *Electrum) ScanAddressConfirmedTx(address string, minConf uint32) ([]ConfirmedTx, error) {
	return ScanAddressConfirmedTx(e, address, minConf)
}

// BroadcastTransaction delegates to the package-level function of the same
// name, letting *Electrum satisfy runner.ChainObserver.
func (e *Electrum) BroadcastTransaction(raw []byte) (string, error) {
	return BroadcastTransaction(e, raw)
}
