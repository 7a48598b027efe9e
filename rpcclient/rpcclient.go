// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package rpcclient is swapcli's thin JSON-RPC 2.0 client, speaking the
// same gorilla/rpc/v2/json2 wire format swapd's rpc package serves.
package rpcclient

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2/json2"
)

// Client calls a single swapd RPC endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a Client against endpoint (eg. "http://127.0.0.1:5000").
func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Call invokes method ("namespace.Method") with args and decodes the
// result into reply.
func (c *Client) Call(method string, args, reply interface{}) error {
	body, err := json2.EncodeClientRequest(method, args)
	if err != nil {
		return fmt.Errorf("rpcclient: encoding request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpcclient: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpcclient: calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		return fmt.Errorf("rpcclient: %s: %w", method, err)
	}
	return nil
}
