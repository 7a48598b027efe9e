// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package rpc

import (
	"context"
	"net/http"
)

// DaemonService implements gorilla/rpc's calling convention: every method
// takes the inbound *http.Request, a pointer to its decoded args, and a
// pointer to the reply to populate.
type DaemonService struct {
	version  string
	shutdown context.CancelFunc
}

// NewDaemonService constructs a DaemonService. shutdown is called by the
// Shutdown method to begin a graceful daemon exit.
func NewDaemonService(version string, shutdown context.CancelFunc) *DaemonService {
	return &DaemonService{version: version, shutdown: shutdown}
}

// VersionRequest is the (empty) request for DaemonService.Version.
type VersionRequest struct{}

// VersionResponse is DaemonService.Version's reply.
type VersionResponse struct {
	SwapdVersion string `json:"swapd_version"`
}

// Version reports swapd's build version.
func (s *DaemonService) Version(_ *http.Request, _ *VersionRequest, resp *VersionResponse) error {
	resp.SwapdVersion = s.version
	return nil
}

// ShutdownRequest is the (empty) request for DaemonService.Shutdown.
type ShutdownRequest struct{}

// ShutdownResponse is DaemonService.Shutdown's (empty) reply.
type ShutdownResponse struct{}

// Shutdown begins a graceful daemon shutdown.
func (s *DaemonService) Shutdown(_ *http.Request, _ *ShutdownRequest, _ *ShutdownResponse) error {
	log.Info("shutdown requested over rpc")
	s.shutdown()
	return nil
}
