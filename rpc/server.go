// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package rpc provides the local JSON-RPC 2.0 server swapd exposes on
// 127.0.0.1 for swapcli: gorilla/rpc/v2 with its json2 codec, gorilla/mux
// routing, and a CORS wrapper, serving two namespaces: "daemon" for
// process control and "swap" for trade operations.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	rpcv2 "github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	logging "github.com/ipfs/go-log"
)

const (
	// DaemonNamespace groups process-control methods.
	DaemonNamespace = "daemon"
	// SwapNamespace groups trade operations.
	SwapNamespace = "swap"
)

var log = logging.Logger("rpc")

// Server is the JSON-RPC front end for swapd.
type Server struct {
	ctx        context.Context
	listener   net.Listener
	httpServer *http.Server
}

// Config bundles the values NewServer needs.
type Config struct {
	Ctx          context.Context
	Address      string
	Version      string
	ShutdownFunc context.CancelFunc
	SwapBackend  SwapBackend
}

// NewServer builds and binds the RPC server without starting it.
func NewServer(cfg *Config) (*Server, error) {
	rpcServer := rpcv2.NewServer()
	rpcServer.RegisterCodec(json2.NewCodec(), "application/json")

	serverCtx, cancel := context.WithCancel(cfg.Ctx)

	if err := rpcServer.RegisterService(NewDaemonService(cfg.Version, cfg.ShutdownFunc), DaemonNamespace); err != nil {
		cancel()
		return nil, err
	}
	if err := rpcServer.RegisterService(NewSwapService(cfg.SwapBackend), SwapNamespace); err != nil {
		cancel()
		return nil, err
	}

	r := mux.NewRouter()
	r.Handle("/", rpcServer)

	headersOk := handlers.AllowedHeaders([]string{"content-type"})
	methodsOk := handlers.AllowedMethods([]string{"POST", "OPTIONS"})
	originsOk := handlers.AllowedOrigins([]string{"*"})

	lc := net.ListenConfig{}
	ln, err := lc.Listen(serverCtx, "tcp", cfg.Address)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Server{
		ctx:      serverCtx,
		listener: ln,
		httpServer: &http.Server{
			Addr:              ln.Addr().String(),
			ReadHeaderTimeout: time.Second,
			Handler:           handlers.CORS(headersOk, methodsOk, originsOk)(r),
			BaseContext: func(net.Listener) context.Context {
				return serverCtx
			},
		},
	}, nil
}

// HTTPURL returns the base URL the server is listening on.
func (s *Server) HTTPURL() string {
	return fmt.Sprintf("http://%s", s.httpServer.Addr)
}

// Start serves requests until the server's context is cancelled.
func (s *Server) Start() error {
	log.Infof("starting rpc server on %s", s.HTTPURL())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-s.ctx.Done():
		if err := s.httpServer.Shutdown(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("rpc shutdown errored: %s", err)
		}
		return s.ctx.Err()
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("rpc server failed: %s", err)
		}
		return err
	}
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	return s.httpServer.Shutdown(s.ctx)
}
