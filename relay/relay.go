// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package relay implements the stateless HTTP message relay spec.md §1
// specifies in place of a P2P transport: counterparties never connect to
// each other directly, only to this server's REST routes, mirroring
// original_source/web-server/src/trader.rs's `/trader` router.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log"

	"github.com/PHCitizen/bch-xmr-swap/net/message"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
)

var log = logging.Logger("relay")

// ErrNotFound is returned by a Store when no trade exists for an ID.
var ErrNotFound = errors.New("relay: no trade with that id")

// ErrUnknownPath is returned by a Store when a CreateTradeParams.Path this
// daemon does not serve is requested. This implementation always plays
// Bob, the maker, on its own relay (spec.md §1's maker-is-always-Bob
// architecture), so only "xmr->bch" (an XMR-sender approaching a BCH-sender's
// relay) is ever accepted; "bch->xmr" is syntactically valid on the wire
// but has no handler on this side.
var ErrUnknownPath = errors.New("relay: unknown trade path")

// ValidationError reports a CreateTradeParams field that failed this
// daemon's own sanity checks (as opposed to ErrUnknownPath, which reports
// a path nobody on this side ever implements).
type ValidationError struct {
	Msg string
}

// NewValidationError builds a ValidationError.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string {
	return "relay: " + e.Msg
}

// CreateTradeParams is the wire body of POST /trader, spec.md §6: a
// counterparty proposing a trade sends only the negotiable terms, never
// key material — the side that owns the relay mints its own KeyPrivate
// and trade ID and returns the latter in the response.
type CreateTradeParams struct {
	Path      string `json:"path"`
	Timelock1 int64  `json:"timelock1"`
	Timelock2 int64  `json:"timelock2"`
	BchAmount uint64 `json:"bch_amount"`
	XmrAmount uint64 `json:"xmr_amount"`
}

// Store is the collaborator interface the runner implements so the relay
// package never touches persistence or role state machines directly.
// CreateTrade generates this side's own KeyPrivate and trade ID from the
// caller's negotiation terms and returns the assigned ID.
// SubmitTransition feeds an incoming Transition to the trade's role
// machine and returns whatever GetTransition() yields afterward, so a
// single PATCH round-trip both advances the state and hands back the
// next message the caller should present to its own peer.
type Store interface {
	CreateTrade(params CreateTradeParams) (tradeID string, err error)
	SubmitTransition(id string, t protocol.Transition) (protocol.Transition, error)
	GetTransition(id string) (protocol.Transition, error)
}

// Server is the HTTP front end for Store.
type Server struct {
	ctx        context.Context
	listener   net.Listener
	httpServer *http.Server
	store      Store
}

// Config bundles the values NewServer needs.
type Config struct {
	Ctx     context.Context
	Address string
	Store   Store
}

// NewServer builds and binds the relay's HTTP server without starting it.
func NewServer(cfg *Config) (*Server, error) {
	serverCtx, cancel := context.WithCancel(cfg.Ctx)

	r := mux.NewRouter()
	s := &Server{ctx: serverCtx, store: cfg.Store}
	r.HandleFunc("/trader", s.createTrade).Methods(http.MethodPost)
	r.HandleFunc("/trader/{id}", s.submitTransition).Methods(http.MethodPatch)
	r.HandleFunc("/trader/{id}", s.getTransition).Methods(http.MethodGet)

	headersOk := handlers.AllowedHeaders([]string{"content-type"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "OPTIONS"})
	originsOk := handlers.AllowedOrigins([]string{"*"})

	lc := net.ListenConfig{}
	ln, err := lc.Listen(serverCtx, "tcp", cfg.Address)
	if err != nil {
		cancel()
		return nil, err
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Addr:              ln.Addr().String(),
		ReadHeaderTimeout: time.Second,
		Handler:           handlers.CORS(headersOk, methodsOk, originsOk)(r),
		BaseContext: func(net.Listener) context.Context {
			return serverCtx
		},
	}

	return s, nil
}

// HTTPURL returns the base URL the relay is listening on.
func (s *Server) HTTPURL() string {
	return "http://" + s.httpServer.Addr
}

// Start serves requests until the server's context is cancelled.
func (s *Server) Start() error {
	log.Infof("starting relay server on %s", s.HTTPURL())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-s.ctx.Done():
		if err := s.httpServer.Shutdown(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("relay shutdown errored: %s", err)
		}
		return s.ctx.Err()
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("relay server failed: %s", err)
		}
		return err
	}
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	return s.httpServer.Shutdown(s.ctx)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type createTradeResponse struct {
	TradeID string `json:"trade_id"`
}

// createTrade handles POST /trader per spec.md §6: the body carries only
// negotiation terms, never key material, and this side mints its own
// KeyPrivate and trade ID via s.store.CreateTrade.
func (s *Server) createTrade(w http.ResponseWriter, r *http.Request) {
	var params CreateTradeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	tradeID, err := s.store.CreateTrade(params)
	switch {
	case errors.Is(err, ErrUnknownPath):
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: err.Error()})
		return
	case err != nil:
		var ve *ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, createTradeResponse{TradeID: tradeID})
}

// submitTransition accepts a peer's externally-tagged Transition body,
// rejecting any kind the wire protocol does not carry (spec.md §4.6's
// "relay MUST reject private transition kinds at the edge").
func (s *Server) submitTransition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	raw, err := decodeBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	t, err := message.Decode(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if !t.Public() {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "relay: transition kind is not peer-submittable"})
		return
	}

	reply, err := s.store.SubmitTransition(id, t)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.writeTransition(w, reply)
}

func (s *Server) getTransition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	t, err := s.store.GetTransition(id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	s.writeTransition(w, t)
}

func (s *Server) writeTransition(w http.ResponseWriter, t protocol.Transition) {
	if t == nil {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}

	raw, err := message.Encode(t)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func decodeBody(r *http.Request) ([]byte, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
