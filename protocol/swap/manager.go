// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package swap

import (
	"sync"
	"time"
)

// Manager tracks current and past swaps, grounded on the teacher's
// protocol/swap/manager.go ongoing/past split, generalized from an
// Ethereum types.Hash offer ID to this system's 10-character trade ID
// string (protocol.GenerateID).
type Manager interface {
	AddSwap(info *Info) error
	WriteSwapToDB(info *Info) error
	GetPastIDs() ([]string, error)
	GetPastSwap(id string) (*Info, error)
	GetOngoingSwap(id string) (Info, error)
	GetOngoingSwaps() ([]*Info, error)
	CompleteOngoingSwap(info *Info, status Status) error
	HasOngoingSwap(id string) bool
}

// manager implements Manager. Ongoing swaps are fully populated in
// memory; past swaps are only cached once recently accessed, the same
// trade-off the teacher makes to avoid loading the whole archive at
// startup.
type manager struct {
	db Database
	sync.RWMutex
	ongoing map[string]*Info
	past    map[string]*Info
}

var _ Manager = (*manager)(nil)

// NewManager returns a new Manager backed by db, loading all ongoing
// swaps into memory on construction.
func NewManager(db Database) (Manager, error) {
	ongoing := make(map[string]*Info)

	stored, err := db.GetAllSwaps()
	if err != nil {
		return nil, err
	}

	for _, s := range stored {
		if !s.Status.IsOngoing() {
			continue
		}
		ongoing[s.ID] = s
	}

	return &manager{
		db:      db,
		ongoing: ongoing,
		past:    make(map[string]*Info),
	}, nil
}

// AddSwap adds info to the Manager and to persistent storage.
func (m *manager) AddSwap(info *Info) error {
	m.Lock()
	defer m.Unlock()

	if info.Status.IsOngoing() {
		m.ongoing[info.ID] = info
	} else {
		m.past[info.ID] = info
	}
	return m.db.PutSwap(info)
}

// WriteSwapToDB writes info to the database without touching the
// in-memory ongoing/past split.
func (m *manager) WriteSwapToDB(info *Info) error {
	return m.db.PutSwap(info)
}

// GetPastIDs returns every archived (non-ongoing) trade ID.
func (m *manager) GetPastIDs() ([]string, error) {
	m.RLock()
	defer m.RUnlock()

	ids := make(map[string]struct{})
	for id := range m.past {
		ids[id] = struct{}{}
	}

	stored, err := m.db.GetAllSwaps()
	if err != nil {
		return nil, err
	}
	for _, s := range stored {
		if s.Status.IsOngoing() {
			continue
		}
		ids[s.ID] = struct{}{}
	}

	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out, nil
}

// GetPastSwap returns an archived trade's Info by ID.
func (m *manager) GetPastSwap(id string) (*Info, error) {
	m.RLock()
	s, has := m.past[id]
	m.RUnlock()
	if has {
		return s, nil
	}

	s, err := m.db.GetSwap(id)
	if err != nil {
		return nil, err
	}

	m.Lock()
	m.past[id] = s
	m.Unlock()
	return s, nil
}

// GetOngoingSwap returns the ongoing trade's Info by ID.
func (m *manager) GetOngoingSwap(id string) (Info, error) {
	m.RLock()
	defer m.RUnlock()
	s, has := m.ongoing[id]
	if !has {
		return Info{}, errNoSwapWithID
	}
	return *s, nil
}

// GetOngoingSwaps returns every ongoing trade's Info.
func (m *manager) GetOngoingSwaps() ([]*Info, error) {
	m.RLock()
	defer m.RUnlock()
	out := make([]*Info, 0, len(m.ongoing))
	for _, s := range m.ongoing {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

// CompleteOngoingSwap moves an ongoing trade to the archive with the
// given terminal status.
func (m *manager) CompleteOngoingSwap(info *Info, status Status) error {
	m.Lock()
	defer m.Unlock()

	if _, has := m.ongoing[info.ID]; !has {
		return errNoSwapWithID
	}

	now := time.Now()
	info.Status = status
	info.EndTime = &now

	m.past[info.ID] = info
	delete(m.ongoing, info.ID)

	return m.db.PutSwap(info)
}

// HasOngoingSwap reports whether id names a currently-tracked ongoing
// trade.
func (m *manager) HasOngoingSwap(id string) bool {
	m.RLock()
	defer m.RUnlock()
	_, has := m.ongoing[id]
	return has
}
