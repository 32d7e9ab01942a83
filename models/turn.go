package models

import (
	"sync"
	"time"
)

// NextStep tells the transport edge what to do after speaking.
type NextStep string

const (
	NextListen   NextStep = "listen"
	NextHangup   NextStep = "hangup"
	NextTransfer NextStep = "transfer"
)

// TurnResult is the dialog engine's answer for one caller utterance.
// The transport layer renders it into telephony markup; the engine never does.
type TurnResult struct {
	Say        string
	Next       NextStep
	TransferTo string
}

// PendingTurn is a single-use result cell for one in-flight turn. The turn
// goroutine completes it exactly once; the poll handler consumes it; the
// sweeper expires it. A completion landing after expiry is discarded.
type PendingTurn struct {
	mu        sync.Mutex
	result    *TurnResult
	expired   bool
	CallID    string
	CreatedAt time.Time
}

// NewPendingTurn returns an open cell for the given call.
func NewPendingTurn(callID string, now time.Time) *PendingTurn {
	return &PendingTurn{CallID: callID, CreatedAt: now}
}

// Complete stores the result. Returns false when the cell already expired
// or was already completed, in which case the result is dropped.
func (p *PendingTurn) Complete(r TurnResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.expired || p.result != nil {
		return false
	}
	p.result = &r
	return true
}

// Take returns the result if present, consuming nothing; the caller deletes
// the cell from its store after a successful take.
func (p *PendingTurn) Take() (TurnResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.result == nil {
		return TurnResult{}, false
	}
	return *p.result, true
}

// Expire marks the cell dead so late completions are no-ops.
func (p *PendingTurn) Expire() {
	p.mu.Lock()
	p.expired = true
	p.mu.Unlock()
}
