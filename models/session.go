package models

import "time"

// PhoneStage tracks the digit-collection sub-flow.
type PhoneStage int

const (
	PhoneIdle PhoneStage = iota
	PhoneCollecting
	PhoneConfirming
	PhoneConfirmed
)

// PhoneState holds the phone sub-flow for one call: digits gathered so far
// and, while confirming, the 10-digit candidate read back to the caller.
type PhoneState struct {
	Stage     PhoneStage
	Digits    string
	Candidate string
}

// ConflictContext remembers the day and service of the last availability
// refusal, so a follow-up "what times are free?" can answer for that day.
type ConflictContext struct {
	Date    time.Time
	Service Service
}

// CallSession is all mutable state for one phone call. Turns for a given
// call run one at a time, so the fields need no internal locking; the store
// that owns sessions guards its own map.
type CallSession struct {
	CallID           string
	Draft            BookingDraft
	Pending          *PendingBooking
	Phone            PhoneState
	Conflict         *ConflictContext
	LastResolvedDate time.Time
	LastPrompt       string
	AskedName        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Touch bumps the idle clock.
func (s *CallSession) Touch(now time.Time) { s.UpdatedAt = now }
