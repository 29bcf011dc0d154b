package qiwi

import "time"

// StatusValue is a bill lifecycle state.
type StatusValue string

const (
	StatusWaiting  StatusValue = "WAITING"
	StatusPaid     StatusValue = "PAID"
	StatusRejected StatusValue = "REJECTED"
	StatusExpired  StatusValue = "EXPIRED"
)

// Status tracks a bill's lifecycle state and when it last changed. It
// keeps a back-reference to its owning bill to evaluate expiry.
type Status struct {
	bill    *Bill
	value   StatusValue
	changed time.Time
}

func newStatus(bill *Bill, p StatusPayload) *Status {
	return &Status{
		bill:    bill,
		value:   p.Value,
		changed: parseTimestamp(p.ChangedDateTime),
	}
}

// Value returns the current state. Reading it while the bill is still
// WAITING but past its expiration transitions the state to EXPIRED and
// moves the change time to the expiration instant. This lazy transition
// happens only here: the boolean accessors below report the raw state
// untouched.
func (s *Status) Value() StatusValue {
	s.bill.mu.Lock()
	defer s.bill.mu.Unlock()
	s.reconcileExpiry(time.Now())
	return s.value
}

// ChangedDate returns when the status last changed.
func (s *Status) ChangedDate() time.Time {
	s.bill.mu.Lock()
	defer s.bill.mu.Unlock()
	return s.changed
}

// Waiting reports whether the bill is still payable.
func (s *Status) Waiting() bool {
	s.bill.mu.Lock()
	defer s.bill.mu.Unlock()
	return s.value == StatusWaiting
}

// Finished reports whether the bill reached any terminal state.
func (s *Status) Finished() bool {
	return !s.Waiting()
}

// Expired reports whether the raw state is EXPIRED. It does not trigger
// the lazy transition.
func (s *Status) Expired() bool {
	s.bill.mu.Lock()
	defer s.bill.mu.Unlock()
	return s.value == StatusExpired
}

// Rejected reports whether the raw state is REJECTED. It does not trigger
// the lazy transition.
func (s *Status) Rejected() bool {
	s.bill.mu.Lock()
	defer s.bill.mu.Unlock()
	return s.value == StatusRejected
}

// reconcileExpiry applies WAITING -> EXPIRED once the owning bill's
// expiration has passed. Callers must hold the bill lock.
func (s *Status) reconcileExpiry(now time.Time) {
	if s.value != StatusWaiting {
		return
	}
	if !s.bill.expirationDate.IsZero() && s.bill.expirationDate.Before(now) {
		s.value = StatusExpired
		s.changed = s.bill.expirationDate
	}
}

// patch overwrites the raw state. The change time is updated only when
// the payload carries one. Callers must hold the bill lock.
func (s *Status) patch(p StatusPayload) {
	s.value = p.Value
	if p.ChangedDateTime != "" {
		s.changed = parseTimestamp(p.ChangedDateTime)
	}
}
