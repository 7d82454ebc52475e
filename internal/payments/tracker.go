// Package payments tracks in-flight STK push requests from initiation to
// the terminal outcome delivered by the gateway's webhook callback.
//
// Each reference owns an independent record with its own lock, so
// concurrent resolve/poll traffic for different references never
// contends. A record transitions exactly once, pending → success or
// pending → failed, and every terminal field is written under the same
// lock acquisition: a poll observes either the fully-pending or the
// fully-resolved record, never a half-written one.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Status of a tracked payment request.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// PendingMessage is returned by Poll until the callback lands.
const PendingMessage = "Payment is still pending."

// CancelledMessage is the failure message when the gateway reports a
// non-zero result without further detail.
const CancelledMessage = "The user cancelled the request"

var (
	// ErrUnknownReference is returned for references never initiated
	// (or already evicted). Distinct from a pending response.
	ErrUnknownReference = errors.New("payments: unknown reference")
	// ErrDuplicateReference rejects re-initiating a still-pending reference.
	ErrDuplicateReference = errors.New("payments: reference already pending")
	// ErrEmptyReference rejects initiation without a correlation key.
	ErrEmptyReference = errors.New("payments: reference is required")
)

// AlreadyResolvedError reports a conflicting second terminal callback.
// The stored outcome is kept; the attempted one is discarded.
type AlreadyResolvedError struct {
	Reference string
	Existing  Status
	Attempted Status
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("payments: reference %q already resolved as %s, conflicting %s callback ignored",
		e.Reference, e.Existing, e.Attempted)
}

// Request is a snapshot of one tracked payment. Copies handed out by the
// tracker are detached from internal state.
type Request struct {
	Reference       string    `json:"reference"`
	Contact         string    `json:"contact"`
	Amount          float64   `json:"amount"`
	Status          Status    `json:"status"`
	Message         string    `json:"message"`
	ReceiptNumber   string    `json:"receipt_number,omitempty"`
	TransactionDate string    `json:"transaction_date,omitempty"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ResolvedAt      time.Time `json:"resolved_at,omitempty"`
}

// Terminal reports whether the request reached success or failed.
func (r Request) Terminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusFailed
}

// Outcome is the gateway's verdict extracted from a webhook callback.
// Code 0 means the payer completed the push; anything else is a failure.
type Outcome struct {
	Code            int
	Description     string
	Amount          float64
	ReceiptNumber   string
	TransactionDate string
	PhoneNumber     string
}

type entry struct {
	mu      sync.Mutex
	req     Request
	waiters []chan Request
}

func (e *entry) snapshotLocked() Request { return e.req }

// Tracker keys payment records by reference.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Initiate registers a pending request for reference. The outbound
// gateway call is the caller's job; a failed push should be undone with
// Drop. Re-initiating a reference whose previous attempt is terminal
// replaces it; re-initiating a pending one fails.
func (t *Tracker) Initiate(contact string, amount float64, reference string) (Request, error) {
	if reference == "" {
		return Request{}, ErrEmptyReference
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.entries[reference]; ok {
		existing.mu.Lock()
		terminal := existing.req.Terminal()
		existing.mu.Unlock()
		if !terminal {
			return Request{}, ErrDuplicateReference
		}
	}

	e := &entry{req: Request{
		Reference: reference,
		Contact:   contact,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: t.now(),
	}}
	t.entries[reference] = e
	return e.req, nil
}

// Drop removes a reference outright. Used to roll back an initiation
// whose outbound push never reached the gateway.
func (t *Tracker) Drop(reference string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, reference)
}

// Resolve applies the terminal outcome for reference. A repeat callback
// carrying the same verdict is a no-op; a conflicting verdict returns
// *AlreadyResolvedError and leaves the stored outcome untouched.
func (t *Tracker) Resolve(reference string, out Outcome) (Request, error) {
	t.mu.RLock()
	e, ok := t.entries[reference]
	t.mu.RUnlock()
	if !ok {
		return Request{}, ErrUnknownReference
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	attempted := StatusFailed
	if out.Code == 0 {
		attempted = StatusSuccess
	}

	if e.req.Terminal() {
		if conflicting(e.req, attempted, out) {
			return e.snapshotLocked(), &AlreadyResolvedError{
				Reference: reference,
				Existing:  e.req.Status,
				Attempted: attempted,
			}
		}
		return e.snapshotLocked(), nil
	}

	if attempted == StatusSuccess {
		e.req.Status = StatusSuccess
		e.req.Message = out.Description
		e.req.Amount = out.Amount
		e.req.ReceiptNumber = out.ReceiptNumber
		e.req.TransactionDate = out.TransactionDate
		e.req.PhoneNumber = out.PhoneNumber
	} else {
		e.req.Status = StatusFailed
		message := out.Description
		if message == "" {
			message = CancelledMessage
		}
		e.req.Message = message
	}
	e.req.ResolvedAt = t.now()

	snapshot := e.snapshotLocked()
	for _, w := range e.waiters {
		w <- snapshot
		close(w)
	}
	e.waiters = nil
	return snapshot, nil
}

func conflicting(existing Request, attempted Status, out Outcome) bool {
	if existing.Status != attempted {
		return true
	}
	return attempted == StatusSuccess && existing.ReceiptNumber != out.ReceiptNumber
}

// Poll returns the current snapshot without blocking. Pending requests
// carry the fixed waiting message.
func (t *Tracker) Poll(reference string) (Request, error) {
	t.mu.RLock()
	e, ok := t.entries[reference]
	t.mu.RUnlock()
	if !ok {
		return Request{}, ErrUnknownReference
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.snapshotLocked()
	if snapshot.Status == StatusPending {
		snapshot.Message = PendingMessage
	}
	return snapshot, nil
}

// Watch returns a channel that delivers the resolved snapshot once and
// is then closed. Already-terminal requests deliver immediately.
func (t *Tracker) Watch(reference string) (<-chan Request, error) {
	t.mu.RLock()
	e, ok := t.entries[reference]
	t.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownReference
	}

	ch := make(chan Request, 1)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.req.Terminal() {
		ch <- e.snapshotLocked()
		close(ch)
		return ch, nil
	}
	e.waiters = append(e.waiters, ch)
	return ch, nil
}

// EvictOlderThan removes entries created before now-age and returns how
// many were dropped. A request whose callback never arrives stays
// pending forever otherwise; the janitor is the layered-on TTL policy.
func (t *Tracker) EvictOlderThan(age time.Duration) int {
	cutoff := t.now().Add(-age)

	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted int
	for ref, e := range t.entries {
		e.mu.Lock()
		stale := e.req.CreatedAt.Before(cutoff)
		if stale {
			for _, w := range e.waiters {
				close(w)
			}
			e.waiters = nil
		}
		e.mu.Unlock()
		if stale {
			delete(t.entries, ref)
			evicted++
		}
	}
	return evicted
}

// RunJanitor evicts stale entries every interval until ctx is done.
func (t *Tracker) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.EvictOlderThan(maxAge)
		}
	}
}

// Len reports how many references are currently tracked.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
