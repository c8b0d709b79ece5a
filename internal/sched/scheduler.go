// Package sched is the port to the external deadline scheduler. Delivery of
// fire events is at-least-once and may be delayed; callers must guard their
// own transitions, and cancellation is best-effort.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type CancelResult string

const (
	CancelOK           CancelResult = "ok"
	CancelAlreadyFired CancelResult = "already_fired"
)

type Scheduler interface {
	// Schedule arranges for the callback identified by callbackID to be
	// delivered at fireAt, returning an opaque token for cancellation.
	Schedule(ctx context.Context, callbackID string, fireAt time.Time) (string, error)
	// Cancel removes a pending callback. CancelAlreadyFired means the event
	// was already delivered (or is in flight) and the token is gone.
	Cancel(ctx context.Context, token string) (CancelResult, error)
}

// Memory is an in-process fake used by tests and by the server when no Redis
// address is configured. It records schedules without ever firing them; tests
// drive the fire path by invoking the webhook/service directly.
type Memory struct {
	mu        sync.Mutex
	pending   map[string]pendingJob
	scheduled []string
	cancelled []string
}

type pendingJob struct {
	CallbackID string
	FireAt     time.Time
}

func NewMemory() *Memory {
	return &Memory{pending: map[string]pendingJob{}}
}

func (m *Memory) Schedule(_ context.Context, callbackID string, fireAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.pending[token] = pendingJob{CallbackID: callbackID, FireAt: fireAt}
	m.scheduled = append(m.scheduled, callbackID)
	return token, nil
}

func (m *Memory) Cancel(_ context.Context, token string) (CancelResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[token]; !ok {
		return CancelAlreadyFired, nil
	}
	delete(m.pending, token)
	m.cancelled = append(m.cancelled, token)
	return CancelOK, nil
}

// PendingCount reports how many schedules are outstanding.
func (m *Memory) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// ScheduledIDs returns every callback ID ever scheduled, in order.
func (m *Memory) ScheduledIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.scheduled))
	copy(out, m.scheduled)
	return out
}

// CancelledTokens returns every token successfully cancelled, in order.
func (m *Memory) CancelledTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.cancelled))
	copy(out, m.cancelled)
	return out
}
