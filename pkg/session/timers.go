package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cicerone-chat/cicerone/internal/logging"
)

// entry tracks the pending timers of one session.
type entry struct {
	timers map[int]*time.Timer
	next   int
}

// Timers is a cancellable auto-response timer set keyed by session id. Safe
// for concurrent use.
type Timers struct {
	mu       sync.Mutex
	sessions map[string]*entry
	logger   *slog.Logger
}

// Option configures Timers.
type Option func(*Timers)

// WithLogger sets the logger used for deferred events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Timers) { t.logger = logger }
}

// NewTimers creates an empty timer set.
func NewTimers(opts ...Option) *Timers {
	t := &Timers{
		sessions: make(map[string]*entry),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Schedule arms fn to run after d unless the session sees activity first.
// The returned cancel function stops just this timer; Touch or Release stop
// every pending timer of the session.
func (t *Timers) Schedule(sessionID string, d time.Duration, fn func()) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.sessions[sessionID]
	if !ok {
		e = &entry{timers: make(map[int]*time.Timer)}
		t.sessions[sessionID] = e
	}
	id := e.next
	e.next++

	timer := time.AfterFunc(d, func() {
		// Claim the slot before running: a timer that lost the race against
		// Touch/Release must not fire its callback.
		if !t.claim(sessionID, id) {
			return
		}
		fn()
	})
	e.timers[id] = timer

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if e, ok := t.sessions[sessionID]; ok {
			if timer, ok := e.timers[id]; ok {
				timer.Stop()
				t.forgetLocked(sessionID, e, id)
			}
		}
	}
}

// claim removes the timer slot and reports whether it was still armed.
func (t *Timers) claim(sessionID string, id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.sessions[sessionID]
	if !ok {
		return false
	}
	if _, ok := e.timers[id]; !ok {
		return false
	}
	t.forgetLocked(sessionID, e, id)
	return true
}

func (t *Timers) forgetLocked(sessionID string, e *entry, id int) {
	delete(e.timers, id)
	if len(e.timers) == 0 {
		delete(t.sessions, sessionID)
	}
}

// Touch cancels every pending timer for the session. Called on any new
// session activity.
func (t *Timers) Touch(sessionID string) {
	t.cancelAll(sessionID)
}

// Release cancels every pending timer and forgets the session. Called when
// the session leaves the awaiting-human state or ends.
func (t *Timers) Release(sessionID string) {
	t.cancelAll(sessionID)
}

func (t *Timers) cancelAll(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.sessions[sessionID]
	if !ok {
		return
	}
	for id, timer := range e.timers {
		timer.Stop()
		delete(e.timers, id)
	}
	delete(t.sessions, sessionID)
	t.logger.Debug("session timers cancelled", "session", sessionID)
}

// Pending reports how many timers are armed for the session.
func (t *Timers) Pending(sessionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.sessions[sessionID]; ok {
		return len(e.timers)
	}
	return 0
}
