// Package logging keeps a bounded in-memory record of edit events, fans new
// events out to subscribers and an optional on-disk journal, and forwards
// the process log to remote syslog servers.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Outcome values recorded on events.
const (
	OutcomeOK      = "ok"
	OutcomeRefused = "refused"
	OutcomeError   = "error"
	OutcomeWarning = "warning"
)

// EditEvent is one editing operation applied to a session.
type EditEvent struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Op      string    `json:"op"`                // "choose", "delete", "paste", ...
	Element string    `json:"element,omitempty"` // element path or ID the op targeted
	Symbol  string    `json:"symbol,omitempty"`  // label of the targeted element
	Outcome string    `json:"outcome"`
	Detail  string    `json:"detail,omitempty"`
}

func (e EditEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-9s %-8s", e.Time.Format("15:04:05.000"), e.Op, e.Outcome)
	if e.Element != "" {
		fmt.Fprintf(&b, " %s", e.Element)
	}
	if e.Symbol != "" {
		fmt.Fprintf(&b, " (%s)", e.Symbol)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

// EventBuffer is a thread-safe circular buffer for recent events.
type EventBuffer struct {
	mu    sync.RWMutex
	buf   []EditEvent
	size  int
	head  int // next write position
	count int // number of events stored
	seq   uint64

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}

	cbMu      sync.RWMutex
	callbacks []EventCallback
}

// EventCallback is called synchronously for every added event.
type EventCallback func(ev EditEvent)

// AddCallback registers fn to run on every subsequent Add.
func (eb *EventBuffer) AddCallback(fn EventCallback) {
	eb.cbMu.Lock()
	eb.callbacks = append(eb.callbacks, fn)
	eb.cbMu.Unlock()
}

// Subscription receives new events from an EventBuffer.
type Subscription struct {
	C  chan EditEvent
	eb *EventBuffer
}

// Close unsubscribes. The channel is left open so readers selecting on it
// with a context do not see a spurious zero event.
func (s *Subscription) Close() {
	s.eb.unsubscribe(s)
}

// NewEventBuffer creates a new event buffer with the given capacity.
func NewEventBuffer(size int) *EventBuffer {
	if size < 1 {
		size = 1
	}
	return &EventBuffer{
		buf:  make([]EditEvent, size),
		size: size,
		subs: make(map[*Subscription]struct{}),
	}
}

// Add appends an event to the buffer, overwriting the oldest if full.
// Subscribers are notified non-blocking. Seq and a zero Time are filled in.
func (eb *EventBuffer) Add(ev EditEvent) EditEvent {
	eb.mu.Lock()
	eb.seq++
	ev.Seq = eb.seq
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	eb.buf[eb.head] = ev
	eb.head = (eb.head + 1) % eb.size
	if eb.count < eb.size {
		eb.count++
	}
	eb.mu.Unlock()

	eb.subMu.RLock()
	for sub := range eb.subs {
		select {
		case sub.C <- ev:
		default: // drop if subscriber is slow
		}
	}
	eb.subMu.RUnlock()

	eb.cbMu.RLock()
	for _, fn := range eb.callbacks {
		fn(ev)
	}
	eb.cbMu.RUnlock()
	return ev
}

// Subscribe returns a Subscription that receives new events.
// Call Close() on the subscription when done.
func (eb *EventBuffer) Subscribe(bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 64
	}
	sub := &Subscription{
		C:  make(chan EditEvent, bufSize),
		eb: eb,
	}
	eb.subMu.Lock()
	eb.subs[sub] = struct{}{}
	eb.subMu.Unlock()
	return sub
}

func (eb *EventBuffer) unsubscribe(sub *Subscription) {
	eb.subMu.Lock()
	delete(eb.subs, sub)
	eb.subMu.Unlock()
}

// Subscribers returns the number of active subscriptions.
func (eb *EventBuffer) Subscribers() int {
	eb.subMu.RLock()
	defer eb.subMu.RUnlock()
	return len(eb.subs)
}

// Total returns the number of events ever added.
func (eb *EventBuffer) Total() uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.seq
}

// EventFilter specifies criteria for filtering events.
type EventFilter struct {
	Op      string // exact match on Op
	Outcome string // exact match on Outcome
	Symbol  string // case-insensitive substring match on Symbol
}

// IsEmpty returns true if no filter criteria are set.
func (f EventFilter) IsEmpty() bool {
	return f.Op == "" && f.Outcome == "" && f.Symbol == ""
}

// Matches reports whether ev satisfies every criterion of f.
func (f EventFilter) Matches(ev *EditEvent) bool {
	if f.Op != "" && ev.Op != f.Op {
		return false
	}
	if f.Outcome != "" && ev.Outcome != f.Outcome {
		return false
	}
	if f.Symbol != "" && !strings.Contains(strings.ToLower(ev.Symbol), strings.ToLower(f.Symbol)) {
		return false
	}
	return true
}

// LatestFiltered returns the most recent n events matching the filter, newest first.
func (eb *EventBuffer) LatestFiltered(n int, f EventFilter) []EditEvent {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	var result []EditEvent
	for i := 0; i < eb.count && len(result) < n; i++ {
		idx := (eb.head - 1 - i + eb.size) % eb.size
		if f.Matches(&eb.buf[idx]) {
			result = append(result, eb.buf[idx])
		}
	}
	return result
}

// Latest returns the most recent n events, newest first.
func (eb *EventBuffer) Latest(n int) []EditEvent {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if n > eb.count {
		n = eb.count
	}
	if n <= 0 {
		return nil
	}

	result := make([]EditEvent, n)
	for i := 0; i < n; i++ {
		// Walk backwards from the most recent entry
		idx := (eb.head - 1 - i + eb.size) % eb.size
		result[i] = eb.buf[idx]
	}
	return result
}
