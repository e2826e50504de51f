package sim

import "time"

// eventKind discriminates delayed effects.
type eventKind int

const (
	eventOrderExecution eventKind = iota
	eventOrderReposition
	eventStrategyRecalculation
)

// delayedEvent is one queued effect representing network/processing
// latency: an order execution, an order reposition or a forced
// strategy recalculation.
type delayedEvent struct {
	kind      eventKind
	orderID   uint64
	newPrice  float64
	executeAt time.Time
}

// eventQueue holds delayed events in insertion order. Draining walks
// the whole queue oldest-first, executing every event that is due and
// keeping the rest queued.
type eventQueue struct {
	events []delayedEvent
}

func (q *eventQueue) push(e delayedEvent) {
	q.events = append(q.events, e)
}

func (q *eventQueue) len() int { return len(q.events) }

// drainDue removes and returns every event with executeAt <= now,
// preserving insertion order in both the returned and remaining sets.
func (q *eventQueue) drainDue(now time.Time) []delayedEvent {
	var due []delayedEvent
	remaining := q.events[:0]
	for _, e := range q.events {
		if !e.executeAt.After(now) {
			due = append(due, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	q.events = remaining
	return due
}
