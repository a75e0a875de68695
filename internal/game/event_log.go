package game

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize    = 1024 // ring capacity
	MaxEventsPerSource = 200  // per second
	BatchFlushSize     = 64
	BatchFlushInterval = 100 * time.Millisecond
)

// EventLog keeps the newest events in a ring for the API and optionally
// appends them to a JSONL file from a background writer.
//
// Each source (player, spawner, world, api) gets its own token bucket so a
// burst of shots cannot push tick and damage events out of the ring.
type EventLog struct {
	mu       sync.Mutex
	ring     [EventBufferSize]Event
	seq      uint64 // last assigned sequence, 0 before the first event
	flushed  uint64 // last sequence handed to the sink
	limiters map[string]*rate.Limiter

	// Owned by the writer goroutine until Stop returns.
	file *os.File
	out  *bufio.Writer

	running atomic.Bool
	stopCh  chan struct{}
	stopped chan struct{}

	total   atomic.Uint64
	dropped atomic.Uint64
}

// NewEventLog creates an idle log; Emit refuses events until Start.
func NewEventLog() *EventLog {
	return &EventLog{
		limiters: make(map[string]*rate.Limiter),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start accepts events. A non-empty path also opens it for append and
// starts the writer; an empty path keeps events in memory only.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = f
		el.out = bufio.NewWriter(f)
		go el.writerLoop()
	} else {
		close(el.stopped)
	}

	el.running.Store(true)
	return nil
}

// Stop refuses further events, flushes everything pending and closes the file.
func (el *EventLog) Stop() {
	if !el.running.CompareAndSwap(true, false) {
		return
	}
	close(el.stopCh)
	<-el.stopped
}

// Emit records an event. It returns false when the log is not running or
// the event's source is over budget.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.limiterFor(event.Source).Allow() {
		el.dropped.Add(1)
		return false
	}

	el.seq++
	event.Sequence = el.seq
	el.ring[el.seq%EventBufferSize] = event
	el.total.Add(1)

	switch {
	case el.out == nil:
		el.flushed = el.seq
	case el.seq-el.flushed > EventBufferSize:
		// Writer fell a full ring behind; the oldest unflushed event was overwritten.
		el.flushed = el.seq - EventBufferSize
		el.dropped.Add(1)
	}
	return true
}

// EmitSimple builds and records an event.
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, source string, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, tickNum, source, payload))
}

// limiterFor must be called with el.mu held.
func (el *EventLog) limiterFor(source string) *rate.Limiter {
	l, ok := el.limiters[source]
	if !ok {
		l = rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/10)
		el.limiters[source] = l
	}
	return l
}

// Recent returns up to n of the newest events, oldest first.
func (el *EventLog) Recent(n int) []Event {
	if n <= 0 {
		return nil
	}
	if n > EventBufferSize {
		n = EventBufferSize
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	start := uint64(1)
	if el.seq > uint64(n) {
		start = el.seq - uint64(n) + 1
	}
	out := make([]Event, 0, el.seq-start+1)
	for seq := start; seq <= el.seq; seq++ {
		out = append(out, el.ring[seq%EventBufferSize])
	}
	return out
}

func (el *EventLog) writerLoop() {
	defer close(el.stopped)

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopCh:
			el.drain(batch)
			el.file.Close()
			return
		case <-ticker.C:
			el.drain(batch)
		}
	}
}

// drain writes every unflushed event and flushes the file buffer.
func (el *EventLog) drain(batch []Event) {
	for batch = el.collectBatch(batch[:0]); len(batch) > 0; batch = el.collectBatch(batch[:0]) {
		el.writeBatch(batch)
	}
	if err := el.out.Flush(); err != nil {
		log.Printf("⚠️ Event log flush failed: %v", err)
	}
}

// collectBatch copies up to BatchFlushSize unflushed events out of the ring.
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.flushed < el.seq && len(batch) < BatchFlushSize {
		el.flushed++
		batch = append(batch, el.ring[el.flushed%EventBufferSize])
	}
	return batch
}

func (el *EventLog) writeBatch(batch []Event) {
	enc := json.NewEncoder(el.out)
	for i := range batch {
		if err := enc.Encode(&batch[i]); err != nil {
			log.Printf("⚠️ Event log write failed: %v", err)
			return
		}
	}
}

// GetStats returns event log counters for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	el.mu.Lock()
	pending := el.seq - el.flushed
	el.mu.Unlock()

	return map[string]interface{}{
		"total":   el.total.Load(),
		"dropped": el.dropped.Load(),
		"pending": pending,
		"running": el.running.Load(),
	}
}
