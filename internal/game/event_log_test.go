package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// TestEventLogNotRunning verifies events are refused before Start
func TestEventLogNotRunning(t *testing.T) {
	el := NewEventLog()
	if el.EmitSimple(EventTypeTick, 1, sourceWorld, TickPayload{}) {
		t.Error("Expected emit to fail before Start")
	}
	if got := el.Recent(10); len(got) != 0 {
		t.Errorf("Expected no events, got %d", len(got))
	}
}

// TestEventLogRecent verifies the newest events are returned oldest first
func TestEventLogRecent(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer el.Stop()

	for i := uint64(1); i <= 5; i++ {
		el.EmitSimple(EventTypeTick, i, sourceWorld, TickPayload{Live: int(i)})
	}

	got := el.Recent(3)
	if len(got) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(got))
	}
	for i, ev := range got {
		if want := uint64(3 + i); ev.TickNum != want {
			t.Errorf("Event %d: expected tick %d, got %d", i, want, ev.TickNum)
		}
	}
	if el.Recent(0) != nil {
		t.Error("Expected nil for n=0")
	}
}

// TestEventLogSourceLimit verifies one noisy source is throttled
func TestEventLogSourceLimit(t *testing.T) {
	el := NewEventLog()
	el.Start("")
	defer el.Stop()

	accepted := 0
	for i := 0; i < 100; i++ {
		if el.EmitSimple(EventTypeShoot, uint64(i), sourcePlayer, ShootPayload{}) {
			accepted++
		}
	}
	if accepted >= 100 {
		t.Error("Expected the per-source limiter to drop some events")
	}
	if dropped, _ := el.GetStats()["dropped"].(uint64); dropped == 0 {
		t.Error("Expected dropped count to be recorded")
	}

	// Other sources keep their own budget
	if !el.EmitSimple(EventTypeSpawn, 1, sourceSpawner, SpawnPayload{}) {
		t.Error("Expected a different source to be accepted")
	}
}

// TestEventLogWritesFile verifies events are flushed as newline-delimited JSON
func TestEventLogWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")

	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}
	el.EmitSimple(EventTypeGravity, 3, sourceAPI, GravityPayload{X: 1, Y: 2})
	el.EmitSimple(EventTypeRestart, 4, sourceAPI, RestartPayload{Round: 2})
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventTypeGravity || events[1].Type != EventTypeRestart {
		t.Errorf("Unexpected event order %v, %v", events[0].Type, events[1].Type)
	}

	var g GravityPayload
	if err := json.Unmarshal(events[0].Payload, &g); err != nil || g.Y != 2 {
		t.Errorf("Expected gravity payload y=2, got %+v (%v)", g, err)
	}
}

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

// TestEventLogConcurrentWriter emits while the file writer and Recent run.
// Run with -race.
func TestEventLogConcurrentWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")

	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				for _, ev := range el.Recent(16) {
					if ev.Sequence == 0 {
						t.Error("Recent returned an unwritten slot")
						return
					}
				}
			}
		}
	}()

	var accepted uint64
	deadline := time.Now().Add(300 * time.Millisecond)
	for tick := uint64(1); time.Now().Before(deadline); tick++ {
		if el.EmitSimple(EventTypeTick, tick, sourceWorld, TickPayload{Live: int(tick)}) {
			accepted++
		}
		time.Sleep(time.Millisecond)
	}
	close(done)
	wg.Wait()
	el.Stop()

	events := readEvents(t, path)
	if uint64(len(events)) != accepted {
		t.Fatalf("Expected %d events on disk, got %d", accepted, len(events))
	}
	for i, ev := range events {
		if ev.Sequence != uint64(i+1) {
			t.Fatalf("Event %d: expected sequence %d, got %d", i, i+1, ev.Sequence)
		}
	}
}

// TestEventLogStopFlushesEverything covers more than one batch pending at Stop
func TestEventLogStopFlushesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")

	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}

	accepted := 0
	for _, source := range []string{sourcePlayer, sourceSpawner, sourceWorld, sourceAPI} {
		for i := 0; i < MaxEventsPerSource/10; i++ {
			if el.EmitSimple(EventTypeTick, uint64(i), source, TickPayload{}) {
				accepted++
			}
		}
	}
	if accepted <= BatchFlushSize {
		t.Fatalf("Expected more than one batch, accepted %d", accepted)
	}
	el.Stop()

	if got := len(readEvents(t, path)); got != accepted {
		t.Errorf("Expected %d events on disk, got %d", accepted, got)
	}
	if el.EmitSimple(EventTypeTick, 1, sourceWorld, TickPayload{}) {
		t.Error("Expected emit to fail after Stop")
	}
}
