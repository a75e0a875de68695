package ipc

import (
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"asteroid-drift/internal/game"
)

// viewerQueue is how many encoded frames a slow viewer may fall behind
// before frames for it are skipped.
const viewerQueue = 4

// Relay serves world snapshots to viewer processes.
//
// Publish only parks the newest snapshot; a pump goroutine encodes it once
// and queues the same bytes for every viewer, each drained by its own writer.
// A snapshot replaced before the pump picks it up is counted as dropped.
type Relay struct {
	path  string
	world World
	ln    net.Listener

	pending atomic.Pointer[game.GameSnapshot]
	wake    chan struct{}

	mu      sync.Mutex
	viewers map[*viewer]struct{}

	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup

	sent    atomic.Uint64
	dropped atomic.Uint64
}

type viewer struct {
	conn net.Conn
	out  chan []byte
}

// RelayStats is a point-in-time view of relay counters.
type RelayStats struct {
	Viewers int
	Sent    uint64 // snapshots handed to at least one viewer
	Dropped uint64 // snapshots superseded before encoding, plus per-viewer skips
}

// NewRelay creates a relay that greets every viewer with world.
func NewRelay(path string, world World) *Relay {
	if path == "" {
		path = DefaultSocketPath
	}
	return &Relay{
		path:    path,
		world:   world,
		wake:    make(chan struct{}, 1),
		viewers: make(map[*viewer]struct{}),
		stop:    make(chan struct{}),
	}
}

// Start opens the listener and begins serving viewers.
func (r *Relay) Start() error {
	if r.running.Load() {
		return nil
	}
	ln, err := listen(r.path)
	if err != nil {
		return err
	}
	r.ln = ln
	r.running.Store(true)

	r.wg.Add(2)
	go r.acceptLoop()
	go r.pump()

	log.Printf("📡 Snapshot relay listening on %s", describe(r.path))
	return nil
}

// Stop disconnects every viewer and removes the socket.
func (r *Relay) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	close(r.stop)
	r.ln.Close()

	r.mu.Lock()
	for v := range r.viewers {
		r.detachLocked(v)
	}
	r.mu.Unlock()

	r.wg.Wait()
	unlink(r.path)
	log.Println("📡 Snapshot relay stopped")
}

// Publish offers snap to viewers without blocking. The caller must not modify
// snap afterwards.
func (r *Relay) Publish(snap *game.GameSnapshot) {
	if !r.running.Load() {
		return
	}
	if prev := r.pending.Swap(snap); prev != nil {
		r.dropped.Add(1)
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Stats returns relay counters.
func (r *Relay) Stats() RelayStats {
	r.mu.Lock()
	n := len(r.viewers)
	r.mu.Unlock()
	return RelayStats{Viewers: n, Sent: r.sent.Load(), Dropped: r.dropped.Load()}
}

func (r *Relay) acceptLoop() {
	defer r.wg.Done()
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			if !r.running.Load() {
				return
			}
			log.Printf("⚠️ Relay accept error: %v", err)
			continue
		}
		r.attach(conn)
	}
}

// attach greets conn with the world description and then adds it to the
// fan-out, so a viewer never sees a snapshot before the world.
func (r *Relay) attach(conn net.Conn) {
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := WriteFrame(conn, KindWorld, r.world); err != nil {
		log.Printf("⚠️ Viewer greeting failed: %v", err)
		conn.Close()
		return
	}

	v := &viewer{conn: conn, out: make(chan []byte, viewerQueue)}
	r.mu.Lock()
	if !r.running.Load() {
		r.mu.Unlock()
		conn.Close()
		return
	}
	r.viewers[v] = struct{}{}
	n := len(r.viewers)
	r.mu.Unlock()

	log.Printf("✅ Viewer connected (%d total)", n)
	r.wg.Add(1)
	go r.serve(v)
}

func (r *Relay) serve(v *viewer) {
	defer r.wg.Done()
	for frame := range v.out {
		v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := v.conn.Write(frame); err != nil {
			break
		}
	}

	r.mu.Lock()
	r.detachLocked(v)
	n := len(r.viewers)
	r.mu.Unlock()
	log.Printf("🔌 Viewer disconnected (%d remaining)", n)
}

// detachLocked removes v once; r.mu must be held.
func (r *Relay) detachLocked(v *viewer) {
	if _, ok := r.viewers[v]; !ok {
		return
	}
	delete(r.viewers, v)
	close(v.out)
	v.conn.Close()
}

func (r *Relay) pump() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stop:
			return
		case <-r.wake:
		}

		snap := r.pending.Swap(nil)
		if snap == nil {
			continue
		}
		frame, err := EncodeFrame(KindSnapshot, FromGame(snap))
		if err != nil {
			log.Printf("⚠️ Snapshot %d not relayed: %v", snap.Sequence, err)
			continue
		}
		r.fanOut(frame)
	}
}

func (r *Relay) fanOut(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := false
	for v := range r.viewers {
		select {
		case v.out <- frame:
			delivered = true
		default:
			r.dropped.Add(1)
		}
	}
	if delivered {
		r.sent.Add(1)
	}
}
