package ipc

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"
)

// Client follows a relay from a viewer process, reconnecting until its
// context ends. Only the newest snapshot is kept.
type Client struct {
	path string

	// OnSnapshot, if set before Run, is called on the read goroutine for
	// every decoded snapshot.
	OnSnapshot func(*Snapshot)

	latest    atomic.Pointer[Snapshot]
	world     chan World
	connected atomic.Bool

	received atomic.Uint64
	sessions atomic.Uint64
	errors   atomic.Uint64
}

// ClientStats is a point-in-time view of client counters.
type ClientStats struct {
	Received  uint64
	Sessions  uint64 // successful connections, including the first
	Errors    uint64
	Connected bool
}

// NewClient returns a client for the relay at path.
func NewClient(path string) *Client {
	if path == "" {
		path = DefaultSocketPath
	}
	return &Client{
		path:  path,
		world: make(chan World, 1),
	}
}

// Run reads from the relay until ctx is done.
func (c *Client) Run(ctx context.Context) {
	log.Printf("📡 Following relay at %s", describe(c.path))
	for {
		if conn, err := dial(ctx, c.path); err == nil {
			c.session(ctx, conn)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(ReconnectDelay):
		}
	}
}

// session reads frames until the connection fails. Cancelling ctx closes
// the connection to unblock the read.
func (c *Client) session(ctx context.Context, conn net.Conn) {
	release := context.AfterFunc(ctx, func() { conn.Close() })
	defer release()
	defer conn.Close()

	c.sessions.Add(1)
	c.connected.Store(true)
	defer c.connected.Store(false)
	log.Printf("✅ Connected to sim server at %s", describe(c.path))

	for {
		kind, payload, err := ReadFrame(conn)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return
		case errors.Is(err, io.EOF):
			log.Println("🔌 Sim server closed the relay")
			return
		default:
			log.Printf("⚠️ Relay read error: %v", err)
			c.errors.Add(1)
			return
		}

		switch kind {
		case KindSnapshot:
			snap, err := Decode[Snapshot](payload)
			if err != nil {
				log.Printf("⚠️ %v", err)
				c.errors.Add(1)
				continue
			}
			c.latest.Store(snap)
			c.received.Add(1)
			if c.OnSnapshot != nil {
				c.OnSnapshot(snap)
			}
		case KindWorld:
			w, err := Decode[World](payload)
			if err != nil {
				log.Printf("⚠️ %v", err)
				c.errors.Add(1)
				continue
			}
			log.Printf("🛰️ World %dx%d @ %d ticks/s", w.Width, w.Height, w.TickRate)
			select {
			case c.world <- *w:
			default:
			}
		}
	}
}

// World blocks until the first world description arrives. ok is false if
// ctx ends first.
func (c *Client) World(ctx context.Context) (w World, ok bool) {
	select {
	case w = <-c.world:
		return w, true
	case <-ctx.Done():
		return World{}, false
	}
}

// Latest returns the newest snapshot, or nil before the first one.
func (c *Client) Latest() *Snapshot {
	return c.latest.Load()
}

// Stats returns client counters.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		Received:  c.received.Load(),
		Sessions:  c.sessions.Load(),
		Errors:    c.errors.Load(),
		Connected: c.connected.Load(),
	}
}
