// Package ipc relays world snapshots from the sim server to viewer processes
// over a local socket (TCP on localhost for Windows).
//
// Every frame is an 8-byte header followed by a gob payload:
//
//	version u16 LE | kind u8 | reserved u8 | payload length u32 LE
package ipc

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Kind identifies a frame payload.
type Kind uint8

const (
	KindSnapshot Kind = 0x01
	KindWorld    Kind = 0x04
)

const (
	// DefaultSocketPath is where the relay listens unless RELAY_SOCKET says otherwise.
	DefaultSocketPath = "/tmp/asteroid-drift.sock"
	// DefaultTCPAddr replaces the socket on Windows.
	DefaultTCPAddr = "127.0.0.1:7071"

	Version      uint16 = 1
	MaxFrameSize        = 1 << 20

	headerSize     = 8
	writeTimeout   = 50 * time.Millisecond
	ReconnectDelay = 500 * time.Millisecond
)

var (
	ErrVersion       = errors.New("ipc: protocol version mismatch")
	ErrFrameTooLarge = errors.New("ipc: frame too large")
)

// World describes the arena a viewer is attached to. It is the first frame
// on every connection.
type World struct {
	Width    int
	Height   int
	TickRate int
}

// Snapshot is the wire form of game.GameSnapshot.
type Snapshot struct {
	Sequence   uint64
	UnixNano   int64
	TickNumber uint64

	Bodies []Body
	HUD    HUD

	CameraX, CameraY   float64
	ViewportW          float64
	ViewportH          float64
	GravityX, GravityY float64

	LiveBodies int
	Asteroids  int
	Bullets    int
	Contacts   int
	Truncated  bool
}

// Body mirrors game.BodySnapshot field for field so the two convert directly.
type Body struct {
	Handle           int
	Category         string
	Shape            string
	X, Y             float64
	VX, VY           float64
	Rotation         float64
	Torque           float64
	Width, Height    float64
	CenterX, CenterY float64
	OnScreen         bool
	CollisionEnabled bool
	Collided         bool
	Accelerating     bool
	RotatingLeft     bool
	RotatingRight    bool
}

// HUD mirrors game.HUDSnapshot.
type HUD struct {
	Health    float64
	MaxHealth float64
	Score     int
	HighScore int
	GunReady  bool
	GameOver  bool
	Round     int
}

var framePool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// EncodeFrame returns a complete frame for v. The result is not pooled, so
// the relay can hand the same bytes to every viewer.
func EncodeFrame(kind Kind, v interface{}) ([]byte, error) {
	buf := framePool.Get().(*bytes.Buffer)
	defer framePool.Put(buf)
	buf.Reset()

	buf.Write(make([]byte, headerSize))
	if v != nil {
		if err := gob.NewEncoder(buf).Encode(v); err != nil {
			return nil, fmt.Errorf("ipc: encode %s: %w", kind, err)
		}
	}

	n := buf.Len() - headerSize
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	frame := bytes.Clone(buf.Bytes())
	binary.LittleEndian.PutUint16(frame[0:2], Version)
	frame[2] = byte(kind)
	binary.LittleEndian.PutUint32(frame[4:8], uint32(n))
	return frame, nil
}

// WriteFrame encodes v and writes it as one frame.
func WriteFrame(w io.Writer, kind Kind, v interface{}) error {
	frame, err := EncodeFrame(kind, v)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadFrame reads one frame and returns its kind and payload.
// A clean close before any header byte returns io.EOF.
func ReadFrame(r io.Reader) (Kind, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}

	if v := binary.LittleEndian.Uint16(header[0:2]); v != Version {
		return 0, nil, fmt.Errorf("%w: got %d, want %d", ErrVersion, v, Version)
	}
	n := binary.LittleEndian.Uint32(header[4:8])
	if n > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("ipc: read payload: %w", err)
	}
	return Kind(header[2]), payload, nil
}

// Decode unpacks a frame payload into a T.
func Decode[T any](payload []byte) (*T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&v); err != nil {
		return nil, fmt.Errorf("ipc: decode %T: %w", v, err)
	}
	return &v, nil
}

func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindWorld:
		return "world"
	}
	return fmt.Sprintf("kind(%#x)", uint8(k))
}
