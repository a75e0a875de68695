// =============================================================================
// ASTEROID DRIFT - HITBOX VIEWER
// =============================================================================
// Standalone process that attaches to the sim server's snapshot relay and
// writes hitbox frames as PNG files:
// - latest.png is replaced atomically on every frame
// - with VIEWER_KEEP_FRAMES=true every frame is also kept as frame_NNNNNN.png
//
// USAGE:
//   1. Start the sim server with RELAY_SOCKET set: RELAY_SOCKET=/tmp/asteroid-drift.sock go run ./cmd/server
//   2. Then start the viewer: go run ./cmd/viewer
// =============================================================================
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"asteroid-drift/internal/game"
	"asteroid-drift/internal/ipc"
	"asteroid-drift/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	}

	log.Println("🔭 ================================")
	log.Println("🔭  ASTEROID DRIFT - HITBOX VIEWER")
	log.Println("🔭 ================================")

	socketPath := getEnvWithDefault("RELAY_SOCKET", ipc.DefaultSocketPath)
	outDir := getEnvWithDefault("VIEWER_OUT_DIR", "frames")
	fps := getEnvInt("VIEWER_FPS", 10)
	keepFrames := os.Getenv("VIEWER_KEEP_FRAMES") == "true"

	if fps <= 0 {
		fps = 10
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("❌ Output directory: %v", err)
	}

	log.Printf("📡 Relay: %s", socketPath)
	log.Printf("🖼️ Output: %s @ %d FPS (keep frames: %v)", outDir, fps, keepFrames)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := ipc.NewClient(socketPath)
	done := make(chan struct{})
	go func() {
		client.Run(ctx)
		close(done)
	}()

	// Size the canvas from the server's world description
	width, height := 640, 360
	waitCtx, cancelWait := context.WithTimeout(ctx, 30*time.Second)
	if w, ok := client.World(waitCtx); ok {
		width, height = w.Width, w.Height
	} else {
		log.Println("⚠️ No world description received, using 640x360")
	}
	cancelWait()
	renderer := render.NewHitboxRenderer(width, height)

	frames := time.NewTicker(time.Second / time.Duration(fps))
	defer frames.Stop()
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	var lastSeq uint64
	var written int
	log.Println("🔭 Viewer ready! Press Ctrl+C to stop.")

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Shutting down viewer...")
			<-done
			log.Printf("👋 Wrote %d frames", written)
			return

		case <-statsTicker.C:
			st := client.Stats()
			log.Printf("📊 Relay: snapshots=%d, sessions=%d, errors=%d, connected=%v, frames=%d",
				st.Received, st.Sessions, st.Errors, st.Connected, written)

		case <-frames.C:
			msg := client.Latest()
			if msg == nil || msg.Sequence == lastSeq {
				continue
			}
			lastSeq = msg.Sequence

			name := ""
			if keepFrames {
				name = fmt.Sprintf("frame_%06d.png", msg.TickNumber)
			}
			if err := writeFrame(renderer, outDir, name, msg.Game()); err != nil {
				log.Printf("⚠️ Frame write failed: %v", err)
				continue
			}
			written++
		}
	}
}

// writeFrame replaces latest.png via rename and optionally keeps a copy under name.
func writeFrame(renderer *render.HitboxRenderer, dir, name string, snap *game.GameSnapshot) error {
	tmp, err := os.CreateTemp(dir, "latest-*.png")
	if err != nil {
		return err
	}
	if err := renderer.EncodePNG(tmp, snap); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	latest := filepath.Join(dir, "latest.png")
	if name != "" {
		if err := copyFile(tmp.Name(), filepath.Join(dir, name)); err != nil {
			os.Remove(tmp.Name())
			return err
		}
	}
	return os.Rename(tmp.Name(), latest)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
