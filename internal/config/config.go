// Package config provides centralized configuration management.
// Defaults live here; environment variables override them and the optional
// YAML tuning file (see tuning.go) overrides gameplay numbers at runtime.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig controls the fixed-step loop.
type SimConfig struct {
	TickRate         int   // Fixed ticks per second (50 = 0.02s steps)
	MaxTicksPerFrame int   // Cap on catch-up ticks after a slow frame
	Seed             int64 // RNG seed for the spawner; 0 picks one at startup
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:         50,
		MaxTicksPerFrame: 5,
	}
}

// FixedDelta returns the fixed step in seconds.
func (c SimConfig) FixedDelta() float64 {
	if c.TickRate <= 0 {
		return 1.0 / float64(DefaultSim().TickRate)
	}
	return 1.0 / float64(c.TickRate)
}

// SimFromEnv returns simulation configuration with environment variable overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if mt := getEnvInt("MAX_TICKS_PER_FRAME", 0); mt > 0 {
		cfg.MaxTicksPerFrame = mt
	}
	if s := getEnvInt("SIM_SEED", 0); s != 0 {
		cfg.Seed = int64(s)
	}

	return cfg
}

// =============================================================================
// VIEWPORT CONFIGURATION
// =============================================================================

// ViewportConfig is the virtual screen used for culling and camera framing.
type ViewportConfig struct {
	Width  float64
	Height float64
}

// DefaultViewport returns the virtual resolution of the game.
func DefaultViewport() ViewportConfig {
	return ViewportConfig{
		Width:  640,
		Height: 360,
	}
}

// ViewportFromEnv returns viewport configuration with environment variable overrides.
func ViewportFromEnv() ViewportConfig {
	cfg := DefaultViewport()

	if w := getEnvFloat("VIEWPORT_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("VIEWPORT_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}

	return cfg
}

// =============================================================================
// PHYSICS CONFIGURATION
// =============================================================================

// PhysicsConfig holds world-wide physics settings.
type PhysicsConfig struct {
	GravityX float64
	GravityY float64
	Capacity int // Initial body slot capacity
}

// DefaultPhysics returns a zero-gravity world.
func DefaultPhysics() PhysicsConfig {
	return PhysicsConfig{
		Capacity: 256,
	}
}

// PhysicsFromEnv returns physics configuration with environment variable overrides.
func PhysicsFromEnv() PhysicsConfig {
	cfg := DefaultPhysics()

	cfg.GravityX = getEnvFloat("GRAVITY_X", cfg.GravityX)
	cfg.GravityY = getEnvFloat("GRAVITY_Y", cfg.GravityY)

	return cfg
}

// =============================================================================
// SPAWN CONFIGURATION
// =============================================================================

// SpawnConfig controls the asteroid spawner.
type SpawnConfig struct {
	Interval   time.Duration // Time between spawns
	EdgeMargin float64       // Distance outside the camera edge
	Force      float64       // Initial push toward the camera center
	MaxTorque  float64       // Spin is uniform in [-MaxTorque, MaxTorque]
	Mass       float64
	Size       float64
}

// DefaultSpawn returns the default spawner settings.
func DefaultSpawn() SpawnConfig {
	return SpawnConfig{
		Interval:   time.Second,
		EdgeMargin: 100,
		Force:      10,
		MaxTorque:  100,
		Mass:       100,
		Size:       10,
	}
}

// SpawnFromEnv returns spawner configuration with environment variable overrides.
func SpawnFromEnv() SpawnConfig {
	cfg := DefaultSpawn()

	if ms := getEnvInt("SPAWN_INTERVAL_MS", 0); ms > 0 {
		cfg.Interval = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits caps world growth so a stuck spawner or a fire-happy client
// cannot exhaust memory.
type ResourceLimits struct {
	MaxBodies         int // Hard cap on live bodies
	MaxAsteroids      int
	MaxBullets        int
	MaxSnapshotBodies int // Bodies copied into each snapshot
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxBodies:         4096,
		MaxAsteroids:      256,
		MaxBullets:        128,
		MaxSnapshotBodies: 512,
	}
}

// LimitsFromEnv returns limits with environment variable overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if mb := getEnvInt("MAX_BODIES", 0); mb > 0 {
		cfg.MaxBodies = mb
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	ControlToken string // Required on mutating routes when set
	BroadcastHz  int    // Websocket state broadcast rate
	EventLogPath string // JSONL event log; empty keeps events in memory only
	TuningPath   string // YAML tuning file; empty uses defaults
	RelaySocket  string // Unix socket for snapshot viewers; empty disables the relay
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:        3000,
		BroadcastHz: 10,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if hz := getEnvInt("BROADCAST_HZ", 0); hz > 0 {
		cfg.BroadcastHz = hz
	}
	cfg.ControlToken = os.Getenv("CONTROL_TOKEN")
	cfg.EventLogPath = os.Getenv("EVENT_LOG_PATH")
	cfg.TuningPath = os.Getenv("TUNING_PATH")
	cfg.RelaySocket = os.Getenv("RELAY_SOCKET")

	return cfg
}

// =============================================================================
// DEBUG CONFIGURATION
// =============================================================================

// DebugConfig controls the pprof/metrics side server.
type DebugConfig struct {
	Enabled bool
	Addr    string
}

// DefaultDebug returns the default debug server settings.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled: true,
		Addr:    "localhost:6060",
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim      SimConfig
	Viewport ViewportConfig
	Physics  PhysicsConfig
	Spawn    SpawnConfig
	Limits   ResourceLimits
	Server   ServerConfig
	Debug    DebugConfig
}

// Default returns the complete configuration without environment overrides.
func Default() AppConfig {
	return AppConfig{
		Sim:      DefaultSim(),
		Viewport: DefaultViewport(),
		Physics:  DefaultPhysics(),
		Spawn:    DefaultSpawn(),
		Limits:   DefaultLimits(),
		Server:   DefaultServer(),
		Debug:    DefaultDebug(),
	}
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:      SimFromEnv(),
		Viewport: ViewportFromEnv(),
		Physics:  PhysicsFromEnv(),
		Spawn:    SpawnFromEnv(),
		Limits:   LimitsFromEnv(),
		Server:   ServerFromEnv(),
		Debug:    DebugFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
