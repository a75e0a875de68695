package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"asteroid-drift/internal/api"
	"asteroid-drift/internal/config"
	"asteroid-drift/internal/game"
	"asteroid-drift/internal/ipc"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("☄️ ================================")
	log.Println("☄️  ASTEROID DRIFT - SIM SERVER")
	log.Println("☄️ ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	serverCfg := appConfig.Server

	// Gameplay tuning: defaults < env < file
	baseTuning := appConfig.BaseTuning()
	tuning := baseTuning
	if serverCfg.TuningPath != "" {
		loaded, err := config.LoadTuning(baseTuning, serverCfg.TuningPath)
		if err != nil {
			log.Fatalf("❌ Tuning: %v", err)
		}
		tuning = loaded
		log.Printf("🔧 Tuning loaded from %s", serverCfg.TuningPath)
	}

	engine := game.NewEngine(game.EngineConfig{
		Sim:      appConfig.Sim,
		Viewport: appConfig.Viewport,
		Physics:  appConfig.Physics,
		Limits:   appConfig.Limits,
		Tuning:   tuning,
	})

	// Snapshot relay for out-of-process viewers
	var relay *ipc.Relay
	if serverCfg.RelaySocket != "" {
		relay = ipc.NewRelay(serverCfg.RelaySocket, ipc.World{
			Width:    int(appConfig.Viewport.Width),
			Height:   int(appConfig.Viewport.Height),
			TickRate: appConfig.Sim.TickRate,
		})
		if err := relay.Start(); err != nil {
			log.Printf("⚠️ Snapshot relay disabled: %v", err)
			relay = nil
		}
	}

	engine.SetFrameHook(func(report game.FrameReport) {
		api.ObserveFrame(report)
		if relay != nil && report.Ticks > 0 {
			snap := engine.GetSnapshot()
			relay.Publish(&snap)
			st := relay.Stats()
			api.ObserveRelay(st.Viewers, st.Dropped)
		}
	})

	limits := engine.GetLimits()
	log.Printf("🎮 Config: %d ticks/s, viewport %.0fx%.0f, gravity (%.1f, %.1f)",
		appConfig.Sim.TickRate, appConfig.Viewport.Width, appConfig.Viewport.Height,
		tuning.Gravity.X, tuning.Gravity.Y)
	log.Printf("🛡️ Resource limits: %d bodies, %d asteroids, %d bullets",
		limits.MaxBodies, limits.MaxAsteroids, limits.MaxBullets)

	// Start event log (empty path keeps events in memory for /api/events)
	if err := engine.StartEventLog(serverCfg.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if serverCfg.EventLogPath != "" {
		log.Printf("📝 Event log: %s", serverCfg.EventLogPath)
	}

	debugServer := api.StartDebugServer(api.DebugServerConfig{
		Enabled: appConfig.Debug.Enabled,
		Addr:    appConfig.Debug.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-reload tuning
	if serverCfg.TuningPath != "" {
		go func() {
			if err := config.WatchTuning(ctx, serverCfg.TuningPath, baseTuning, engine.ApplyTuning); err != nil {
				log.Printf("⚠️ Tuning watcher stopped: %v", err)
			}
		}()
	}

	if serverCfg.ControlToken == "" {
		log.Println("⚠️ CONTROL_TOKEN not set: control routes are open")
	}

	server := api.NewServer(engine, api.ServerOptions{
		ControlToken: serverCfg.ControlToken,
		BroadcastHz:  serverCfg.BroadcastHz,
	})

	engine.Start()

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("❌ API server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ API shutdown: %v", err)
	}
	if debugServer != nil {
		debugServer.Shutdown(shutdownCtx)
	}

	engine.Stop()
	if relay != nil {
		relay.Stop()
	}
	engine.StopEventLog()

	stats := engine.Stats()
	log.Printf("👋 Goodbye! %d ticks, best score %d", stats.TickCount, stats.HighScore)
}
