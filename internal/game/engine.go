package game

import (
	"log"
	"math"
	"sync"
	"time"

	"asteroid-drift/internal/config"
	"asteroid-drift/internal/physics"
)

// initialAsteroidDrift is the small velocity asteroids carry before the
// spawner's push replaces it.
var initialAsteroidDrift = physics.Vec2{0.2, 0.2}

// EngineConfig holds everything the engine needs at construction.
type EngineConfig struct {
	Sim      config.SimConfig
	Viewport config.ViewportConfig
	Physics  config.PhysicsConfig
	Limits   config.ResourceLimits
	Tuning   config.Tuning
}

// DefaultEngineConfig returns an engine configuration built from defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Sim:      config.DefaultSim(),
		Viewport: config.DefaultViewport(),
		Physics:  config.DefaultPhysics(),
		Limits:   config.DefaultLimits(),
		Tuning:   config.DefaultTuning(),
	}
}

// FrameReport summarizes one Step call for metrics.
type FrameReport struct {
	Ticks        int
	Duration     time.Duration
	Tests        int
	Contacts     int
	Live         int
	Asteroids    int
	Bullets      int
	HandleErrors uint64
	DroppedTicks uint64
}

// EngineStats is a point-in-time view for the stats endpoint.
type EngineStats struct {
	TickCount    uint64            `json:"tickCount"`
	Round        int               `json:"round"`
	Running      bool              `json:"running"`
	GameOver     bool              `json:"gameOver"`
	Score        int               `json:"score"`
	HighScore    int               `json:"highScore"`
	LiveBodies   int               `json:"liveBodies"`
	Slots        int               `json:"slots"`
	Colliders    int               `json:"colliders"`
	Asteroids    int               `json:"asteroids"`
	Bullets      int               `json:"bullets"`
	HandleErrors uint64            `json:"handleErrors"`
	DroppedTicks uint64            `json:"droppedTicks"`
	LastTick     physics.TickStats `json:"lastTick"`
}

// Engine runs the fixed-step simulation and owns every gameplay object.
// All world access happens under mu; the physics kernel itself is not
// safe for concurrent use.
type Engine struct {
	mu sync.RWMutex

	world   *physics.World
	camera  Camera
	spawner *Spawner

	player    *Player
	bullets   []*Bullet
	asteroids []*Asteroid
	input     inputState

	// Handles that took part in a contact during the current frame
	collided map[physics.Handle]struct{}

	sim    config.SimConfig
	limits config.ResourceLimits
	tuning config.Tuning
	dt     float64

	accumulator  float64
	tickCount    uint64
	droppedTicks uint64
	lastTick     physics.TickStats
	round        int
	highScore    int
	gameOver     bool

	running  bool
	stopChan chan struct{}

	onFrame func(FrameReport)

	// Snapshot system for lock-free reader separation
	snapshotPool *SnapshotPool

	// Bounded event log for replay and debugging
	eventLog *EventLog
}

// NewEngine creates an engine with a fresh round already set up.
func NewEngine(cfg EngineConfig) *Engine {
	seed := cfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.Sim.MaxTicksPerFrame <= 0 {
		cfg.Sim.MaxTicksPerFrame = config.DefaultSim().MaxTicksPerFrame
	}

	viewport := physics.Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}
	world := physics.NewWorld(physics.Config{
		Viewport: viewport,
		Gravity:  physics.Vec2{cfg.Tuning.Gravity.X, cfg.Tuning.Gravity.Y},
		Capacity: cfg.Physics.Capacity,
	})

	e := &Engine{
		world:        world,
		camera:       Camera{Viewport: world.Viewport()},
		spawner:      NewSpawner(cfg.Tuning.Spawn, seed),
		bullets:      make([]*Bullet, 0, cfg.Limits.MaxBullets),
		asteroids:    make([]*Asteroid, 0, cfg.Limits.MaxAsteroids),
		collided:     make(map[physics.Handle]struct{}),
		sim:          cfg.Sim,
		limits:       cfg.Limits,
		tuning:       cfg.Tuning,
		dt:           cfg.Sim.FixedDelta(),
		snapshotPool: NewSnapshotPool(cfg.Limits.MaxSnapshotBodies),
		eventLog:     NewEventLog(),
	}

	e.reset()
	e.produceSnapshot()
	return e
}

// Start begins the real-time loop. Each wake-up feeds the elapsed wall time
// into Step, which runs as many fixed ticks as have accumulated.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	stop := e.stopChan
	e.mu.Unlock()

	go e.loop(stop)

	log.Printf("🚀 Simulation started at %d ticks/s (dt=%.3fs)", e.sim.TickRate, e.dt)
}

// Stop stops the loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	close(e.stopChan)
	log.Println("🛑 Simulation stopped")
}

// IsRunning reports whether the loop goroutine is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

func (e *Engine) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Duration(e.dt * float64(time.Second)))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			frame := now.Sub(last).Seconds()
			last = now
			e.Step(frame)
		case <-stop:
			return
		}
	}
}

// Step adds frameDt seconds to the accumulator and runs the fixed ticks that
// fit, at most MaxTicksPerFrame. Returns the number of ticks run.
func (e *Engine) Step(frameDt float64) int {
	e.mu.Lock()
	report := e.advance(frameDt)
	hook := e.onFrame
	e.mu.Unlock()

	if hook != nil {
		hook(report)
	}
	return report.Ticks
}

func (e *Engine) advance(frameDt float64) FrameReport {
	start := time.Now()
	if frameDt < 0 || math.IsNaN(frameDt) {
		frameDt = 0
	}
	e.accumulator += frameDt
	// Contact marks describe the last frame that ticked.
	if e.accumulator >= e.dt {
		clear(e.collided)
	}

	var report FrameReport
	for e.accumulator >= e.dt && report.Ticks < e.sim.MaxTicksPerFrame {
		e.tick()
		e.accumulator -= e.dt
		report.Ticks++
		report.Tests += e.lastTick.Tests
		report.Contacts += e.lastTick.Contacts
	}

	// Too far behind: drop the backlog rather than spiral
	if e.accumulator >= e.dt {
		e.droppedTicks += uint64(e.accumulator / e.dt)
		e.accumulator = math.Mod(e.accumulator, e.dt)
	}

	e.produceSnapshot()

	ws := e.world.Stats()
	report.Duration = time.Since(start)
	report.Live = ws.Live
	report.Asteroids = len(e.asteroids)
	report.Bullets = len(e.bullets)
	report.HandleErrors = ws.HandleErrors
	report.DroppedTicks = e.droppedTicks
	return report
}

// tick runs one fixed step: controls, physics, camera, entity lifetimes, spawning.
func (e *Engine) tick() {
	e.applyInput()

	stats := e.world.Tick(e.dt, e.camera.TopLeft())
	e.lastTick = stats

	if p := e.player; p != nil && !p.Dead {
		if b, err := e.world.Get(p.Body); err == nil {
			e.camera.Follow(b.Position)
		}
		p.update(e.dt)
	}

	for _, b := range e.bullets {
		if !b.dead {
			b.update(e.dt)
		}
	}
	for _, a := range e.asteroids {
		if !a.dead {
			a.update(e.dt)
		}
	}
	e.compact()

	if !e.gameOver && e.spawner.Update(e.dt) {
		e.spawnAsteroid(e.spawner.Plan(e.camera))
	}

	e.tickCount++
	e.eventLog.EmitSimple(EventTypeTick, e.tickCount, sourceWorld, TickPayload{
		DeltaTimeNs: int64(e.dt * 1e9),
		Live:        e.world.Stats().Live,
		OnScreen:    stats.OnScreen,
		Contacts:    stats.Contacts,
	})
}

// compact drops destroyed entities in place (zero-allocation filtering).
func (e *Engine) compact() {
	n := 0
	for _, b := range e.bullets {
		if !b.dead {
			e.bullets[n] = b
			n++
		}
	}
	clear(e.bullets[n:])
	e.bullets = e.bullets[:n]

	n = 0
	for _, a := range e.asteroids {
		if !a.dead {
			e.asteroids[n] = a
			n++
		}
	}
	clear(e.asteroids[n:])
	e.asteroids = e.asteroids[:n]
}

// reset unloads the world and starts a new round with a fresh ship.
func (e *Engine) reset() {
	e.world.Unload()
	clear(e.bullets)
	clear(e.asteroids)
	e.bullets = e.bullets[:0]
	e.asteroids = e.asteroids[:0]
	clear(e.collided)
	e.input = inputState{}
	e.accumulator = 0
	e.gameOver = false
	e.spawner.Reset()
	e.round++

	start := physics.Vec2{e.camera.Viewport.Width / 2, e.camera.Viewport.Height / 2}
	if err := e.spawnPlayer(start); err != nil {
		log.Printf("⚠️ Failed to create player: %v", err)
	}
	e.camera.Follow(start)
}

// createBody enforces the body cap before handing d to the world.
func (e *Engine) createBody(d physics.Descriptor) (physics.Handle, error) {
	if e.world.Stats().Live >= e.limits.MaxBodies {
		return physics.NoHandle, ErrBodyLimit
	}
	return e.world.Create(d)
}

func (e *Engine) spawnPlayer(pos physics.Vec2) error {
	t := e.tuning.Player
	p := &Player{
		engine:    e,
		Health:    t.MaxHealth,
		MaxHealth: t.MaxHealth,
	}
	p.ref = e.world.Refs().Register(p)

	h, err := e.createBody(physics.Descriptor{
		Category:    physics.CategoryPlayer,
		Position:    pos,
		SpeedLimit:  t.SpeedLimit,
		TorqueLimit: t.TorqueLimit,
		Decay:       t.Decay,
		Shape:       physics.ShapeCircle,
		Width:       t.Width,
		Height:      t.Height,
		Center:      playerCenter,
		Owner:       p.ref,
	})
	if err != nil {
		e.world.Refs().Release(p.ref)
		e.player = nil
		return err
	}
	p.Body = h
	e.player = p
	return nil
}

// shoot fires a bullet along the ship's heading if the gun is ready.
func (e *Engine) shoot() bool {
	p := e.player
	if p == nil || p.Dead || !p.GunReady() {
		return false
	}
	if len(e.bullets) >= e.limits.MaxBullets {
		return false
	}
	ship, err := e.world.Get(p.Body)
	if err != nil {
		return false
	}
	rotation := ship.Rotation
	dir := physics.ForwardVector(rotation)
	pos := ship.Position.Add(dir.Mul(gunOffset))

	t := e.tuning.Bullet
	b := &Bullet{
		engine:   e,
		Damage:   t.Damage,
		Lifetime: t.Lifetime,
	}
	b.ref = e.world.Refs().Register(b)

	h, err := e.createBody(physics.Descriptor{
		Category:   physics.CategoryBullet,
		Position:   pos,
		Rotation:   rotation,
		SpeedLimit: t.Speed,
		Shape:      physics.ShapeCircle,
		Width:      t.Size,
		Height:     t.Size,
		Center:     bulletCenter,
		Owner:      b.ref,
	})
	if err != nil {
		e.world.Refs().Release(b.ref)
		return false
	}
	b.Body = h
	e.world.ApplyDirected(h, t.Speed, dir)

	p.gunCooldown = e.tuning.Player.GunCooldown
	e.bullets = append(e.bullets, b)

	e.eventLog.EmitSimple(EventTypeShoot, e.tickCount, sourcePlayer, ShootPayload{
		Handle:   int(h),
		X:        pos.X(),
		Y:        pos.Y(),
		Rotation: rotation,
	})
	return true
}

// spawnAsteroid creates an asteroid from a spawner plan.
func (e *Engine) spawnAsteroid(plan SpawnPlan) *Asteroid {
	if len(e.asteroids) >= e.limits.MaxAsteroids {
		return nil
	}
	t := e.tuning
	a := &Asteroid{
		engine: e,
		Mass:   t.Spawn.Mass,
		Size:   t.Spawn.Size,
		Life:   t.Asteroid.Life,
		Damage: t.Spawn.Mass * t.Asteroid.DamagePerMass,
	}
	a.ref = e.world.Refs().Register(a)

	h, err := e.createBody(physics.Descriptor{
		Category:   physics.CategoryAsteroid,
		Position:   plan.Position,
		Velocity:   initialAsteroidDrift,
		SpeedLimit: t.Asteroid.SpeedLimit,
		Shape:      physics.ShapeCircle,
		Width:      a.Size / 2,
		Height:     a.Size / 2,
		Center:     asteroidCenter,
		Owner:      a.ref,
	})
	if err != nil {
		e.world.Refs().Release(a.ref)
		if err != ErrBodyLimit {
			log.Printf("⚠️ Asteroid spawn failed: %v", err)
		}
		return nil
	}
	a.Body = h
	e.world.ApplyDirected(h, t.Spawn.Force, plan.Direction)
	e.world.ApplyTorque(h, plan.Torque)
	e.asteroids = append(e.asteroids, a)

	e.eventLog.EmitSimple(EventTypeSpawn, e.tickCount, sourceSpawner, SpawnPayload{
		Handle: int(h),
		X:      plan.Position.X(),
		Y:      plan.Position.Y(),
		Torque: plan.Torque,
	})
	return a
}

func (e *Engine) destroyBullet(b *Bullet, reason string) {
	if b.dead {
		return
	}
	b.dead = true
	e.removeBody(b.Body, b.ref, physics.CategoryBullet, reason)
}

func (e *Engine) destroyAsteroid(a *Asteroid, reason string) {
	if a.dead {
		return
	}
	a.dead = true
	e.removeBody(a.Body, a.ref, physics.CategoryAsteroid, reason)
}

func (e *Engine) removeBody(h physics.Handle, ref physics.Ref, cat physics.Category, reason string) {
	e.world.Remove(h)
	e.world.Refs().Release(ref)
	e.eventLog.EmitSimple(EventTypeDestroy, e.tickCount, sourceWorld, DestroyPayload{
		Handle:   int(h),
		Category: cat.String(),
		Reason:   reason,
	})
}

// killPlayer ends the round.
func (e *Engine) killPlayer() {
	p := e.player
	if p == nil || p.Dead {
		return
	}
	p.Dead = true
	e.removeBody(p.Body, p.ref, physics.CategoryPlayer, "killed")

	e.gameOver = true
	e.input = inputState{}
	if p.Score > e.highScore {
		e.highScore = p.Score
	}

	e.eventLog.EmitSimple(EventTypeGameOver, e.tickCount, sourcePlayer, GameOverPayload{
		Score:     p.Score,
		HighScore: e.highScore,
	})
	log.Printf("💥 Ship destroyed. Score: %d (best %d)", p.Score, e.highScore)
}

func (e *Engine) markCollided(handles ...physics.Handle) {
	for _, h := range handles {
		e.collided[h] = struct{}{}
	}
}

// Restart unloads the world and begins a new round. The high score survives.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p := e.player; p != nil && p.Score > e.highScore {
		e.highScore = p.Score
	}
	e.reset()
	e.produceSnapshot()

	e.eventLog.EmitSimple(EventTypeRestart, e.tickCount, sourceAPI, RestartPayload{
		Round:     e.round,
		HighScore: e.highScore,
	})
	log.Printf("🔄 Round %d started", e.round)
}

// Control presses (active=true) or releases a ship control.
func (e *Engine) Control(action Action, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver && active {
		return ErrGameOver
	}
	return e.input.set(action, active)
}

// SetGravity changes the ambient acceleration for every body.
func (e *Engine) SetGravity(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.world.SetGravity(x, y)
	e.tuning.Gravity = config.Vec2Tuning{X: x, Y: y}
	e.eventLog.EmitSimple(EventTypeGravity, e.tickCount, sourceAPI, GravityPayload{X: x, Y: y})
}

// Gravity returns the ambient acceleration.
func (e *Engine) Gravity() (x, y float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g := e.world.Gravity()
	return g.X(), g.Y()
}

// ApplyTuning swaps gameplay numbers. Bodies already in the world keep their
// limits; new bodies and the spawner use the new values.
func (e *Engine) ApplyTuning(t config.Tuning) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tuning = t
	e.world.SetGravity(t.Gravity.X, t.Gravity.Y)
	e.spawner.SetTuning(t.Spawn)
}

// Tuning returns the active gameplay numbers.
func (e *Engine) Tuning() config.Tuning {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tuning
}

// Body returns a copy of the live body behind h.
func (e *Engine) Body(h int) (BodySnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	handle := physics.Handle(h)
	// Range is checked here so request input never reaches the kernel's
	// debug assertion.
	if h < 0 || h >= e.world.Stats().Slots {
		return BodySnapshot{}, &physics.HandleError{Op: "body", Handle: handle, Err: physics.ErrHandleOutOfRange}
	}
	b, err := e.world.Get(handle)
	if err != nil {
		return BodySnapshot{}, err
	}
	snap := NewBodySnapshot(b)
	_, snap.Collided = e.collided[handle]
	return snap, nil
}

// SetFrameHook registers a callback run after every Step, outside the lock.
func (e *Engine) SetFrameHook(fn func(FrameReport)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFrame = fn
}

// produceSnapshot copies the world into the next pool slot. Caller holds mu.
func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = e.tickCount

	limit := e.snapshotPool.MaxBodies()
	e.world.Each(func(b *physics.Body) {
		if len(snap.Bodies) >= limit {
			snap.Truncated = true
			return
		}
		bs := NewBodySnapshot(b)
		_, bs.Collided = e.collided[b.Handle]
		snap.Bodies = append(snap.Bodies, bs)
	})

	if p := e.player; p != nil {
		snap.HUD = HUDSnapshot{
			Health:    p.Health,
			MaxHealth: p.MaxHealth,
			Score:     p.Score,
			GunReady:  p.GunReady(),
		}
	}
	snap.HUD.HighScore = e.highScore
	snap.HUD.GameOver = e.gameOver
	snap.HUD.Round = e.round

	tl := e.camera.TopLeft()
	snap.CameraX, snap.CameraY = tl.X(), tl.Y()
	snap.ViewportW, snap.ViewportH = e.camera.Viewport.Width, e.camera.Viewport.Height
	g := e.world.Gravity()
	snap.GravityX, snap.GravityY = g.X(), g.Y()

	snap.LiveBodies = e.world.Stats().Live
	snap.Asteroids = len(e.asteroids)
	snap.Bullets = len(e.bullets)
	snap.Contacts = e.lastTick.Contacts

	e.snapshotPool.PublishWrite()
}

// GetSnapshot returns a copy of the latest published snapshot.
func (e *Engine) GetSnapshot() GameSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := *e.snapshotPool.AcquireRead()
	snap.Bodies = append([]BodySnapshot(nil), snap.Bodies...)
	return snap
}

// Stats returns engine counters.
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ws := e.world.Stats()
	s := EngineStats{
		TickCount:    e.tickCount,
		Round:        e.round,
		Running:      e.running,
		GameOver:     e.gameOver,
		HighScore:    e.highScore,
		LiveBodies:   ws.Live,
		Slots:        ws.Slots,
		Colliders:    ws.Colliders,
		Asteroids:    len(e.asteroids),
		Bullets:      len(e.bullets),
		HandleErrors: ws.HandleErrors,
		DroppedTicks: e.droppedTicks,
		LastTick:     ws.LastTick,
	}
	if e.player != nil {
		s.Score = e.player.Score
	}
	return s
}

// RecentEvents returns up to n of the newest logged events.
func (e *Engine) RecentEvents(n int) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.eventLog.Recent(n)
}

// StartEventLog begins event logging; an empty path keeps events in memory only.
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog stops event logging and flushes pending events.
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log counters.
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// GetLimits returns the configured resource limits.
func (e *Engine) GetLimits() config.ResourceLimits {
	return e.limits
}
