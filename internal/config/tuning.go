package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTuning is returned when a tuning file parses but holds unusable numbers.
var ErrInvalidTuning = errors.New("config: invalid tuning")

// Tuning holds the gameplay numbers that can change while the server runs.
type Tuning struct {
	Gravity  Vec2Tuning     `yaml:"gravity"`
	Player   PlayerTuning   `yaml:"player"`
	Bullet   BulletTuning   `yaml:"bullet"`
	Asteroid AsteroidTuning `yaml:"asteroid"`
	Spawn    SpawnTuning    `yaml:"spawn"`
}

// Vec2Tuning is a plain x/y pair.
type Vec2Tuning struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// PlayerTuning configures the ship.
type PlayerTuning struct {
	MaxHealth     float64 `yaml:"max_health"`
	Thrust        float64 `yaml:"thrust"`         // forward force per control tick
	RotationSpeed float64 `yaml:"rotation_speed"` // torque per turn command
	TorqueLimit   float64 `yaml:"torque_limit"`
	SpeedLimit    float64 `yaml:"speed_limit"`
	Decay         float64 `yaml:"decay"`
	GunCooldown   float64 `yaml:"gun_cooldown"` // seconds
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	Knockback     float64 `yaml:"knockback"` // force at full-health damage
}

// BulletTuning configures projectiles.
type BulletTuning struct {
	Damage   float64 `yaml:"damage"`
	Lifetime float64 `yaml:"lifetime"` // seconds
	Speed    float64 `yaml:"speed"`
	Size     float64 `yaml:"size"`
	Score    int     `yaml:"score"` // awarded per asteroid hit
}

// AsteroidTuning configures asteroids.
type AsteroidTuning struct {
	Life          float64 `yaml:"life"`
	DamagePerMass float64 `yaml:"damage_per_mass"`
	SpeedLimit    float64 `yaml:"speed_limit"`
	Erosion       float64 `yaml:"erosion"` // life lost per second
}

// SpawnTuning overrides the spawner.
type SpawnTuning struct {
	IntervalMS int     `yaml:"interval_ms"`
	EdgeMargin float64 `yaml:"edge_margin"`
	Force      float64 `yaml:"force"`
	MaxTorque  float64 `yaml:"max_torque"`
	Mass       float64 `yaml:"mass"`
	Size       float64 `yaml:"size"`
}

// DefaultTuning returns the stock gameplay numbers.
func DefaultTuning() Tuning {
	spawn := DefaultSpawn()
	return Tuning{
		Player: PlayerTuning{
			MaxHealth:     100,
			Thrust:        40,
			RotationSpeed: 2,
			TorqueLimit:   50,
			SpeedLimit:    100,
			Decay:         1,
			GunCooldown:   0.1,
			Width:         16,
			Height:        10,
			Knockback:     100,
		},
		Bullet: BulletTuning{
			Damage:   100,
			Lifetime: 1,
			Speed:    500,
			Size:     2,
			Score:    10,
		},
		Asteroid: AsteroidTuning{
			Life:          100,
			DamagePerMass: 0.5,
			SpeedLimit:    50,
			Erosion:       0.1,
		},
		Spawn: SpawnTuning{
			IntervalMS: int(spawn.Interval.Milliseconds()),
			EdgeMargin: spawn.EdgeMargin,
			Force:      spawn.Force,
			MaxTorque:  spawn.MaxTorque,
			Mass:       spawn.Mass,
			Size:       spawn.Size,
		},
	}
}

// BaseTuning returns the stock tuning with the environment's gravity and
// spawn settings applied. A tuning file is decoded over it.
func (c AppConfig) BaseTuning() Tuning {
	t := DefaultTuning()
	t.Gravity = Vec2Tuning{X: c.Physics.GravityX, Y: c.Physics.GravityY}
	t.Spawn = SpawnTuning{
		IntervalMS: int(c.Spawn.Interval.Milliseconds()),
		EdgeMargin: c.Spawn.EdgeMargin,
		Force:      c.Spawn.Force,
		MaxTorque:  c.Spawn.MaxTorque,
		Mass:       c.Spawn.Mass,
		Size:       c.Spawn.Size,
	}
	return t
}

// ParseTuning decodes YAML over base, so a file only needs the keys it changes.
func ParseTuning(base Tuning, data []byte) (Tuning, error) {
	t := base
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("config: unmarshal tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// LoadTuning reads a tuning file and decodes it over base.
func LoadTuning(base Tuning, path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("config: load tuning %s: %w", path, err)
	}
	t, err := ParseTuning(base, data)
	if err != nil {
		return Tuning{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate rejects numbers the simulation cannot run with.
func (t Tuning) Validate() error {
	switch {
	case t.Player.MaxHealth <= 0:
		return fmt.Errorf("%w: player.max_health must be positive", ErrInvalidTuning)
	case t.Player.Width <= 0 || t.Player.Height <= 0:
		return fmt.Errorf("%w: player size must be positive", ErrInvalidTuning)
	case t.Player.Decay < 0 || t.Player.TorqueLimit < 0 || t.Player.SpeedLimit < 0:
		return fmt.Errorf("%w: player limits must not be negative", ErrInvalidTuning)
	case t.Player.GunCooldown < 0:
		return fmt.Errorf("%w: player.gun_cooldown must not be negative", ErrInvalidTuning)
	case t.Bullet.Size <= 0 || t.Bullet.Lifetime <= 0:
		return fmt.Errorf("%w: bullet size and lifetime must be positive", ErrInvalidTuning)
	case t.Asteroid.Life <= 0:
		return fmt.Errorf("%w: asteroid.life must be positive", ErrInvalidTuning)
	case t.Asteroid.SpeedLimit < 0 || t.Asteroid.Erosion < 0:
		return fmt.Errorf("%w: asteroid limits must not be negative", ErrInvalidTuning)
	case t.Spawn.IntervalMS <= 0:
		return fmt.Errorf("%w: spawn.interval_ms must be positive", ErrInvalidTuning)
	case t.Spawn.Size <= 0 || t.Spawn.Mass <= 0:
		return fmt.Errorf("%w: spawn size and mass must be positive", ErrInvalidTuning)
	}
	return nil
}
