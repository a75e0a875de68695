// Package render draws collision shapes from engine snapshots for debugging.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"asteroid-drift/internal/game"

	"github.com/fogleman/gg"
)

var (
	backgroundColor = color.RGBA{12, 12, 28, 255}
	idleColor       = color.RGBA{40, 220, 90, 255}
	hitColor        = color.RGBA{235, 50, 50, 255}
	offScreenColor  = color.RGBA{90, 90, 110, 255}
	hudColor        = color.RGBA{220, 220, 230, 255}
)

// fillAlpha tints the inside of each shape so overlaps stay readable.
const fillAlpha = 64

// HitboxRenderer draws every body's collision shape relative to the camera.
// Bodies that collided during the snapshot's frame are drawn red.
// The drawing context is reused between calls.
type HitboxRenderer struct {
	mu sync.Mutex
	dc *gg.Context
}

// NewHitboxRenderer creates a renderer for the given pixel size.
func NewHitboxRenderer(width, height int) *HitboxRenderer {
	return &HitboxRenderer{dc: gg.NewContext(width, height)}
}

// Render draws snap and returns a copy of the frame.
func (r *HitboxRenderer) Render(snap *game.GameSnapshot) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	src := r.dc.Image()
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.(*image.RGBA).Pix)
	return dst
}

// EncodePNG draws snap and writes it to w as PNG.
func (r *HitboxRenderer) EncodePNG(w io.Writer, snap *game.GameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	return r.dc.EncodePNG(w)
}

func (r *HitboxRenderer) draw(snap *game.GameSnapshot) {
	dc := r.dc
	dc.SetColor(backgroundColor)
	dc.Clear()

	dc.SetLineWidth(1)
	for i := range snap.Bodies {
		drawBody(dc, &snap.Bodies[i], snap.CameraX, snap.CameraY)
	}

	dc.SetColor(hudColor)
	dc.DrawString(fmt.Sprintf("tick %d  bodies %d  contacts %d", snap.TickNumber, snap.LiveBodies, snap.Contacts), 6, 14)
	hud := snap.HUD
	dc.DrawString(fmt.Sprintf("hp %.0f/%.0f  score %d  best %d", hud.Health, hud.MaxHealth, hud.Score, hud.HighScore), 6, 28)
	if hud.GameOver {
		dc.DrawStringAnchored("GAME OVER", float64(dc.Width())/2, float64(dc.Height())/2, 0.5, 0.5)
	}
}

func drawBody(dc *gg.Context, b *game.BodySnapshot, camX, camY float64) {
	c := idleColor
	switch {
	case b.Collided:
		c = hitColor
	case !b.OnScreen:
		c = offScreenColor
	}

	// Circles sit on the collision origin; rectangles on the raw position
	switch b.Shape {
	case "circle":
		x := b.X + b.CenterX - camX
		y := b.Y + b.CenterY - camY
		dc.DrawCircle(x, y, b.Width/2)
	default:
		dc.DrawRectangle(b.X-camX, b.Y-camY, b.Width, b.Height)
	}
	dc.SetRGBA255(int(c.R), int(c.G), int(c.B), fillAlpha)
	dc.FillPreserve()
	dc.SetColor(c)
	dc.Stroke()

	if b.Category == "player" {
		x := b.X + b.CenterX - camX
		y := b.Y + b.CenterY - camY
		rad := b.Rotation * math.Pi / 180
		dc.DrawLine(x, y, x+math.Sin(rad)*b.Width, y-math.Cos(rad)*b.Width)
		dc.Stroke()
	}
}
