package game

import "asteroid-drift/internal/physics"

// Camera frames the viewport around a target point.
type Camera struct {
	Target   physics.Vec2
	Viewport physics.Viewport
}

// TopLeft returns the world position of the viewport's top-left corner.
func (c Camera) TopLeft() physics.Vec2 {
	return c.Target.Sub(physics.Vec2{c.Viewport.Width / 2, c.Viewport.Height / 2})
}

// Bounds returns the left, top, right and bottom world edges.
func (c Camera) Bounds() (left, top, right, bottom float64) {
	tl := c.TopLeft()
	return tl.X(), tl.Y(), tl.X() + c.Viewport.Width, tl.Y() + c.Viewport.Height
}

// Follow recenters the camera on target.
func (c *Camera) Follow(target physics.Vec2) {
	c.Target = target
}
