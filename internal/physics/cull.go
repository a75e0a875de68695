package physics

// Viewport is the virtual screen size in world units.
type Viewport struct {
	Width  float64
	Height float64
}

// DefaultViewport matches the game's virtual resolution.
var DefaultViewport = Viewport{Width: 640, Height: 360}

// IsOnScreen reports whether pos lies inside the viewport whose top-left corner
// sits at cameraTopLeft. Edges count as inside.
func (v Viewport) IsOnScreen(pos, cameraTopLeft Vec2) bool {
	return pos.X() >= cameraTopLeft.X() && pos.X() <= cameraTopLeft.X()+v.Width &&
		pos.Y() >= cameraTopLeft.Y() && pos.Y() <= cameraTopLeft.Y()+v.Height
}

// cull refreshes the on-screen flag and derives collision eligibility from it.
// This is the only place CollisionEnabled is written.
func (v Viewport) cull(b *Body, cameraTopLeft Vec2) {
	b.OnScreen = v.IsOnScreen(b.Position, cameraTopLeft)
	b.CollisionEnabled = b.OnScreen
}
