package physics

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// BodyRect returns the rectangle of b. Rectangles use the raw position as
// their corner; the local center offset only applies to circles.
func BodyRect(b *Body) Rect {
	return Rect{X: b.Position.X(), Y: b.Position.Y(), Width: b.Width, Height: b.Height}
}

// CirclesOverlap reports whether two circles intersect. Touching circles
// (distance exactly r1+r2) do not overlap.
func CirclesOverlap(c1 Vec2, r1 float64, c2 Vec2, r2 float64) bool {
	sum := r1 + r2
	return c2.Sub(c1).LenSqr() < sum*sum
}

// CircleRectOverlap reports whether a circle intersects an axis-aligned rectangle.
func CircleRectOverlap(c Vec2, r float64, rect Rect) bool {
	halfW := rect.Width / 2
	halfH := rect.Height / 2
	dx := abs(c.X() - (rect.X + halfW))
	dy := abs(c.Y() - (rect.Y + halfH))

	if dx > halfW+r || dy > halfH+r {
		return false
	}
	if dx <= halfW || dy <= halfH {
		return true
	}
	cx := dx - halfW
	cy := dy - halfH
	return cx*cx+cy*cy <= r*r
}

// RectsOverlap reports whether two rectangles overlap. Shared edges do not count.
func RectsOverlap(a, b Rect) bool {
	return a.X < b.X+b.Width && a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height && a.Y+a.Height > b.Y
}

// Overlaps runs the narrow-phase test matching the shapes of a and b.
func Overlaps(a, b *Body) bool {
	switch {
	case a.Shape == ShapeCircle && b.Shape == ShapeCircle:
		return CirclesOverlap(a.Origin(), a.Radius(), b.Origin(), b.Radius())
	case a.Shape == ShapeCircle && b.Shape == ShapeRectangle:
		return CircleRectOverlap(a.Origin(), a.Radius(), BodyRect(b))
	case a.Shape == ShapeRectangle && b.Shape == ShapeCircle:
		return CircleRectOverlap(b.Origin(), b.Radius(), BodyRect(a))
	case a.Shape == ShapeRectangle && b.Shape == ShapeRectangle:
		return RectsOverlap(BodyRect(a), BodyRect(b))
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
