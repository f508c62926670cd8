package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// drawLine stamps a round brush at every step of the longer axis, so
// consecutive stamps are at most one pixel apart and the line has no gaps.
// The segment is first clipped to the surface grown by the brush radius,
// which bounds the work by the surface size whatever the input points.
func drawLine(img *image.RGBA, from Point, to Point, c color.RGBA, width int) {
	from, to, ok := clipSegment(from, to, img.Bounds().Inset(-width/2))
	if !ok {
		return
	}

	dx := to.X - from.X
	dy := to.Y - from.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		stampDisc(img, from, c, width)
		return
	}

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := Point{
			X: from.X + int(math.Round(float64(dx)*t)),
			Y: from.Y + int(math.Round(float64(dy)*t)),
		}
		stampDisc(img, p, c, width)
	}
}

// clipSegment clips from-to to the pixels of r (Liang-Barsky). It works in
// float64 so distant points cannot overflow, and reports false when the
// segment misses r.
func clipSegment(from Point, to Point, r image.Rectangle) (Point, Point, bool) {
	if r.Empty() {
		return from, to, false
	}

	x0, y0 := float64(from.X), float64(from.Y)
	dx, dy := float64(to.X)-x0, float64(to.Y)-y0
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, x0 - float64(r.Min.X)},
		{dx, float64(r.Max.X-1) - x0},
		{-dy, y0 - float64(r.Min.Y)},
		{dy, float64(r.Max.Y-1) - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return from, to, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return from, to, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return from, to, false
			}
			t1 = min(t1, t)
		}
	}

	at := func(t float64) Point {
		return Point{X: int(math.Round(x0 + t*dx)), Y: int(math.Round(y0 + t*dy))}
	}
	return at(t0), at(t1), true
}

func stampDisc(img *image.RGBA, center Point, c color.RGBA, width int) {
	r := width / 2
	if r < 1 {
		img.SetRGBA(center.X, center.Y, c)
		return
	}
	for oy := -r; oy <= r; oy++ {
		for ox := -r; ox <= r; ox++ {
			if ox*ox+oy*oy <= r*r {
				// SetRGBA ignores points outside the bounds
				img.SetRGBA(center.X+ox, center.Y+oy, c)
			}
		}
	}
}

// eraseSquare clears a size x size square centred on the pointer back to
// transparent.
func eraseSquare(img *image.RGBA, center Point, size int) {
	if !image.Pt(center.X, center.Y).In(img.Bounds().Inset(-size)) {
		return
	}
	half := size / 2
	rect := image.Rect(center.X-half, center.Y-half, center.X-half+size, center.Y-half+size).Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(img, rect, image.Transparent, image.Point{}, draw.Src)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
