// Package cursor implements the virtual cursor engine: line-walking
// the mouse path pixel-by-pixel and gliding along screen edges when
// the straight path would cross a void (§4.4).
package cursor

import (
	"fmt"
	"math"
)

// Point is an integer-snapped position in the global pointer space.
type Point struct {
	X, Y int32
}

// InBounds reports whether (x, y) lies within some confirmed output;
// the cursor engine is generic over this test so it can be driven by
// geometry.Model without importing it (keeps the line-walk algorithm
// independent of the output-tracking data structure).
type InBounds func(x, y int32) bool

// State holds the current and previous cursor positions.
type State struct {
	Cursor, PrevCursor Point
}

// Move updates PrevCursor then Cursor, per the ordering invariant in
// §3 ("prev_cursor is updated ... before cursor is mutated").
func (s *State) Move(to Point) {
	s.PrevCursor = s.Cursor
	s.Cursor = to
}

// Walk generates the pixel-by-pixel path from start to end, applying
// the wall-glide void policy whenever a step would land off-screen.
// It returns every point visited, including both endpoints.
//
// Classification follows §4.4: step by the steeper dimension (unit x
// when |dy/dx| < 1, else unit y), special-casing vertical lines.
func Walk(start, end Point, inBounds InBounds) ([]Point, error) {
	points := []Point{start}
	if start == end {
		return points, nil
	}

	// trueEnd never changes: it's the caller's actual destination. target
	// is what the current straight-line leg aims at, which is trueEnd
	// except while gliding along a wall, where it's temporarily pinned to
	// a perpendicular line hugging the void's edge.
	trueEnd := end
	target := end

	const maxGlides = 64 // defensive: a consistent layout glides a handful of times at most
	glides := 0
	const maxIterations = 4096 // defensive backstop against any non-glide cycle
	iterations := 0

	cur := start
	for cur != trueEnd {
		iterations++
		if iterations > maxIterations {
			return nil, fmt.Errorf("cursor: wall-glide did not converge after %d iterations", maxIterations)
		}

		segment, landedOffScreen, next := walkStraight(cur, target, inBounds)
		points = append(points, segment...)
		if len(segment) > 0 {
			cur = segment[len(segment)-1]
		}
		if !landedOffScreen {
			if cur == trueEnd {
				break
			}
			// Cleared the wall without re-hitting a void: resume heading
			// for the real destination instead of continuing to hug the
			// perpendicular line the glide rewrote.
			target = trueEnd
			continue
		}

		if glides >= maxGlides {
			return nil, fmt.Errorf("cursor: wall-glide did not converge after %d retreats", maxGlides)
		}

		lastGood := cur
		retreatAxis, retreatPoint, ok := findGlideRetreat(lastGood, next, inBounds)
		if !ok {
			return nil, fmt.Errorf("cursor: no valid wall-glide retreat from %+v toward %+v", lastGood, next)
		}
		cur = retreatPoint
		target = rewriteEndPerpendicular(retreatPoint, trueEnd, retreatAxis)
		points = append(points, cur)
		glides++
	}

	return points, nil
}

// axis identifies which coordinate a wall-glide retreat moved along.
type axis int

const (
	axisX axis = iota
	axisY
)

// walkStraight steps from start toward end one pixel at a time while
// in bounds, stopping at the first off-screen point (which it does
// not include in the returned segment) or at end. It reports whether
// it stopped because of an off-screen landing and, if so, the
// attempted (off-screen) point for use by the glide search.
func walkStraight(start, end Point, inBounds InBounds) (segment []Point, offScreen bool, attempted Point) {
	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)

	if dx == 0 && dy == 0 {
		return nil, false, start
	}

	var stepX, stepY func(pos int) Point
	var steps int

	if dx == 0 {
		// Vertical line.
		steps = int(math.Abs(dy))
		dir := sign(dy)
		stepX = func(pos int) Point { return Point{X: start.X, Y: start.Y + int32(dir*pos)} }
		stepY = stepX
	} else if math.Abs(dy/dx) < 1 {
		steps = int(math.Abs(dx))
		dirX := sign(dx)
		slope := dy / dx
		stepX = func(pos int) Point {
			x := start.X + int32(dirX*pos)
			y := start.Y + int32(math.Round(float64(dirX*pos)*slope))
			return Point{X: x, Y: y}
		}
		stepY = stepX
	} else {
		steps = int(math.Abs(dy))
		dirY := sign(dy)
		recip := dx / dy
		stepX = func(pos int) Point {
			y := start.Y + int32(dirY*pos)
			x := start.X + int32(math.Round(float64(dirY*pos)*recip))
			return Point{X: x, Y: y}
		}
		stepY = stepX
	}
	_ = stepY

	for pos := 1; pos <= steps; pos++ {
		p := stepX(pos)
		if !inBounds(p.X, p.Y) {
			return segment, true, p
		}
		segment = append(segment, p)
		if p == end {
			return segment, false, p
		}
	}
	return segment, false, segment[len(segment)-1]
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

// findGlideRetreat tests two pixels adjacent to lastGood against
// inBounds and returns the first one that is valid: first lastGood
// with X taken from attempted (axisX), then lastGood with Y taken from
// attempted (axisY). Only these two single-axis steps toward attempted
// are tested; the pixels on the far side of lastGood are not.
func findGlideRetreat(lastGood, attempted Point, inBounds InBounds) (axis, Point, bool) {
	candidates := []struct {
		ax axis
		p  Point
	}{
		{axisX, Point{X: attempted.X, Y: lastGood.Y}},
		{axisY, Point{X: lastGood.X, Y: attempted.Y}},
	}
	for _, c := range candidates {
		if inBounds(c.p.X, c.p.Y) {
			return c.ax, c.p, true
		}
	}
	return 0, Point{}, false
}

// rewriteEndPerpendicular rewrites the remaining target so the path
// continues perpendicular to the retreat axis: a retreat along X keeps
// sliding in X toward the original end's X while holding Y fixed at
// the retreat point (and vice versa for a Y retreat), so the cursor
// glides along the wall instead of stopping.
func rewriteEndPerpendicular(retreat, originalEnd Point, ax axis) Point {
	switch ax {
	case axisX:
		return Point{X: originalEnd.X, Y: retreat.Y}
	default:
		return Point{X: retreat.X, Y: originalEnd.Y}
	}
}
