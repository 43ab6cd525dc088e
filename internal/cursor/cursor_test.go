package cursor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fullInBounds(_, _ int32) bool { return true }

func TestWalkSamePointSingleton(t *testing.T) {
	pts, err := Walk(Point{X: 5, Y: 5}, Point{X: 5, Y: 5}, fullInBounds)
	require.NoError(t, err)
	require.Equal(t, []Point{{X: 5, Y: 5}}, pts)
}

func TestWalkSinglePixelDiagonal(t *testing.T) {
	pts, err := Walk(Point{X: 0, Y: 0}, Point{X: 1, Y: 1}, fullInBounds)
	require.NoError(t, err)
	require.Equal(t, Point{X: 0, Y: 0}, pts[0])
	require.Equal(t, Point{X: 1, Y: 1}, pts[len(pts)-1])
	require.Len(t, pts, 2)
}

func TestWalkReachesEnd(t *testing.T) {
	pts, err := Walk(Point{X: 0, Y: 0}, Point{X: 10, Y: 3}, fullInBounds)
	require.NoError(t, err)
	require.Equal(t, Point{X: 10, Y: 3}, pts[len(pts)-1])
}

func TestWalkVerticalLine(t *testing.T) {
	pts, err := Walk(Point{X: 4, Y: 0}, Point{X: 4, Y: 5}, fullInBounds)
	require.NoError(t, err)
	require.Equal(t, Point{X: 4, Y: 5}, pts[len(pts)-1])
	for _, p := range pts {
		require.EqualValues(t, 4, p.X)
	}
}

// twoOutputsWithVoid models output A at (0,0,1000,1000) and B at
// (1000,500,1000,500), matching the "void glide" end-to-end scenario.
func twoOutputsWithVoid(x, y int32) bool {
	inA := x >= 0 && x < 1000 && y >= 0 && y < 1000
	inB := x >= 1000 && x < 2000 && y >= 500 && y < 1000
	return inA || inB
}

func TestWalkGlidesAroundVoid(t *testing.T) {
	pts, err := Walk(Point{X: 500, Y: 100}, Point{X: 1100, Y: 700}, twoOutputsWithVoid)
	require.NoError(t, err)
	for _, p := range pts {
		require.True(t, twoOutputsWithVoid(p.X, p.Y), "point %+v left the union of outputs", p)
	}
	require.Equal(t, Point{X: 1100, Y: 700}, pts[len(pts)-1])
}

// staggeredOutputs models output A at (0,0,1000,1000) and B offset
// below A's bottom edge at (1000,700,1000,300), so the void between
// them is taller than B itself — a diagonal crossing must glide along
// A's right edge past the point where B's top edge first appears
// before it can resume toward a target inside B.
func staggeredOutputs(x, y int32) bool {
	inA := x >= 0 && x < 1000 && y >= 0 && y < 1000
	inB := x >= 1000 && x < 2000 && y >= 700 && y < 1000
	return inA || inB
}

func TestWalkResumesTowardTrueEndAfterGlide(t *testing.T) {
	pts, err := Walk(Point{X: 900, Y: 300}, Point{X: 1100, Y: 750}, staggeredOutputs)
	require.NoError(t, err)
	for _, p := range pts {
		require.True(t, staggeredOutputs(p.X, p.Y), "point %+v left the union of outputs", p)
	}
	require.Equal(t, Point{X: 1100, Y: 750}, pts[len(pts)-1])
}

func TestWalkNoRetreatErrors(t *testing.T) {
	// A single point "island" with no adjacent valid pixel at all
	// except itself forces an impossible glide.
	tiny := func(x, y int32) bool { return x == 0 && y == 0 }
	_, err := Walk(Point{X: 0, Y: 0}, Point{X: 5, Y: 5}, tiny)
	require.Error(t, err)
}
