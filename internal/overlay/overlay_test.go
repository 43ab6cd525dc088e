package overlay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaintCircleCenterIsOpaque(t *testing.T) {
	pix := make([]byte, glyphSize*glyphSize*4)
	paintCircle(pix, glyphSize, glyphSize, glyphSize*4, 0xFFFF0000)

	cx, cy := glyphSize/2, glyphSize/2
	off := cy*glyphSize*4 + cx*4
	require.Equal(t, byte(0x00), pix[off+0]) // B
	require.Equal(t, byte(0x00), pix[off+1]) // G
	require.Equal(t, byte(0xFF), pix[off+2]) // R
	require.Equal(t, byte(0xFF), pix[off+3]) // A
}

func TestPaintCircleCornerIsTransparent(t *testing.T) {
	pix := make([]byte, glyphSize*glyphSize*4)
	paintCircle(pix, glyphSize, glyphSize, glyphSize*4, 0xFFFF0000)

	off := 0 // top-left corner pixel
	require.Equal(t, byte(0x00), pix[off+3], "corner of a bounding square outside the inscribed circle must be transparent")
}

func TestPaintCircleFillsExactRadius(t *testing.T) {
	pix := make([]byte, glyphSize*glyphSize*4)
	paintCircle(pix, glyphSize, glyphSize, glyphSize*4, 0xFFFFFFFF)

	cx, cy := glyphSize/2, glyphSize/2
	// A pixel exactly Radius away along one axis is still inside (<=).
	off := cy*glyphSize*4 + (cx+Radius)*4
	require.Equal(t, byte(0xFF), pix[off+3])

	// The pixel Radius away along both axes (the bounding box's corner)
	// falls outside it.
	off = (cy+Radius)*glyphSize*4 + (cx+Radius)*4
	require.Equal(t, byte(0x00), pix[off+3])
}
