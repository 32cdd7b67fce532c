package compose

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestExtractPatchesOnePerBlob(t *testing.T) {
	img, m := diskScene(200, 100, 10, image.Point{30, 50}, image.Point{100, 50}, image.Point{170, 50})
	defer img.Close()
	defer m.Close()

	patches, err := ExtractPatches(img, m)
	require.NoError(t, err)
	defer func() {
		for i := range patches {
			patches[i].Close()
		}
	}()

	require.Len(t, patches, 3)
	for _, p := range patches {
		assert.False(t, p.Degenerate)
		assert.Equal(t, 21, p.Source.Width)
		assert.Equal(t, p.Mask.Rows(), p.Mask.Cols())
		assert.InEpsilon(t, gocv.CountNonZero(p.Mask), countSeedPixels(p), 0.02)

		pivot := p.Pivot()
		assert.Equal(t, uint8(255), p.Mask.GetUCharAt(pivot.Y, pivot.X))
	}
}

// countSeedPixels counts patch pixels that carry the seed colour.
func countSeedPixels(p Patch) int {
	n := 0
	for y := 0; y < p.Image.Rows(); y++ {
		for x := 0; x < p.Image.Cols(); x++ {
			v := p.Image.GetVecbAt(y, x)
			if v[2] == seedColor.R && v[1] == seedColor.G && v[0] == seedColor.B {
				n++
			}
		}
	}
	return n
}

func TestExtractPatchNearEdge(t *testing.T) {
	img, m := diskScene(60, 60, 10, image.Point{5, 5})
	defer img.Close()
	defer m.Close()

	patches, err := ExtractPatches(img, m)
	require.NoError(t, err)
	require.Len(t, patches, 1)
	defer patches[0].Close()

	assert.InEpsilon(t, gocv.CountNonZero(m), gocv.CountNonZero(patches[0].Mask), 0.02)
}

func TestExtractPatchesRejectsBadMask(t *testing.T) {
	img, _ := squareScene(50, 50, 10)
	defer img.Close()

	_, err := ExtractPatches(img, img)
	assert.Error(t, err)

	small := emptyMask(10, 10)
	defer small.Close()
	_, err = ExtractPatches(img, small)
	assert.Error(t, err)
}

func TestRotatePreservesDiskArea(t *testing.T) {
	img, m := diskScene(120, 120, 25, image.Point{60, 60})
	defer img.Close()
	defer m.Close()

	patches, err := ExtractPatches(img, m)
	require.NoError(t, err)
	require.Len(t, patches, 1)
	p := patches[0]
	defer p.Close()

	want := gocv.CountNonZero(p.Mask)
	for _, angle := range []float64{0, 17, 45, 90, 133.5, 270, 359} {
		rot, ok := p.Rotate(angle)
		require.True(t, ok)
		assert.InEpsilon(t, want, rot.Pixels, 0.04, "angle %v", angle)
		assert.InDelta(t, 51, rot.Mask.Cols(), 2, "angle %v", angle)
		rot.Close()
	}
}

func TestRotateKeepsElongatedSeedOnCanvas(t *testing.T) {
	img := grey(200, 200)
	defer img.Close()
	m := emptyMask(200, 200)
	defer m.Close()
	gocv.Rectangle(&m, image.Rect(20, 90, 180, 110), white, -1)

	patches, err := ExtractPatches(img, m)
	require.NoError(t, err)
	require.Len(t, patches, 1)
	p := patches[0]
	defer p.Close()

	rot, ok := p.Rotate(90)
	require.True(t, ok)
	defer rot.Close()

	assert.InDelta(t, 160, rot.Mask.Rows(), 2)
	assert.InDelta(t, 20, rot.Mask.Cols(), 2)
	assert.InEpsilon(t, gocv.CountNonZero(p.Mask), rot.Pixels, 0.02)
}

func TestCentroidOfEmptyRegionFallsBackToBoxCenter(t *testing.T) {
	m := emptyMask(40, 40)
	defer m.Close()

	c, degenerate := centroidOf(m, image.Rect(10, 20, 30, 30))
	assert.True(t, degenerate)
	assert.Equal(t, 20, c.X)
	assert.Equal(t, 25, c.Y)

	gocv.Rectangle(&m, image.Rect(10, 10, 21, 21), white, -1)
	c, degenerate = centroidOf(m, image.Rect(10, 10, 21, 21))
	assert.False(t, degenerate)
	assert.Equal(t, 15, c.X)
	assert.Equal(t, 15, c.Y)
}
