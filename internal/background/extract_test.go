package background

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// uniformWithBlob returns a grey image with a dark square and a mask that
// covers the square with some margin.
func uniformWithBlob() (gocv.Mat, gocv.Mat) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(180, 180, 180, 0), 80, 80, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&img, image.Rect(30, 30, 50, 50), color.RGBA{R: 20, G: 20, B: 20, A: 255}, -1)

	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 80, 80, gocv.MatTypeCV8UC1)
	gocv.Rectangle(&m, image.Rect(25, 25, 55, 55), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	return img, m
}

func TestExtractRemovesSeed(t *testing.T) {
	for _, method := range []Method{Telea, NavierStokes} {
		t.Run(method.String(), func(t *testing.T) {
			img, m := uniformWithBlob()
			defer img.Close()
			defer m.Close()

			bg, err := Extract(img, m, 30, method)
			require.NoError(t, err)
			defer bg.Close()

			assert.Equal(t, img.Rows(), bg.Rows())
			assert.Equal(t, img.Cols(), bg.Cols())

			v := bg.GetVecbAt(40, 40)
			assert.InDelta(t, 180, int(v[0]), 10)
		})
	}
}

type recordingInpainter struct {
	radius float64
}

func (r *recordingInpainter) Inpaint(img, mask gocv.Mat, radius float64) (gocv.Mat, error) {
	r.radius = radius
	return img.Clone(), nil
}

func TestExtractUsesInjectedInpainter(t *testing.T) {
	img, m := uniformWithBlob()
	defer img.Close()
	defer m.Close()

	rec := &recordingInpainter{}
	bg, err := Extract(img, m, 12.5, rec)
	require.NoError(t, err)
	defer bg.Close()

	assert.Equal(t, 12.5, rec.radius)
}

func TestExtractRejectsMismatchedMask(t *testing.T) {
	img, _ := uniformWithBlob()
	defer img.Close()
	small := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC1)
	defer small.Close()

	_, err := Extract(img, small, 30, Telea)
	assert.Error(t, err)

	_, err = Extract(img, img, 30, Telea)
	assert.Error(t, err)
}

func TestParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	in, err := p.Inpainter()
	require.NoError(t, err)
	assert.Equal(t, Telea, in)

	p.Method = "bogus"
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.Radius = 0
	assert.Error(t, p.Validate())
}
