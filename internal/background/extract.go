// Package background reconstructs a seed-free background image by inpainting
// the regions covered by the dilated seed mask.
package background

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Inpainter fills the non-zero mask region of img from its surroundings.
type Inpainter interface {
	Inpaint(img, mask gocv.Mat, radius float64) (gocv.Mat, error)
}

// Method selects an OpenCV inpainting algorithm.
type Method int

const (
	// Telea is the fast-marching method.
	Telea Method = iota
	// NavierStokes is the fluid-dynamics based method.
	NavierStokes
)

func (m Method) String() string {
	switch m {
	case Telea:
		return "telea"
	case NavierStokes:
		return "ns"
	default:
		return "unknown"
	}
}

// ParseMethod converts a method name as written in configuration.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "telea", "":
		return Telea, nil
	case "ns", "navier-stokes":
		return NavierStokes, nil
	default:
		return Telea, fmt.Errorf("unknown inpainting method %q", name)
	}
}

// Inpaint implements Inpainter with OpenCV.
func (m Method) Inpaint(img, mask gocv.Mat, radius float64) (gocv.Mat, error) {
	var flag gocv.InpaintMethods
	switch m {
	case Telea:
		flag = gocv.Telea
	case NavierStokes:
		flag = gocv.NS
	default:
		return gocv.NewMat(), fmt.Errorf("unknown inpainting method %d", int(m))
	}

	dst := gocv.NewMat()
	gocv.Inpaint(img, mask, &dst, float32(radius), flag)
	if dst.Empty() {
		dst.Close()
		return gocv.NewMat(), fmt.Errorf("inpainting produced an empty image")
	}
	return dst, nil
}

// Params controls background reconstruction.
type Params struct {
	Radius float64 `yaml:"radius" json:"radius"`
	Method string  `yaml:"method" json:"method"`
}

// DefaultParams returns a 30 px Telea inpainting.
func DefaultParams() Params {
	return Params{Radius: 30, Method: Telea.String()}
}

// Validate checks the radius and method name.
func (p Params) Validate() error {
	if p.Radius <= 0 {
		return fmt.Errorf("inpainting radius must be positive, got %g", p.Radius)
	}
	_, err := ParseMethod(p.Method)
	return err
}

// Inpainter returns the configured inpainting method.
func (p Params) Inpainter() (Inpainter, error) {
	return ParseMethod(p.Method)
}

// Extract returns img with the dilated seed regions reconstructed from the
// surrounding background. The caller owns the returned Mat.
func Extract(img, dilated gocv.Mat, radius float64, inpainter Inpainter) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}
	if dilated.Rows() != img.Rows() || dilated.Cols() != img.Cols() {
		return gocv.NewMat(), fmt.Errorf("mask size %dx%d does not match image size %dx%d",
			dilated.Cols(), dilated.Rows(), img.Cols(), img.Rows())
	}
	if dilated.Channels() != 1 {
		return gocv.NewMat(), fmt.Errorf("mask must be single channel, got %d channels", dilated.Channels())
	}
	if inpainter == nil {
		inpainter = Telea
	}

	bg, err := inpainter.Inpaint(img, dilated, radius)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to inpaint background: %w", err)
	}
	return bg, nil
}
