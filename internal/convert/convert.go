// Package convert turns packed YUYV 4:2:2 capture buffers into RGBA
// images and encodes them as baseline JPEG.
//
// The conversion uses integer-only BT.601 fixed-point arithmetic, so
// identical input always produces identical output on every platform.
package convert

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidInput reports a source buffer or geometry that cannot
// describe a complete YUYV frame.
var ErrInvalidInput = errors.New("invalid frame input")

// YUYVToRGBA converts a packed YUYV buffer into a freshly allocated
// RGBA image. Width must be even since two pixels share one chroma pair.
func YUYVToRGBA(src []byte, width, height int) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := YUYVToRGBAInto(dst, src, width, height); err != nil {
		return nil, err
	}
	return dst, nil
}

// YUYVToRGBAInto converts into an existing RGBA image so the caller can
// reuse one allocation across frames. The destination must match the
// source dimensions exactly.
func YUYVToRGBAInto(dst *image.RGBA, src []byte, width, height int) error {
	if width <= 0 || height <= 0 || width%2 != 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, width, height)
	}
	expected := width * height * 2
	if len(src) != expected {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidInput, len(src), expected)
	}
	if dst == nil || dst.Bounds().Dx() != width || dst.Bounds().Dy() != height {
		return fmt.Errorf("%w: destination does not match %dx%d", ErrInvalidInput, width, height)
	}

	si := 0
	for y := 0; y < height; y++ {
		di := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		for x := 0; x < width; x += 2 {
			// One group of four bytes carries two pixels: Y0 U Y1 V
			y0 := int(src[si])
			u := int(src[si+1])
			y1 := int(src[si+2])
			v := int(src[si+3])
			si += 4

			d := u - 128
			e := v - 128

			writePixel(dst.Pix, di, y0, d, e)
			writePixel(dst.Pix, di+4, y1, d, e)
			di += 8
		}
	}
	return nil
}

// writePixel expands one luma sample and a shared chroma pair into RGBA
// bytes at off, per the BT.601 fixed-point formulas.
func writePixel(pix []uint8, off, luma, d, e int) {
	c := luma - 16
	pix[off] = clip((298*c + 409*e + 128) >> 8)
	pix[off+1] = clip((298*c - 100*d - 208*e + 128) >> 8)
	pix[off+2] = clip((298*c + 516*d + 128) >> 8)
	pix[off+3] = 0xFF
}

func clip(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
