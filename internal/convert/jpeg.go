package convert

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// ErrEncodeFailed reports an image that could not be JPEG-encoded.
var ErrEncodeFailed = errors.New("frame encode failed")

// EncodeJPEG writes img to w as a baseline JPEG. Quality uses the
// image/jpeg 1..100 scale.
func EncodeJPEG(w io.Writer, img *image.RGBA, quality int) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("%w: nil or empty image", ErrInvalidInput)
	}
	if quality < 1 || quality > 100 {
		return fmt.Errorf("%w: quality %d outside 1..100", ErrInvalidInput, quality)
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return nil
}
