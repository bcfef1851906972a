package linguatests

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
)

const (
	frameSize    = 100
	handRadius   = 20
	frameQuality = 90
)

// placeholderFrame is a payload that decodes to fewer bytes than any real image, as sent by the
// end-to-end flow; the recognition service must still answer it with HTTP 200.
const placeholderFrame = "dGVzdF9pbWFnZQ==" // "test_image"

// syntheticFrame returns a base64-encoded JPEG of a white disc on a black background, standing in
// for a camera frame with a hand in view.
func syntheticFrame() (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, frameSize, frameSize))
	center := frameSize / 2
	for y := 0; y < frameSize; y++ {
		for x := 0; x < frameSize; x++ {
			dx, dy := x-center, y-center
			c := color.RGBA{A: 255}
			if dx*dx+dy*dy <= handRadius*handRadius {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: frameQuality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
