package stacker

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/gohugoio/gift"
	log "github.com/sirupsen/logrus"
)

// A Blurrer blurs an RGBA raster by a radius in pixels (already scaled
// to the image width), returning a new image of the same size. A radius
// of zero returns an unmodified copy. Edge pixels are extended rather
// than wrapped or faded to black.
type Blurrer func(src *image.RGBA, radius float64) *image.RGBA

func copyRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// BlurByGift is a true gaussian, with sigma == radius; this is what a
// CSS blur(radius) does.
func BlurByGift(src *image.RGBA, radius float64) *image.RGBA {
	if radius <= 0 {
		return copyRGBA(src)
	}
	g := gift.New(gift.GaussianBlur(float32(radius)))
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	if err := g.Draw(dst, src); err != nil {
		log.Warnf("gift blur (r=%.2f) failed, leaving image unblurred: %v", radius, err)
		return copyRGBA(src)
	}
	return dst
}

// BlurByBild uses bild's gaussian, which has a tighter kernel for the
// same radius.
func BlurByBild(src *image.RGBA, radius float64) *image.RGBA {
	if radius <= 0 {
		return copyRGBA(src)
	}
	return blur.Gaussian(src, radius)
}

func BlurByBildBox(src *image.RGBA, radius float64) *image.RGBA {
	if radius <= 0 {
		return copyRGBA(src)
	}
	return blur.Box(src, radius)
}
