package stacker

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/abworrall/stereo-stacker/pkg/emath"
)

// NormalizedContrastAlpha turns a contrast map into an alpha mask over
// the source image: sharp areas are opaque, soft areas transparent.
// Contrast is first normalized against the map's max, then scaled so
// that anything at or over threshold is fully opaque. Pixels with
// contrast <= 1 (noise), and every pixel of a featureless map, get
// alpha 0.
func NormalizedContrastAlpha(src *image.RGBA, cm *ContrastMap, threshold float64) *image.NRGBA {
	if threshold <= 0 {
		threshold = 1
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := cm.At(x, y, 0)
			for k := 1; k < cm.NumChannels(); k++ {
				c = math.Max(c, cm.At(x, y, k))
			}

			a := uint8(0)
			if cm.Max > 0 && c > 1 {
				norm := math.Trunc(c * 255 / cm.Max)
				a = uint8(math.Min(255, math.Trunc(norm*255/threshold)))
			}

			s := src.RGBAAt(x, y)
			dst.SetNRGBA(x, y, color.NRGBA{s.R, s.G, s.B, a})
		}
	}
	return dst
}

// AlphaLayer returns the (cached) normalized contrast alpha layer.
func (si *StackImage) AlphaLayer(k AlphaKey) *image.NRGBA {
	if img := si.cachedAlpha(k); img != nil {
		return img
	}
	img := NormalizedContrastAlpha(si.RGBA, si.ContrastMap(k.ContrastKey), k.Threshold)
	si.storeAlpha(k, img)
	return img
}

// AlphaLayers returns one layer per image. Layer 0 is the opaque
// original, so the stack always has a solid base.
func AlphaLayers(images ImageSet, k AlphaKey) []image.Image {
	alphas := make([]*image.NRGBA, len(images))
	for i := 1; i < len(images); i++ {
		alphas[i] = images[i].AlphaLayer(k)
	}
	return alphaStack(images, alphas)
}

func alphaStack(images ImageSet, alphas []*image.NRGBA) []image.Image {
	layers := make([]image.Image, len(images))
	for i := range images {
		if i == 0 {
			layers[i] = images[i].RGBA
			continue
		}
		layers[i] = alphas[i]
	}
	return layers
}

// LayerShift is where layer i of n lands when the stack is viewed
// from a shift of dx pixels.
func LayerShift(dx, depthOffset float64, i, n int) int {
	if n == 0 {
		return 0
	}
	return int(dx * (float64(i)/float64(n) + depthOffset))
}

// DrawAlphaStack fills dst with opaque black, then composites each
// layer over it in stack order, shifted horizontally according to its
// position in the stack. dx is the total shift in pixels; 0 gives the
// plain alpha-blended composite.
func DrawAlphaStack(dst draw.Image, dx, depthOffset float64, layers []image.Image) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for i, layer := range layers {
		shift := image.Point{LayerShift(dx, depthOffset, i, len(layers)), 0}
		r := layer.Bounds().Add(shift).Intersect(dst.Bounds())
		if r.Empty() {
			continue
		}
		draw.Draw(dst, r, layer, r.Min.Sub(shift), draw.Over)
	}
}

// AlphaStackShift is the pixel shift for a view offset (an eye, or an
// animation frame) in alpha-stack mode.
func AlphaStackShift(offset float64, s AnaglyphSettings, width int) float64 {
	return offset * emath.ToStdSize(s.DepthScale, width)
}

// AlphaStackComposite renders the stack face-on. The output is the
// size of the base layer.
func AlphaStackComposite(layers []image.Image) *image.RGBA {
	if len(layers) == 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	b := layers[0].Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	DrawAlphaStack(dst, 0, 0, layers)
	return dst
}

// AlphaDepthLayer recolors an alpha layer as a flat depth value: gray
// level encodes the layer's position in the stack, alpha is kept.
func AlphaDepthLayer(alpha *image.NRGBA, i, n int, depthGamma float64) *image.NRGBA {
	t := 1.0
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	d := uint8(math.Trunc(emath.GammaCorrect(t, depthGamma, 1.0) * 255))

	b := alpha.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := alpha.NRGBAAt(x, y).A
			if i == 0 {
				a = 0xFF
			}
			dst.SetNRGBA(x, y, color.NRGBA{d, d, d, a})
		}
	}
	return dst
}
