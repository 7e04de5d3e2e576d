package stacker

import (
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

// ImageMeta is whatever we could get out of the file's EXIF block. All
// of it is optional.
type ImageMeta struct {
	Orientation     int       // EXIF orientation, 1 == upright; 0 if unknown
	Taken           time.Time // Zero if unknown
	SubjectDistance float64   // Meters; 0 if unknown
}

// ContrastKey identifies the parameters a ContrastMap was built with.
type ContrastKey struct {
	SigmaA     float64 // Already scaled to this image's width
	SigmaB     float64
	PerChannel bool
	Levels     int // DoG bands, each at twice the sigmas of the last; 0 means 1
}

func (k ContrastKey) NumLevels() int {
	if k.Levels < 1 {
		return 1
	}
	return k.Levels
}

// AlphaKey identifies a normalized-contrast alpha layer.
type AlphaKey struct {
	ContrastKey
	Threshold float64
}

type imageCache struct {
	contrast map[ContrastKey]*ContrastMap
	alpha    map[AlphaKey]*image.NRGBA
}

// A StackImage is one frame of the focus stack: the decoded pixels,
// plus lazily computed contrast data.
type StackImage struct {
	Name         string // Sort key
	LoadFilename string
	Meta         ImageMeta

	*image.RGBA // Origin always at (0,0)

	cache *imageCache
}

// NewStackImage converts img to RGBA, with its origin moved to (0,0).
func NewStackImage(name string, img image.Image) StackImage {
	return StackImage{
		Name:  name,
		RGBA:  ToRGBA(img),
		cache: &imageCache{},
	}
}

func (si StackImage) String() string {
	str := fmt.Sprintf("%s: %dx%d", si.Name, si.Dx(), si.Dy())
	if !si.Meta.Taken.IsZero() {
		str += fmt.Sprintf(", taken %s", si.Meta.Taken.Format(time.RFC3339))
	}
	if si.Meta.SubjectDistance > 0 {
		str += fmt.Sprintf(", subject at %.2fm", si.Meta.SubjectDistance)
	}
	if si.cache != nil {
		str += fmt.Sprintf(", %d contrast maps cached", len(si.cache.contrast))
	}
	return str
}

func (si StackImage) Filename() string { return filepath.Base(si.LoadFilename) }
func (si StackImage) Dx() int          { return si.Bounds().Dx() }
func (si StackImage) Dy() int          { return si.Bounds().Dy() }

// InvalidateContrast drops every cached contrast map and alpha layer.
func (si *StackImage) InvalidateContrast() {
	si.cache = &imageCache{}
}

func (si *StackImage) cachedContrast(k ContrastKey) *ContrastMap {
	if si.cache == nil || si.cache.contrast == nil {
		return nil
	}
	return si.cache.contrast[k]
}

func (si *StackImage) storeContrast(k ContrastKey, cm *ContrastMap) {
	if si.cache == nil {
		si.cache = &imageCache{}
	}
	if si.cache.contrast == nil {
		si.cache.contrast = map[ContrastKey]*ContrastMap{}
	}
	si.cache.contrast[k] = cm
}

func (si *StackImage) cachedAlpha(k AlphaKey) *image.NRGBA {
	if si.cache == nil || si.cache.alpha == nil {
		return nil
	}
	return si.cache.alpha[k]
}

func (si *StackImage) storeAlpha(k AlphaKey, img *image.NRGBA) {
	if si.cache == nil {
		si.cache = &imageCache{}
	}
	if si.cache.alpha == nil {
		si.cache.alpha = map[AlphaKey]*image.NRGBA{}
	}
	si.cache.alpha[k] = img
}

// An ImageSet is the ordered stack. All members share the same
// dimensions.
type ImageSet []StackImage

func (is ImageSet) String() string {
	str := "ImageSet[\n"
	for i, si := range is {
		str += fmt.Sprintf("  %2d %s\n", i, si)
	}
	return str + "]\n"
}

// Bounds is the common bounds of the set; empty for an empty set.
func (is ImageSet) Bounds() image.Rectangle {
	if len(is) == 0 {
		return image.Rectangle{}
	}
	return is[0].Bounds()
}

// Add appends si, rejecting it if it is empty or its size doesn't
// match the set.
func (is *ImageSet) Add(si StackImage, invert bool) error {
	if si.RGBA == nil || si.Bounds().Empty() {
		return fmt.Errorf("image '%s' has no pixels: %w", si.Name, ErrInvalidDimensions)
	}
	if len(*is) > 0 && si.Bounds().Size() != is.Bounds().Size() {
		return fmt.Errorf("image '%s' is %v, stack is %v: %w",
			si.Name, si.Bounds().Size(), is.Bounds().Size(), ErrInvalidDimensions)
	}
	*is = append(*is, si)
	is.Sort(invert)
	return nil
}

// Remove drops the image with the given name, and reports whether it was there.
func (is *ImageSet) Remove(name string) bool {
	for i := range *is {
		if (*is)[i].Name == name {
			*is = append((*is)[:i], (*is)[i+1:]...)
			return true
		}
	}
	return false
}

// Sort orders by name, ascending unless invert is set.
func (is ImageSet) Sort(invert bool) {
	sort.SliceStable(is, func(i, j int) bool {
		if invert {
			return strings.Compare(is[i].Name, is[j].Name) > 0
		}
		return strings.Compare(is[i].Name, is[j].Name) < 0
	})
}

func (is ImageSet) InvalidateContrast() {
	for i := range is {
		is[i].InvalidateContrast()
	}
}

// ToRGBA returns img as an *image.RGBA with its origin at (0,0),
// copying only if it has to.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
