package emath

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// A FloatGrid is a grid of floats, with some operations. Used for
// grayscale planes, contrast maps and depth fields.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (fg *FloatGrid) NewFromThis() FloatGrid    { return NewFloatGrid(fg.Dx(), fg.Dy()) }
func (fg *FloatGrid) Set(x, y int, v float64)   { fg.values[fg.stride*y+x] = v }
func (fg *FloatGrid) Get(x, y int) float64      { return fg.values[fg.stride*y+x] }
func (fg *FloatGrid) Dx() int                   { return fg.stride }
func (fg *FloatGrid) Values() []float64         { return fg.values }
func (fg *FloatGrid) SameSize(o FloatGrid) bool { return fg.Dx() == o.Dx() && fg.Dy() == o.Dy() }

func (fg *FloatGrid) Dy() int {
	if fg.stride == 0 {
		return 0
	}
	return len(fg.values) / fg.stride
}

func (fg *FloatGrid) Copy() *FloatGrid {
	g2 := FloatGrid{stride: fg.stride, values: make([]float64, len(fg.values))}
	copy(g2.values, fg.values)
	return &g2
}

// getClamped reads a value, extending the edge values outwards for
// coordinates that fall off the grid.
func (fg *FloatGrid) getClamped(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= fg.Dx() {
		x = fg.Dx() - 1
	}
	if y < 0 {
		y = 0
	} else if y >= fg.Dy() {
		y = fg.Dy() - 1
	}
	return fg.Get(x, y)
}

// GaussianKernel returns a normalized 1D kernel for the given sigma,
// truncated at 3 sigma. A sigma <= 0 gives the identity kernel [1].
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(math.Ceil(3 * sigma))
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+radius] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianBlur is a separable blur; X pass into T, then Y pass out
// of T. Edge samples are clamped, so there is no dark fringe.
func (fg FloatGrid) GaussianBlur(sigma float64) FloatGrid {
	if sigma <= 0 {
		return *fg.Copy()
	}

	width := fg.Dx()
	height := fg.Dy()
	k := GaussianKernel(sigma)
	r := len(k) / 2

	T := fg.NewFromThis()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := 0.0
			for i, w := range k {
				t += w * fg.getClamped(x+i-r, y)
			}
			T.Set(x, y, t)
		}
	}

	g2 := fg.NewFromThis()
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			t := 0.0
			for i, w := range k {
				t += w * T.getClamped(x, y+i-r)
			}
			g2.Set(x, y, t)
		}
	}

	return g2
}

// Round snaps every value to the nearest integer, in place.
func (fg *FloatGrid) Round() {
	for i := range fg.values {
		fg.values[i] = math.Round(fg.values[i])
	}
}

// AbsDiff returns |a-b| per cell; the grids must be the same size.
func AbsDiff(a, b FloatGrid) (FloatGrid, error) {
	if !a.SameSize(b) {
		return FloatGrid{}, fmt.Errorf("absdiff %dx%d vs %dx%d", a.Dx(), a.Dy(), b.Dx(), b.Dy())
	}
	out := a.NewFromThis()
	for i := range a.values {
		out.values[i] = math.Abs(a.values[i] - b.values[i])
	}
	return out, nil
}

// KeepMax raises each cell to the matching cell of o, if that is larger.
func (fg *FloatGrid) KeepMax(o FloatGrid) error {
	if !fg.SameSize(o) {
		return fmt.Errorf("keepmax %dx%d vs %dx%d", fg.Dx(), fg.Dy(), o.Dx(), o.Dy())
	}
	for i := range fg.values {
		fg.values[i] = math.Max(fg.values[i], o.values[i])
	}
	return nil
}

// MinMax returns the smallest and largest values; (0,0) for an empty grid.
func (fg *FloatGrid) MinMax() (float64, float64) {
	if len(fg.values) == 0 {
		return 0, 0
	}
	return floats.Min(fg.values), floats.Max(fg.values)
}

func (fg *FloatGrid) Stats() string {
	if len(fg.values) == 0 {
		return "fg[empty]"
	}
	min, max := fg.MinMax()
	mean, std := stat.MeanStdDev(fg.values, nil)
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}, mean %f, sd %f]", fg.Dx(), fg.Dy(), min, max, mean, std)
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision. A flat grid renders black.
func (fg *FloatGrid) ToImg(title, filename string) error {
	min, max := fg.MinMax()

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{fg.Dx(), fg.Dy()}})
	for x := 0; x < fg.Dx(); x++ {
		for y := 0; y < fg.Dy(); y++ {
			gray := 0.0
			if max > min {
				gray = GammaExpand_F64((fg.Get(x, y) - min) / (max - min))
			}
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	if face, err := titleFace(float64(fg.Dx()) / 40); err == nil {
		dc.SetFontFace(face)
	}
	dc.SetRGB(1, 0.2, 0.2)
	dc.DrawString(title, 10, 10+dc.FontHeight())
	return dc.SavePNG(filename)
}

var titleFont *truetype.Font

func titleFace(points float64) (font.Face, error) {
	if points < 12 {
		points = 12
	}
	if titleFont == nil {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("parse goregular: %w", err)
		}
		titleFont = f
	}
	return truetype.NewFace(titleFont, &truetype.Options{Size: points}), nil
}
