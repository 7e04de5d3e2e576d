package stacker

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// WriteGIF writes a looping animated GIF. Each frame is dithered onto
// the Plan 9 palette.
func WriteGIF(frames []*image.RGBA, fps int, filename string) error {
	if len(frames) == 0 {
		return fmt.Errorf("'%s': no frames", filename)
	}
	delay := 100 / fps

	anim := gif.GIF{LoopCount: 0}
	for _, f := range frames {
		pal := image.NewPaletted(f.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, f.Bounds(), f, f.Bounds().Min)
		anim.Image = append(anim.Image, pal)
		anim.Delay = append(anim.Delay, delay)
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	}
	defer writer.Close()
	return gif.EncodeAll(writer, &anim)
}

// depthHDR presents a depth field as a float image, so the raw layer
// values can be inspected without any scaling or smoothing.
type depthHDR struct {
	FusionDepthField
}

// Implement image.Image
func (d depthHDR) ColorModel() color.Model { return hdrcolor.RGBModel }
func (d depthHDR) Bounds() image.Rectangle { return image.Rect(0, 0, d.Depth.Dx(), d.Depth.Dy()) }
func (d depthHDR) At(x, y int) color.Color { return d.HDRAt(x, y) }

// Implement hdr.Image
func (d depthHDR) Size() int { return d.Depth.Dx() * d.Depth.Dy() }
func (d depthHDR) HDRAt(x, y int) hdrcolor.Color {
	v := d.Depth.Get(x, y)
	return hdrcolor.RGB{R: v, G: v, B: v}
}

// WriteDepthHDR outputs the depth field as a Radiance HDR file.
func WriteDepthHDR(f FusionDepthField, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("WriteDepthHDR, open+w '%s': %w", filename, err)
	} else {
		defer writer.Close()
		err := rgbe.Encode(writer, depthHDR{f})
		if err != nil {
			log.Printf("WriteDepthHDR, encoding RGBE file: %v\n", err)
		}
		return err
	}
}

var (
	nearColor = colorful.Color{R: 0.9, G: 0.1, B: 0.1}
	farColor  = colorful.Color{R: 0.1, G: 0.2, B: 0.9}
)

// DepthFalseColor maps a gray depth map onto a red (near) to blue (far)
// gradient, which makes small depth steps easier to see.
func DepthFalseColor(depth *image.RGBA) *image.RGBA {
	b := depth.Bounds()
	out := image.NewRGBA(b)

	var lut [256]color.RGBA
	for i := range lut {
		r, g, bl := nearColor.BlendHcl(farColor, float64(i)/255.0).Clamped().RGB255()
		lut[i] = color.RGBA{r, g, bl, 0xFF}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetRGBA(x, y, lut[depth.RGBAAt(x, y).R])
		}
	}
	return out
}

type namedImage struct {
	name string
	img  *image.RGBA
}

// Publish writes every result the pipeline has into dir.
func (p *Pipeline) Publish(dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("publish mkdir '%s': %w", dir, err)
	}

	pngs := []namedImage{
		{"stacked.png", p.composite},
		{"depth.png", p.depth},
		{"stereo_left.png", p.left},
		{"stereo_right.png", p.right},
		{"anaglyph.png", p.anaglyph},
	}
	if p.left != nil && p.right != nil {
		pngs = append(pngs, namedImage{"stereo_combined.png", SideBySide(p.left, p.right)})
	}
	if p.depth != nil {
		pngs = append(pngs, namedImage{"depth-color.png", DepthFalseColor(p.depth)})
	}

	for _, out := range pngs {
		if out.img == nil {
			continue
		}
		filename := filepath.Join(dir, out.name)
		if err := WritePNG(out.img, filename); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		log.Printf("wrote %s", filename)
	}

	if p.field != nil {
		filename := filepath.Join(dir, "depth.hdr")
		if err := WriteDepthHDR(*p.field, filename); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		log.Printf("wrote %s", filename)
	}

	if len(p.frames) > 0 {
		filename := filepath.Join(dir, "animation.gif")
		if err := WriteGIF(p.frames, AnimationFPS, filename); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		log.Printf("wrote %s", filename)
	}

	return nil
}
