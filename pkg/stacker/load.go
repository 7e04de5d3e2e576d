package stacker

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gohugoio/gift"
	"github.com/rwcarlsen/goexif/exif"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type decodeFunc func(io.Reader) (image.Image, error)

var decoders = map[string]decodeFunc{
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".gif":  gif.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".webp": webp.Decode,
	".bmp":  bmp.Decode,
}

// Formats that may carry an EXIF block.
var exifExts = map[string]bool{".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true}

// LoadFilesAndDirs loads every image into the stack, recursing into
// directories. A .yaml file replaces the config; a settings file is
// merged into the current settings.
func (p *Pipeline) LoadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %w", arg, err)

		case item.IsDir():
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %w", arg, err)
			}
			for _, content := range contents {
				if err := p.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return err
				}
			}

		default:
			if err := p.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %w", arg, err)
			}
		}
	}

	return nil
}

func (p *Pipeline) loadFile(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case decoders[ext] != nil:
		si, err := LoadStackImage(filename)
		if err != nil {
			return err
		}
		log.Debugf("loaded %s", si)
		return p.AddImage(si)

	case ext == ".yaml":
		cfg, err := loadConfig(filename)
		if err != nil {
			return fmt.Errorf("loading %s as config YAML failed: %w", filename, err)
		}
		p.mu.Lock()
		p.Config = cfg
		p.mu.Unlock()
		log.Printf("Loaded base configuration from %s\n", filename)

	case ext == ".json" || ext == filepath.Ext(DefaultSettingsFilename):
		p.mu.Lock()
		err := p.Config.Settings.Load(filename)
		p.mu.Unlock()
		if err != nil {
			return err
		}
		log.Printf("Loaded settings from %s\n", filename)

	default:
		log.Debugf("ignoring %s", filename)
	}

	return nil
}

func loadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %w", filename, err)
	}

	return newConfigFromYaml(contents)
}

// LoadStackImage decodes an image file, picking up whatever EXIF
// metadata it has, and rotating it upright if the EXIF says to.
func LoadStackImage(filename string) (StackImage, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	decode := decoders[ext]
	if decode == nil {
		return StackImage{}, fmt.Errorf("'%s': no decoder for '%s'", filename, ext)
	}

	meta := ImageMeta{}
	if exifExts[ext] {
		if m, err := loadExif(filename); err != nil {
			log.Debugf("no EXIF in '%s': %v", filename, err)
		} else {
			meta = m
		}
	}

	reader, err := os.Open(filename)
	if err != nil {
		return StackImage{}, fmt.Errorf("open+r img '%s': %w", filename, err)
	}
	defer reader.Close()

	img, err := decode(reader)
	if err != nil {
		return StackImage{}, fmt.Errorf("decoding '%s': %w", filename, err)
	}

	si := NewStackImage(filepath.Base(filename), Orient(img, meta.Orientation))
	si.LoadFilename = filename
	si.Meta = meta
	return si, nil
}

func loadExif(filename string) (ImageMeta, error) {
	m := ImageMeta{}

	reader, err := os.Open(filename)
	if err != nil {
		return m, fmt.Errorf("open+r exif '%s': %w", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return m, fmt.Errorf("exif parsing '%s': %w", filename, err)
	}

	if tag, err := ex.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			m.Orientation = v
		}
	}
	if t, err := ex.DateTime(); err == nil {
		m.Taken = t
	}
	if tag, err := ex.Get(exif.SubjectDistance); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			m.SubjectDistance = float64(num) / float64(denom)
		}
	}

	return m, nil
}

// Orient applies an EXIF orientation, so that the image is upright.
// Only the pure rotations (3, 6, 8) are handled; mirrored orientations
// are left alone.
func Orient(img image.Image, orientation int) image.Image {
	var g *gift.GIFT
	switch orientation {
	case 3:
		g = gift.New(gift.Rotate180())
	case 6:
		g = gift.New(gift.Rotate270())
	case 8:
		g = gift.New(gift.Rotate90())
	default:
		return img
	}

	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	if err := g.Draw(dst, img); err != nil {
		log.Warnf("orientation %d: %v", orientation, err)
		return img
	}
	return dst
}
