package stacker

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config holds the run options that aren't part of the saved
// settings file: which strategies to use, debugging knobs, and where
// the output goes.
type Config struct {
	Verbosity int

	Selector       string  // How to pick the sharpest layer: "luma" or "rgb"
	Blurrer        string  // RGBA blur used for depth smoothing: "gaussian", "bild", "box"
	FirstImageBias float64 // Added to the contrast score of the first image in the stack
	LastImageBias  float64 // Added to the contrast score of the last image in the stack
	ContrastLevels int     // How many DoG bands the contrast map combines; 1 is the finest only

	LeftEyeSign            float64 // -1 or +1; the right eye uses the opposite sign
	NormalizeComputedDepth bool    // Min-max stretch the computed depth map after smoothing

	AnimationMaxWidth int // Frames wider than this are downscaled; 0 means never
	OutputDir         string
	DumpContrastMaps  bool
	DebugPixels       []image.Point // Selections at these points are logged at Info level

	Settings Settings
}

func NewConfig() Config {
	return Config{
		Selector:       "luma",
		Blurrer:        "gaussian",
		ContrastLevels: 1,
		LeftEyeSign:    -1,
		OutputDir:      ".",
		Settings:       DefaultSettings(),
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// PerChannel is true when focus selection runs independently on R, G and B.
func (c Config) PerChannel() bool { return c.Selector == "rgb" }

// MaxContrastLevels caps ContrastLevels; the coarsest band blurs at
// 2^(levels-1) times the base sigmas.
const MaxContrastLevels = 6

func (c Config) NumContrastLevels() int {
	if c.ContrastLevels < 1 {
		return 1
	}
	return c.ContrastLevels
}

func (c Config) RightEyeSign() float64 { return -1 * c.LeftEyeSign }

func (c Config) GetSelector() SelectFunc {
	switch c.Selector {
	case "luma", "":
		return SelectByLuma
	case "rgb":
		return SelectPerChannel
	default:
		log.Fatalf("no Selector strategy named '%s'", c.Selector)
		return nil
	}
}

func (c Config) GetBlurrer() Blurrer {
	switch c.Blurrer {
	case "gaussian", "":
		return BlurByGift
	case "bild":
		return BlurByBild
	case "box":
		return BlurByBildBox
	default:
		log.Fatalf("no Blurrer strategy named '%s'", c.Blurrer)
		return nil
	}
}

// ConfigureLogging maps Verbosity onto a log level.
func (c Config) ConfigureLogging() {
	switch {
	case c.Verbosity >= 2:
		log.SetLevel(log.TraceLevel)
	case c.Verbosity == 1:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// Validate checks the strategy names, so a bad config is reported
// before any work is done rather than via log.Fatal midway through.
func (c Config) Validate() error {
	switch c.Selector {
	case "", "luma", "rgb":
	default:
		return fmt.Errorf("unknown selector '%s', want luma|rgb", c.Selector)
	}
	switch c.Blurrer {
	case "", "gaussian", "bild", "box":
	default:
		return fmt.Errorf("unknown blurrer '%s', want gaussian|bild|box", c.Blurrer)
	}
	if c.ContrastLevels > MaxContrastLevels {
		return fmt.Errorf("contrast levels %d, want at most %d", c.ContrastLevels, MaxContrastLevels)
	}
	if c.LeftEyeSign != -1 && c.LeftEyeSign != 1 {
		return fmt.Errorf("left eye sign must be -1 or +1, got %v", c.LeftEyeSign)
	}
	return nil
}
