package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/abworrall/stereo-stacker/pkg/stacker"
)

var (
	fVerbosity      int
	fOutputDir      string
	fSelector       string
	fBlurrer        string
	fSettingsFile   string
	fSaveSettings   string
	fPreset         string
	fSharpness      float64
	fFeatureScale   float64
	fThreshold      float64
	fDepthScale     float64
	fDepthSmooth    float64
	fDepthOffset    float64
	fDepthGammaExp  float64
	fAlphaStack     bool
	fInvert         bool
	fSwapEyes       bool
	fNormalizeDepth bool
	fDumpContrast   bool
	fAnimate        bool
	fSpeed          float64
	fStrength       float64
	fMaxWidth       int
	fDepthMap       string
	fPremade        string
	fDebugPixels    string
	fContrastLevels int
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fOutputDir, "o", ".", "directory to write the output images into")

	flag.StringVar(&fSelector, "selector", "luma", "how to pick the sharpest layer: luma, rgb")
	flag.StringVar(&fBlurrer, "blurrer", "gaussian", "how to smooth the depth map: gaussian, bild, box")
	flag.StringVar(&fSettingsFile, "settings", "", "settings file to load (JSON)")
	flag.StringVar(&fSaveSettings, "save", "", "save the final settings to this file")
	flag.StringVar(&fPreset, "preset", "", "anaglyph preset: "+strings.Join(stacker.ListAnaglyphPresets(), ", "))

	flag.Float64Var(&fSharpness, "sharpness", 100, "feature sharpness, 1-100")
	flag.Float64Var(&fFeatureScale, "featurescale", 40, "feature scale, 1-100")
	flag.Float64Var(&fThreshold, "threshold", 32, "contrast at which an alpha layer becomes opaque")
	flag.Float64Var(&fDepthScale, "depthscale", 45, "stereo separation, 0-200")
	flag.Float64Var(&fDepthSmooth, "depthsmooth", 2, "depth map smoothing, 0-100")
	flag.Float64Var(&fDepthOffset, "depthoffset", -50, "zero parallax plane, -100 (far) to 0 (near)")
	flag.Float64Var(&fDepthGammaExp, "depthgamma", 0, "depth gamma, as a power of two, -6 to 6")

	flag.BoolVar(&fAlphaStack, "alphastack", false, "stack alpha layers instead of picking pixels")
	flag.BoolVar(&fInvert, "invert", false, "reverse the order of the stack")
	flag.BoolVar(&fSwapEyes, "swapeyes", false, "swap the left and right eye views")
	flag.BoolVar(&fNormalizeDepth, "normalizedepth", false, "stretch the computed depth map to full range")
	flag.BoolVar(&fDumpContrast, "dumpcontrast", false, "write out each image's contrast map")

	flag.BoolVar(&fAnimate, "animate", false, "render a parallax animation")
	flag.Float64Var(&fSpeed, "speed", 100, "animation speed, 25-200")
	flag.Float64Var(&fStrength, "strength", 25, "animation strength, 0-100")
	flag.IntVar(&fMaxWidth, "maxwidth", 0, "downscale animation frames wider than this")

	flag.StringVar(&fDepthMap, "depth", "", "use this depth map, with -premade, instead of stacking")
	flag.StringVar(&fPremade, "premade", "", "a composite image to pair with -depth")
	flag.StringVar(&fDebugPixels, "debugpixels", "", "pixels to dump, e.g. 10,20;300,40")
	flag.IntVar(&fContrastLevels, "levels", 1, "number of DoG bands in each contrast map (1 is finest only)")
	flag.Parse()

	log.Printf("stereo-stacker starting\n")
}

// applyFlags copies over only the flags that were actually given, so
// that a config or settings file among the inputs isn't clobbered by
// flag defaults.
func applyFlags(cfg *stacker.Config) error {
	var err error
	s := &cfg.Settings

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Verbosity = fVerbosity
		case "o":
			cfg.OutputDir = fOutputDir
		case "selector":
			cfg.Selector = fSelector
		case "blurrer":
			cfg.Blurrer = fBlurrer
		case "normalizedepth":
			cfg.NormalizeComputedDepth = fNormalizeDepth
		case "dumpcontrast":
			cfg.DumpContrastMaps = fDumpContrast
		case "levels":
			cfg.ContrastLevels = fContrastLevels
		case "debugpixels":
			pts, e := parseDebugPixels(fDebugPixels)
			if e != nil {
				err = e
			}
			cfg.DebugPixels = pts
		case "maxwidth":
			cfg.AnimationMaxWidth = fMaxWidth
		case "swapeyes":
			if fSwapEyes {
				cfg.LeftEyeSign *= -1
			}

		case "sharpness":
			s.SetSharpness(fSharpness)
		case "featurescale":
			s.SetFeatureScale(fFeatureScale)
		case "threshold":
			s.Stacking.AlphaThreshold = fThreshold
		case "alphastack":
			s.Stacking.UseDepthMap = !fAlphaStack
		case "invert":
			s.Stacking.InvertImages = fInvert
		case "depthscale":
			s.SetDepthScale(fDepthScale)
		case "depthsmooth":
			s.SetDepthSmooth(fDepthSmooth)
		case "depthoffset":
			s.SetDepthOffsetPercent(fDepthOffset)
		case "depthgamma":
			s.SetDepthGammaExponent(fDepthGammaExp)
		case "speed":
			s.SetAnimationSpeedPercent(fSpeed)
		case "strength":
			s.SetAnimationStrength(fStrength)
		case "preset":
			if e := s.SetAnaglyphPreset(fPreset); e != nil {
				err = e
			}
		}
	})

	return err
}

func parseDebugPixels(str string) ([]image.Point, error) {
	pts := []image.Point{}
	for _, pair := range strings.Split(str, ";") {
		if pair == "" {
			continue
		}
		pt := image.Point{}
		if _, err := fmt.Sscanf(pair, "%d,%d", &pt.X, &pt.Y); err != nil {
			return nil, fmt.Errorf("debug pixel '%s': %w", pair, err)
		}
		pts = append(pts, pt)
	}
	return pts, nil
}

func loadPremade(p *stacker.Pipeline) error {
	if fDepthMap == "" && fPremade == "" {
		return nil
	}
	if fDepthMap == "" || fPremade == "" {
		return fmt.Errorf("-depth and -premade go together")
	}

	composite, err := stacker.LoadStackImage(fPremade)
	if err != nil {
		return err
	}
	if err := p.SetPremadeComposite(composite.RGBA); err != nil {
		return err
	}

	depth, err := stacker.LoadStackImage(fDepthMap)
	if err != nil {
		return err
	}
	return p.SetExternalDepthMap(depth.RGBA)
}

func main() {
	p := stacker.NewPipeline(stacker.NewConfig())

	if fSettingsFile != "" {
		if err := p.Config.Settings.Load(fSettingsFile); err != nil {
			log.Fatal(err)
		}
	}
	if err := p.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	cfg := p.Config
	if err := applyFlags(&cfg); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	cfg.ConfigureLogging()

	p.Config = cfg
	p.Images.Sort(cfg.Settings.Stacking.InvertImages)

	if err := loadPremade(p); err != nil {
		log.Fatal(err)
	}

	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", p.Config.AsYaml())
		log.Printf("Anaglyph: %s", p.Config.Settings.AnaglyphPreset())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progress := func(prog stacker.Progress) {
		if prog.Percent%25 == 0 {
			log.Printf("%s", prog)
		}
	}
	if err := p.Run(ctx, progress); err != nil {
		log.Fatalf("stacking failed: %v", err)
	}

	if fAnimate {
		frames := p.RenderAnimation()
		log.Printf("rendered %d animation frames", len(frames))
	}

	if err := p.Publish(p.Config.OutputDir); err != nil {
		log.Fatal(err)
	}

	if fSaveSettings != "" {
		if err := p.Config.Settings.Save(fSaveSettings); err != nil {
			log.Fatal(err)
		}
		log.Printf("settings saved to %s", fSaveSettings)
	}
}
