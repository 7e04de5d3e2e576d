package stacker

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const (
	StageContrast = "contrast"
	StageStacking = "stacking"
	StageAlpha    = "alpha"
)

// Progress is reported after each step of a CompositeTask. Percent is
// non-decreasing within a stage.
type Progress struct {
	Stage   string
	Percent int
}

func (p Progress) String() string { return fmt.Sprintf("%s: %d%%", p.Stage, p.Percent) }

// A CompositeTask builds the focus-stacked composite and its depth
// field in small steps, so that a caller can report progress and
// cancel between them. Nothing is visible until the final step
// completes.
type CompositeTask struct {
	cfg      Config
	images   ImageSet
	key      ContrastKey
	selector SelectFunc
	stale    func() bool // True once the owning pipeline has moved on
	alpha    bool        // Build an alpha-layer stack, not a per-pixel selection

	maps     []*ContrastMap
	alphas   []*image.NRGBA
	nextImg  int
	nextCol  int
	nextLyr  int
	chunk    int
	out      *image.RGBA
	field    FusionDepthField
	finished bool
}

// NewCompositeTask sets up a task over images, which must be
// non-empty, non-zero in size, and share dimensions. stale may be nil.
//
// The task works on its own copy of the image list, and never touches
// the images' caches while it runs: whatever is already cached is
// picked up here, and StoreCaches hands back what the task computed.
// So the caller must hold whatever lock guards images for this call,
// but not for Step.
func NewCompositeTask(cfg Config, images ImageSet, stale func() bool) (*CompositeTask, error) {
	if len(images) == 0 {
		return nil, ErrEmptyStack
	}
	w, h := images[0].Dx(), images[0].Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("composite '%s' is %dx%d: %w", images[0].Name, w, h, ErrInvalidDimensions)
	}
	for _, si := range images[1:] {
		if si.Dx() != w || si.Dy() != h {
			return nil, fmt.Errorf("composite '%s' is %dx%d, want %dx%d: %w", si.Name, si.Dx(), si.Dy(), w, h, ErrInvalidDimensions)
		}
	}

	chunk := w / 100
	if chunk < 1 {
		chunk = 1
	}

	t := &CompositeTask{
		cfg:      cfg,
		images:   append(ImageSet(nil), images...),
		key:      images[0].ContrastKey(cfg),
		selector: cfg.GetSelector(),
		stale:    stale,
		alpha:    !cfg.Settings.Stacking.UseDepthMap,
		chunk:    chunk,
	}
	t.drop()
	for i := range t.images {
		t.maps[i] = t.images[i].cachedContrast(t.key)
		t.alphas[i] = t.images[i].cachedAlpha(t.alphaKey())
	}
	return t, nil
}

func (t *CompositeTask) cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return t.stale != nil && t.stale()
}

func (t *CompositeTask) alphaKey() AlphaKey {
	return AlphaKey{t.key, t.cfg.Settings.Stacking.AlphaThreshold}
}

// Step does the next unit of work: one image's contrast map, or one
// chunk of columns of the composite (one alpha layer, in alpha mode).
func (t *CompositeTask) Step(ctx context.Context) (Progress, bool, error) {
	if t.finished {
		return Progress{t.lastStage(), 100}, true, nil
	}
	if t.cancelled(ctx) {
		t.drop()
		return Progress{}, false, ErrCancelled
	}

	if t.nextImg < len(t.images) {
		i := t.nextImg
		prog := Progress{StageContrast, 100 * i / len(t.images)}
		if t.maps[i] == nil {
			t.maps[i] = BuildContrastMap(t.images[i].RGBA, t.key)
		}
		log.Debugf("%s: %s", t.images[i].Name, ContrastPercentiles(t.maps[i]))
		if t.cfg.DumpContrastMaps {
			t.dumpContrastMap(i)
		}
		t.nextImg++
		return prog, false, nil
	}

	if t.alpha {
		return t.stepAlpha()
	}

	w, h := t.images.Bounds().Dx(), t.images.Bounds().Dy()
	if t.out == nil {
		t.out = image.NewRGBA(image.Rect(0, 0, w, h))
		t.field = NewFusionDepthField(w, h)
	}

	x1 := t.nextCol
	x2 := x1 + t.chunk
	if x2 > w {
		x2 = w
	}
	t.stackColumns(x1, x2)
	t.nextCol = x2

	prog := Progress{StageStacking, 100 * x1 / w}
	if t.nextCol >= w {
		t.finished = true
		return prog, true, nil
	}
	return prog, false, nil
}

func (t *CompositeTask) lastStage() string {
	if t.alpha {
		return StageAlpha
	}
	return StageStacking
}

func (t *CompositeTask) stepAlpha() (Progress, bool, error) {
	if t.nextLyr < len(t.images) {
		i := t.nextLyr
		if t.alphas[i] == nil {
			t.alphas[i] = NormalizedContrastAlpha(t.images[i].RGBA, t.maps[i], t.alphaKey().Threshold)
		}
		t.nextLyr++
		return Progress{StageAlpha, 100 * i / len(t.images)}, false, nil
	}
	t.out = AlphaStackComposite(alphaStack(t.images, t.alphas))
	t.finished = true
	return Progress{StageAlpha, 100}, true, nil
}

func (t *CompositeTask) stackColumns(x1, x2 int) {
	h := t.images.Bounds().Dy()
	s := Selection{
		RawInputs: make([]color.RGBA, len(t.images)),
		Contrast:  make([][3]float64, len(t.images)),
	}

	for x := x1; x < x2; x++ {
		for y := 0; y < h; y++ {
			t.selectAt(&s, image.Point{x, y})

			r := s.RawInputs[s.Index[0]].R
			g := s.RawInputs[s.Index[1]].G
			b := s.RawInputs[s.Index[2]].B
			t.out.SetRGBA(x, y, color.RGBA{r, g, b, 0xFF})
			t.field.AddDepth(x, y, s.Depth())
		}
	}

	for _, pt := range t.cfg.DebugPixels {
		if pt.X >= x1 && pt.X < x2 && pt.In(t.out.Bounds()) {
			log.Printf("%s", t.debugSelection(pt))
		}
	}
}

// selectAt gathers the inputs for one pixel into s, and runs the selector.
func (t *CompositeTask) selectAt(s *Selection, pt image.Point) {
	s.Pos = pt
	for i := range t.images {
		s.RawInputs[i] = t.images[i].RGBAAt(pt.X, pt.Y)
		for k := 0; k < 3; k++ {
			s.Contrast[i][k] = t.maps[i].At(pt.X, pt.Y, k)
		}
	}
	t.selector(t.cfg, s)
}

func (t *CompositeTask) debugSelection(pt image.Point) Selection {
	s := Selection{
		RawInputs: make([]color.RGBA, len(t.images)),
		Contrast:  make([][3]float64, len(t.images)),
	}
	t.selectAt(&s, pt)
	return s
}

func (t *CompositeTask) dumpContrastMap(i int) {
	cm := t.maps[i]
	filename := filepath.Join(t.cfg.OutputDir, fmt.Sprintf("contrast-%02d.png", i))
	title := fmt.Sprintf("%s, max %.0f", t.images[i].Name, cm.Max)
	if err := cm.Channels[0].ToImg(title, filename); err != nil {
		log.Warnf("dump contrast map: %v", err)
	}
}

// drop throws away all progress; a later Step starts from scratch.
func (t *CompositeTask) drop() {
	t.nextImg, t.nextCol, t.nextLyr = 0, 0, 0
	t.maps = make([]*ContrastMap, len(t.images))
	t.alphas = make([]*image.NRGBA, len(t.images))
	t.out = nil
	t.field = FusionDepthField{}
	t.finished = false
}

// Result returns the composite and depth field; nil until the task is
// done. Alpha-stack mode has no depth field.
func (t *CompositeTask) Result() (*image.RGBA, *FusionDepthField) {
	if !t.finished {
		return nil, nil
	}
	if t.alpha {
		return t.out, nil
	}
	return t.out, &t.field
}

// StoreCaches puts the contrast maps (and alpha layers) the task built
// into the caches of images, which must be the same stack, in the same
// order, that the task was made from.
func (t *CompositeTask) StoreCaches(images ImageSet) {
	if !t.finished || len(images) != len(t.images) {
		return
	}
	for i := range images {
		if t.maps[i] != nil {
			images[i].storeContrast(t.key, t.maps[i])
		}
		if t.alphas[i] != nil {
			images[i].storeAlpha(t.alphaKey(), t.alphas[i])
		}
	}
}

// Composite runs a task to completion, logging progress as it goes.
func Composite(ctx context.Context, cfg Config, images ImageSet) (*image.RGBA, *FusionDepthField, error) {
	t, err := NewCompositeTask(cfg, images, nil)
	if err != nil {
		return nil, nil, err
	}
	for {
		prog, done, err := t.Step(ctx)
		if err != nil {
			return nil, nil, err
		}
		log.Tracef("%s", prog)
		if done {
			t.StoreCaches(images)
			img, field := t.Result()
			return img, field, nil
		}
	}
}
