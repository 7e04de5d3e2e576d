package stacker

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// A Pipeline owns a focus stack and everything computed from it. One
// mutex guards all of it; long-running work happens in a
// CompositeTask outside the lock, and is only published if nothing
// has moved on (Cancel, Reset, or a settings change) in the meantime.
type Pipeline struct {
	mu sync.Mutex

	Config Config
	Images ImageSet

	premade  *image.RGBA // A composite made elsewhere ...
	external *image.RGBA // ... and its depth map, normalized

	composite *image.RGBA
	field     *FusionDepthField
	depth     *image.RGBA
	left      *image.RGBA
	right     *image.RGBA
	anaglyph  *image.RGBA
	frames    []*image.RGBA

	task       *CompositeTask
	generation uint64
	runID      string
}

func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{Config: cfg}
}

func (p *Pipeline) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("Pipeline[gen %d, premade %v] %s", p.generation, p.premadeModeLocked(), p.Images)
}

func (p *Pipeline) logger() *log.Entry {
	return log.WithField("run", p.runID)
}

// {{{ Inputs

// AddImage adds an image to the stack, keeping it sorted. Any results
// computed from the old stack are dropped.
func (p *Pipeline) AddImage(si StackImage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.premade != nil && si.Bounds().Size() != p.premade.Bounds().Size() {
		return fmt.Errorf("image '%s' vs premade composite: %w", si.Name, ErrInvalidDimensions)
	}
	if err := p.Images.Add(si, p.Config.Settings.Stacking.InvertImages); err != nil {
		return err
	}
	p.cancelLocked()
	return nil
}

func (p *Pipeline) RemoveImage(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.Images.Remove(name) {
		return false
	}
	p.cancelLocked()
	return true
}

// SetExternalDepthMap supplies a depth map made elsewhere. It is
// min-max normalized on the way in; a flat map becomes all zero.
func (p *Pipeline) SetExternalDepthMap(img image.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkSizeLocked("depth map", img.Bounds()); err != nil {
		return err
	}
	p.external = normalizeOrWarn("external depth map", img)
	p.cancelLocked()
	return nil
}

// SetPremadeComposite supplies an already-stacked image, to pair with
// an external depth map.
func (p *Pipeline) SetPremadeComposite(img image.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkSizeLocked("premade composite", img.Bounds()); err != nil {
		return err
	}
	p.premade = ToRGBA(img)
	p.cancelLocked()
	return nil
}

func (p *Pipeline) checkSizeLocked(what string, b image.Rectangle) error {
	if b.Empty() {
		return fmt.Errorf("%s is %v: %w", what, b.Size(), ErrInvalidDimensions)
	}
	for _, other := range []*image.RGBA{p.premade, p.external} {
		if other != nil && other.Bounds().Size() != b.Size() {
			return fmt.Errorf("%s is %v, want %v: %w", what, b.Size(), other.Bounds().Size(), ErrInvalidDimensions)
		}
	}
	if len(p.Images) > 0 && p.Images.Bounds().Size() != b.Size() {
		return fmt.Errorf("%s is %v, stack is %v: %w", what, b.Size(), p.Images.Bounds().Size(), ErrInvalidDimensions)
	}
	return nil
}

// PremadeMode is true when both halves of a premade input are present;
// the stack itself is then ignored.
func (p *Pipeline) PremadeMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.premadeModeLocked()
}

func (p *Pipeline) premadeModeLocked() bool { return p.premade != nil && p.external != nil }

// }}}
// {{{ Lifecycle

// Cancel abandons any outstanding run, and drops every computed result.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked()
}

func (p *Pipeline) cancelLocked() {
	p.generation++
	p.task = nil
	p.composite, p.field, p.depth = nil, nil, nil
	p.left, p.right, p.anaglyph, p.frames = nil, nil, nil, nil
}

// Reset is Cancel, and then a new, empty stack.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked()
	p.Images = nil
	p.premade, p.external = nil, nil
}

func (p *Pipeline) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// NewCompositeTask hands out the single task allowed at a time. The
// task goes stale as soon as the pipeline's generation moves on.
func (p *Pipeline) NewCompositeTask() (*CompositeTask, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.task != nil {
		return nil, ErrConcurrentInvocation
	}
	if len(p.Images) == 0 {
		return nil, ErrEmptyStack
	}

	gen := p.generation
	t, err := NewCompositeTask(p.Config, p.Images, func() bool { return p.currentGeneration() != gen })
	if err != nil {
		return nil, err
	}
	p.task = t
	return t, nil
}

// finishTask publishes a completed task's results, and its contrast
// maps into the image caches, unless it has gone stale. Anything that
// changes the stack bumps the generation and clears p.task, so if the
// task is still current then p.Images is the stack it was made from.
func (p *Pipeline) finishTask(t *CompositeTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.task != t {
		return ErrCancelled
	}
	p.task = nil
	t.StoreCaches(p.Images)
	p.composite, p.field = t.Result()
	return nil
}

func (p *Pipeline) abandonTask(t *CompositeTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.task == t {
		p.task = nil
	}
}

// Run builds the composite (unless in premade mode), and then every
// downstream result. progressFn, if not nil, is called after each step.
func (p *Pipeline) Run(ctx context.Context, progressFn func(Progress)) error {
	p.mu.Lock()
	p.runID = uuid.NewString()
	logger := p.logger()
	premade := p.premadeModeLocked()
	if premade {
		p.composite, p.field, p.depth = p.premade, nil, nil
	}
	p.mu.Unlock()

	if !premade {
		t, err := p.NewCompositeTask()
		if err != nil {
			return err
		}
		logger.Printf("compositing %d images", len(t.images))

		lastLogged := Progress{}
		for {
			prog, done, err := t.Step(ctx)
			if err != nil {
				p.abandonTask(t)
				return err
			}
			if progressFn != nil {
				progressFn(prog)
			}
			if prog.Stage != lastLogged.Stage || prog.Percent >= lastLogged.Percent+10 {
				logger.Debugf("%s", prog)
				lastLogged = prog
			}
			if done {
				break
			}
		}

		if err := p.finishTask(t); err != nil {
			return err
		}
		if _, field := t.Result(); field != nil {
			logger.Debugf("layer usage: %v", LayerUsage(*field))
		}
	}

	return p.RefreshDepth()
}

// }}}
// {{{ Refresh cascade

// RefreshDepth rebuilds the depth map from the current composite, and
// then everything downstream of it.
func (p *Pipeline) RefreshDepth() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshDepthLocked()
}

func (p *Pipeline) refreshDepthLocked() error {
	if p.composite == nil {
		return nil
	}
	s := p.Config.Settings.Anaglyph

	switch {
	case p.premadeModeLocked():
		p.depth = p.external

	case p.field != nil:
		p.depth = BuildDepthMap(*p.field, s.DepthGamma, s.DepthSmooth, p.Config.GetBlurrer())
		if p.Config.NormalizeComputedDepth {
			p.depth = normalizeOrWarn("computed depth map", p.depth)
		}

	default:
		p.depth = AlphaStackDepthMap(p.Images, p.alphaKeyLocked(), s, p.Config.GetBlurrer())
	}

	return p.refreshEyesLocked()
}

// RefreshEyes re-synthesizes the stereo pair, and the anaglyph.
func (p *Pipeline) RefreshEyes() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshEyesLocked()
}

func (p *Pipeline) refreshEyesLocked() error {
	if p.composite == nil || p.depth == nil {
		return nil
	}
	p.left = p.renderViewLocked(p.Config.LeftEyeSign)
	p.right = p.renderViewLocked(p.Config.RightEyeSign())
	p.frames = nil
	return p.refreshAnaglyphLocked()
}

// RefreshAnaglyph recomposes the anaglyph from the current eyes.
func (p *Pipeline) RefreshAnaglyph() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshAnaglyphLocked()
}

func (p *Pipeline) refreshAnaglyphLocked() error {
	if p.left == nil || p.right == nil {
		return nil
	}
	p.anaglyph = ComposeAnaglyph(p.left, p.right, p.Config.Settings.Anaglyph)
	return nil
}

// renderViewLocked draws the scene from an eye position, in whichever
// mode the pipeline is in.
func (p *Pipeline) renderViewLocked(eye float64) *image.RGBA {
	s := p.Config.Settings.Anaglyph
	if p.premadeModeLocked() || p.field != nil {
		return SynthesizeEye(p.composite, p.depth, eye, s)
	}
	return AlphaStackEye(AlphaLayers(p.Images, p.alphaKeyLocked()), p.composite.Bounds(), eye, s)
}

func (p *Pipeline) alphaKeyLocked() AlphaKey {
	k := p.Images[0].ContrastKey(p.Config)
	return AlphaKey{k, p.Config.Settings.Stacking.AlphaThreshold}
}

// RenderAnimation renders the parallax wobble frames.
func (p *Pipeline) RenderAnimation() []*image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.composite == nil || p.depth == nil {
		return nil
	}
	p.frames = RenderAnimation(p.Config.Settings.Animation, p.Config.AnimationMaxWidth, p.renderViewLocked)
	return p.frames
}

// UpdateSettings installs new settings, and works out how much of the
// pipeline they invalidate. A change to the stacking settings drops
// every result; the caller needs to Run again.
func (p *Pipeline) UpdateSettings(s Settings) RefreshLevel {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.Config.Settings
	p.Config.Settings = s
	level := s.RefreshNeeded(old)

	if level == RefreshAll {
		if s.Stacking.SigmaA != old.Stacking.SigmaA || s.Stacking.SigmaB != old.Stacking.SigmaB {
			p.Images.InvalidateContrast()
		}
		if s.Stacking.InvertImages != old.Stacking.InvertImages {
			p.Images.Sort(s.Stacking.InvertImages)
		}
		p.cancelLocked()
	}
	return level
}

// ApplySettings installs new settings and does whatever refresh they need.
func (p *Pipeline) ApplySettings(ctx context.Context, s Settings) error {
	switch p.UpdateSettings(s) {
	case RefreshAll:
		return p.Run(ctx, nil)
	case RefreshDepth:
		return p.RefreshDepth()
	case RefreshEyes:
		return p.RefreshEyes()
	case RefreshAnaglyph:
		return p.RefreshAnaglyph()
	}
	return nil
}

// }}}
// {{{ Results

func (p *Pipeline) Composite() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.composite
}

func (p *Pipeline) DepthField() *FusionDepthField {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.field
}

func (p *Pipeline) DepthMap() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depth
}

func (p *Pipeline) Eyes() (*image.RGBA, *image.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.left, p.right
}

func (p *Pipeline) Anaglyph() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anaglyph
}

func (p *Pipeline) Frames() []*image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// }}}
