package stacker

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/abworrall/stereo-stacker/pkg/emath"
)

// DefaultSettingsFilename is what the settings get saved as, if no
// other name is given.
const DefaultSettingsFilename = "saved.stackersettings"

// A Matrix is a 3x3 color mixing matrix, stored as rows so that it
// reads naturally in the settings file.
type Matrix [3][3]float64

func (m Matrix) Mat3() emath.Mat3 { return emath.Mat3FromRows(m) }

// UnmarshalJSON only accepts a full 3x3; encoding/json would otherwise
// zero-fill whatever rows or cells a short array leaves out.
func (m *Matrix) UnmarshalJSON(b []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	if len(rows) != 3 {
		return fmt.Errorf("matrix has %d rows, want 3", len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			return fmt.Errorf("matrix row %d has %d cells, want 3", i, len(row))
		}
		copy(m[i][:], row)
	}
	return nil
}

type StackingSettings struct {
	SigmaA         float64 `json:"sigmaA"`         // DoG inner blur, in StdWidth pixels
	SigmaB         float64 `json:"sigmaB"`         // DoG outer blur, in StdWidth pixels
	AlphaThreshold float64 `json:"alphaThreshold"` // Contrast at which an alpha layer becomes opaque
	InvertImages   bool    `json:"invertImages"`   // Sort the stack by descending name
	UseDepthMap    bool    `json:"useDepthMap"`    // Per-pixel depth; false means alpha-layer stacking
}

type AnaglyphSettings struct {
	LeftMatrix  Matrix  `json:"leftMatrix"`
	RightMatrix Matrix  `json:"rightMatrix"`
	LeftGamma   float64 `json:"leftGamma"`
	RightGamma  float64 `json:"rightGamma"`
	DepthScale  float64 `json:"depthScale"`  // Max parallax, in StdWidth pixels
	DepthSmooth float64 `json:"depthSmooth"` // Depth map blur radius, in StdWidth pixels
	DepthOffset float64 `json:"depthOffset"` // Shifts the zero-parallax plane; in [-1,0]
	DepthGamma  float64 `json:"depthGamma"`
}

type AnimationSettings struct {
	Speed    float64 // 1.0 is one wobble per second
	Strength float64 // Percentage of DepthScale
}

// Settings are the user-tunable parameters. Stacking and Anaglyph
// round-trip through the settings file; Animation does not.
type Settings struct {
	Stacking  StackingSettings  `json:"stackingSettings" yaml:"stacking"`
	Anaglyph  AnaglyphSettings  `json:"anaglyphSettings" yaml:"anaglyph"`
	Animation AnimationSettings `json:"-" yaml:"animation"`
}

type anaglyphPreset struct {
	Left, Right Matrix
}

const CustomAnaglyph = "customAnaglyph"

var anaglyphPresets = map[string]anaglyphPreset{
	"redCyanBest3D": {
		Left:  Matrix{{0.7, 0.3, 0.0}, {0.0, 0.0, 0.0}, {0.0, 0.0, 0.0}},
		Right: Matrix{{0.0, 0.0, 0.0}, {0.0, 1.0, 0.0}, {0.0, 0.0, 1.0}},
	},
	"redCyanHalfColor": {
		Left:  Matrix{{0.3, 0.6, 0.1}, {0.0, 0.0, 0.0}, {0.0, 0.0, 0.0}},
		Right: Matrix{{0.0, 0.0, 0.0}, {0.0, 1.0, 0.0}, {0.0, 0.0, 1.0}},
	},
	"redCyanFullColor": {
		Left:  Matrix{{1.0, 0.0, 0.0}, {0.0, 0.0, 0.0}, {0.0, 0.0, 0.0}},
		Right: Matrix{{0.0, 0.0, 0.0}, {0.0, 1.0, 0.0}, {0.0, 0.0, 1.0}},
	},
	"redCyanGray": {
		Left:  Matrix{{0.3, 0.6, 0.1}, {0.0, 0.0, 0.0}, {0.0, 0.0, 0.0}},
		Right: Matrix{{0.0, 0.0, 0.0}, {0.3, 0.6, 0.1}, {0.3, 0.6, 0.1}},
	},
	"redCyanPureDark": {
		Left:  Matrix{{0.3, 0.6, 0.1}, {0.0, 0.0, 0.0}, {0.0, 0.0, 0.0}},
		Right: Matrix{{0.0, 0.0, 0.0}, {0.0, 0.0, 0.0}, {0.3, 0.6, 0.1}},
	},
}

func ListAnaglyphPresets() []string {
	names := []string{}
	for name := range anaglyphPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func DefaultSettings() Settings {
	best := anaglyphPresets["redCyanBest3D"]
	return Settings{
		Stacking: StackingSettings{
			SigmaA:         1.0,
			SigmaB:         4.0,
			AlphaThreshold: 32,
			InvertImages:   false,
			UseDepthMap:    true,
		},
		Anaglyph: AnaglyphSettings{
			LeftMatrix:  best.Left,
			RightMatrix: best.Right,
			LeftGamma:   1.4,
			RightGamma:  0.9,
			DepthScale:  45,
			DepthSmooth: 2.0,
			DepthOffset: -0.5,
			DepthGamma:  1.0,
		},
		Animation: AnimationSettings{
			Speed:    1.0,
			Strength: 25.0,
		},
	}
}

// {{{ Setters, each clamping to the range the controls allow

// SetSharpness takes a value in [1,100]; higher means a tighter inner
// blur. The ratio between the two sigmas is preserved.
func (s *Settings) SetSharpness(v float64) {
	ratio := s.SigmaRatio()
	s.Stacking.SigmaA = 100.0 / emath.Clamp(1, 100, v)
	s.Stacking.SigmaB = s.Stacking.SigmaA * ratio
}

func (s Settings) Sharpness() float64 { return 100.0 / s.Stacking.SigmaA }

// SetFeatureScale takes a value in [1,100], mapped onto a sigma ratio
// in [0.1,10].
func (s *Settings) SetFeatureScale(v float64) {
	s.Stacking.SigmaB = s.Stacking.SigmaA * emath.Clamp(1, 100, v) / 10.0
}

// FeatureScale is the inverse of SetFeatureScale, in the same [1,100] units.
func (s Settings) FeatureScale() float64 { return s.SigmaRatio() * 10.0 }

// SigmaRatio is SigmaB/SigmaA.
func (s Settings) SigmaRatio() float64 {
	if s.Stacking.SigmaA == 0 {
		return 1
	}
	return s.Stacking.SigmaB / s.Stacking.SigmaA
}

func (s *Settings) SetLeftGamma(v float64)   { s.Anaglyph.LeftGamma = emath.Clamp(0.1, 3.0, v) }
func (s *Settings) SetRightGamma(v float64)  { s.Anaglyph.RightGamma = emath.Clamp(0.1, 3.0, v) }
func (s *Settings) SetDepthScale(v float64)  { s.Anaglyph.DepthScale = emath.Clamp(0, 200, v) }
func (s *Settings) SetDepthSmooth(v float64) { s.Anaglyph.DepthSmooth = emath.Clamp(0, 100, v) }

// SetDepthGammaExponent sets DepthGamma to 2^e, for e in [-6,6].
func (s *Settings) SetDepthGammaExponent(e float64) {
	s.Anaglyph.DepthGamma = math.Pow(2, emath.Clamp(-6, 6, e))
}

// SetDepthOffsetPercent takes [-100,0] and stores [-1,0].
func (s *Settings) SetDepthOffsetPercent(v float64) {
	s.Anaglyph.DepthOffset = emath.Clamp(-100, 0, v) / 100.0
}

func (s *Settings) SetAnimationSpeedPercent(v float64) {
	s.Animation.Speed = emath.Clamp(25, 200, v) / 100.0
}

func (s *Settings) SetAnimationStrength(v float64) {
	s.Animation.Strength = emath.Clamp(0, 100, v)
}

// SetMatrixCell sets one cell of the left or right mixing matrix,
// clamped to [0,2].
func (s *Settings) SetMatrixCell(left bool, row, col int, v float64) error {
	if row < 0 || row > 2 || col < 0 || col > 2 {
		return fmt.Errorf("matrix cell [%d][%d] out of range", row, col)
	}
	if left {
		s.Anaglyph.LeftMatrix[row][col] = emath.Clamp(0, 2, v)
	} else {
		s.Anaglyph.RightMatrix[row][col] = emath.Clamp(0, 2, v)
	}
	return nil
}

func (s *Settings) SetAnaglyphPreset(name string) error {
	p, exists := anaglyphPresets[name]
	if !exists {
		return fmt.Errorf("no anaglyph preset named '%s', want one of %v", name, ListAnaglyphPresets())
	}
	s.Anaglyph.LeftMatrix = p.Left
	s.Anaglyph.RightMatrix = p.Right
	return nil
}

// AnaglyphPreset names the preset the current matrices match, or
// returns CustomAnaglyph.
func (s Settings) AnaglyphPreset() string {
	return FindAnaglyphPreset(s.Anaglyph.LeftMatrix, s.Anaglyph.RightMatrix)
}

func FindAnaglyphPreset(left, right Matrix) string {
	l, r := left.Mat3(), right.Mat3()
	for _, name := range ListAnaglyphPresets() {
		p := anaglyphPresets[name]
		if l.ApproxEqual(p.Left.Mat3(), 0.001) && r.ApproxEqual(p.Right.Mat3(), 0.001) {
			return name
		}
	}
	return CustomAnaglyph
}

// Clamp forces every ranged value into range; used after loading a
// settings file, which may have been edited by hand.
func (s *Settings) Clamp() {
	s.SetLeftGamma(s.Anaglyph.LeftGamma)
	s.SetRightGamma(s.Anaglyph.RightGamma)
	s.SetDepthScale(s.Anaglyph.DepthScale)
	s.SetDepthSmooth(s.Anaglyph.DepthSmooth)
	s.Anaglyph.DepthOffset = emath.Clamp(-1, 0, s.Anaglyph.DepthOffset)
	s.Anaglyph.DepthGamma = emath.Clamp(math.Pow(2, -6), math.Pow(2, 6), s.Anaglyph.DepthGamma)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s.Anaglyph.LeftMatrix[i][j] = emath.Clamp(0, 2, s.Anaglyph.LeftMatrix[i][j])
			s.Anaglyph.RightMatrix[i][j] = emath.Clamp(0, 2, s.Anaglyph.RightMatrix[i][j])
		}
	}
	if s.Stacking.SigmaA < 0 {
		s.Stacking.SigmaA = 0
	}
	if s.Stacking.SigmaB < 0 {
		s.Stacking.SigmaB = 0
	}
}

// }}}
// {{{ Persistence

func (s Settings) AsJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// MergeJSON overlays the keys present in b onto the current settings;
// keys missing from b keep their current value, unknown keys are
// ignored.
func (s *Settings) MergeJSON(b []byte) error {
	merged := *s
	if err := json.Unmarshal(b, &merged); err != nil {
		return fmt.Errorf("settings json: %w", err)
	}
	merged.Clamp()
	*s = merged
	return nil
}

func (s Settings) Save(filename string) error {
	b, err := s.AsJSON()
	if err != nil {
		return fmt.Errorf("settings marshal: %w", err)
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		return fmt.Errorf("settings write '%s': %w", filename, err)
	}
	return nil
}

func (s *Settings) Load(filename string) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("settings read '%s': %w", filename, err)
	}
	return s.MergeJSON(b)
}

// }}}
// {{{ Change detection

// A RefreshLevel says how much of the pipeline a settings change
// invalidates. Each level implies the ones below it.
type RefreshLevel int

const (
	RefreshNone RefreshLevel = iota
	RefreshAnaglyph
	RefreshEyes
	RefreshDepth
	RefreshAll
)

func (r RefreshLevel) String() string {
	switch r {
	case RefreshNone:
		return "none"
	case RefreshAnaglyph:
		return "anaglyph"
	case RefreshEyes:
		return "eyes"
	case RefreshDepth:
		return "depth"
	case RefreshAll:
		return "all"
	}
	return fmt.Sprintf("RefreshLevel(%d)", int(r))
}

// RefreshNeeded compares against the settings a result was built
// with, and returns how far back the pipeline has to be re-run.
func (s Settings) RefreshNeeded(old Settings) RefreshLevel {
	a, b := s.Anaglyph, old.Anaglyph
	switch {
	case s.Stacking != old.Stacking:
		return RefreshAll
	case a.DepthGamma != b.DepthGamma || a.DepthSmooth != b.DepthSmooth:
		return RefreshDepth
	case a.DepthScale != b.DepthScale || a.DepthOffset != b.DepthOffset:
		return RefreshEyes
	case a != b:
		return RefreshAnaglyph
	}
	return RefreshNone
}

// }}}
