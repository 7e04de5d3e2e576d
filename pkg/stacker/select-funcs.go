package stacker

import "math"

// A SelectFunc looks at the contrast of every layer at a pixel, and
// decides which layer is sharpest. It fills in Index and Score.
//
// Layers are in stack order, so the first and last layers can be
// nudged up or down via the config biases; this helps with the blown
// out backgrounds that focus stacks tend to have.
type SelectFunc func(Config, *Selection)

// bias is the extra score a layer gets for being first or last.
func bias(cfg Config, i, n int) float64 {
	b := 0.0
	if i == 0 {
		b += cfg.FirstImageBias
	}
	if i == n-1 {
		b += cfg.LastImageBias
	}
	return b
}

// pickBest is a strictly-greater argmax, so ties go to the lowest index.
func pickBest(cfg Config, s *Selection, ch int) (int, float64) {
	n := len(s.Contrast)
	best, bestScore := 0, math.Inf(-1)
	for i := 0; i < n; i++ {
		score := math.Abs(s.Contrast[i][ch]) + bias(cfg, i, n)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if n == 0 {
		bestScore = 0
	}
	return best, bestScore
}

// SelectByLuma picks a single layer from the luma contrast, and uses it
// for all three channels. This is the default.
func SelectByLuma(cfg Config, s *Selection) {
	i, score := pickBest(cfg, s, 0)
	for k := 0; k < 3; k++ {
		s.Index[k] = i
		s.Score[k] = score
	}
}

// SelectPerChannel runs an independent argmax for each of R, G and
// B. It can pick up detail that only shows in one channel, at the cost
// of occasional color fringes.
func SelectPerChannel(cfg Config, s *Selection) {
	for k := 0; k < 3; k++ {
		s.Index[k], s.Score[k] = pickBest(cfg, s, k)
	}
}
