package stacker

import (
	"fmt"
	"image"
	"image/color"
)

// A Selection is the per-pixel workspace for the focus selector: the
// inputs from every layer, and which layer won for each output channel.
type Selection struct {
	Pos       image.Point  // In output coords
	RawInputs []color.RGBA // One per layer
	Contrast  [][3]float64 // Per layer, per channel; the three entries are equal in luma mode

	Index [3]int     // Winning layer per output channel (R,G,B)
	Score [3]float64 // Winning score per output channel
}

// Depth is the mean of the per-channel indices; in luma mode all
// three agree, so it is just the index.
func (s Selection) Depth() float64 {
	return float64(s.Index[0]+s.Index[1]+s.Index[2]) / 3.0
}

func (s Selection) String() string {
	str := fmt.Sprintf("----- Selection @(%d,%d)-----\n", s.Pos.X, s.Pos.Y)

	for i := 0; i < len(s.RawInputs); i++ {
		c := s.RawInputs[i]
		str += fmt.Sprintf("-- layer %2d : rgb[%3d,%3d,%3d]", i, c.R, c.G, c.B)
		if i < len(s.Contrast) {
			str += fmt.Sprintf(" contrast[%6.1f,%6.1f,%6.1f]", s.Contrast[i][0], s.Contrast[i][1], s.Contrast[i][2])
		}
		str += "\n"
	}

	str += fmt.Sprintf("Index  : [%12d, %12d, %12d]\n", s.Index[0], s.Index[1], s.Index[2])
	str += fmt.Sprintf("Score  : [%12.4f, %12.4f, %12.4f]\n", s.Score[0], s.Score[1], s.Score[2])
	str += fmt.Sprintf("Depth  : %.4f\n\n", s.Depth())

	return str
}
