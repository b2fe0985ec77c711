package main

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// HSV channel limits as used by OpenCV for 8-bit images.
const (
	maxHue        = 180
	maxSatOrValue = 255
)

// ColorRange is an inclusive HSV threshold for one tracked ball colour.
type ColorRange struct {
	Name  string
	Lower [3]int
	Upper [3]int
}

// Palette is the ordered colour table. Iteration order is detection order.
type Palette []ColorRange

// DefaultPalette returns the five colours tracked when no settings file overrides them.
func DefaultPalette() Palette {
	return Palette{
		{Name: "red", Lower: [3]int{0, 120, 70}, Upper: [3]int{10, 255, 255}},
		{Name: "green", Lower: [3]int{36, 25, 25}, Upper: [3]int{86, 255, 255}},
		{Name: "blue", Lower: [3]int{94, 80, 2}, Upper: [3]int{126, 255, 255}},
		{Name: "yellow", Lower: [3]int{20, 100, 100}, Upper: [3]int{30, 255, 255}},
		{Name: "white", Lower: [3]int{0, 0, 200}, Upper: [3]int{180, 30, 255}},
	}
}

// Scalars returns the lower and upper bounds as gocv scalars for InRangeWithScalar.
func (c ColorRange) Scalars() (gocv.Scalar, gocv.Scalar) {
	lower := gocv.NewScalar(float64(c.Lower[0]), float64(c.Lower[1]), float64(c.Lower[2]), 0)
	upper := gocv.NewScalar(float64(c.Upper[0]), float64(c.Upper[1]), float64(c.Upper[2]), 0)
	return lower, upper
}

// Validate checks that names are unique and every channel range is well formed.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return errors.New("palette has no colours")
	}

	seen := make(map[string]bool, len(p))
	for _, c := range p {
		if c.Name == "" {
			return errors.New("colour with empty name")
		}
		if seen[c.Name] {
			return errors.Errorf("duplicate colour %q", c.Name)
		}
		seen[c.Name] = true

		for ch := 0; ch < 3; ch++ {
			limit := maxSatOrValue
			if ch == 0 {
				limit = maxHue
			}
			lo, hi := c.Lower[ch], c.Upper[ch]
			if lo < 0 || hi > limit {
				return errors.Errorf("colour %q channel %d out of range [0,%d]", c.Name, ch, limit)
			}
			if lo > hi {
				return errors.Errorf("colour %q channel %d lower %d above upper %d", c.Name, ch, lo, hi)
			}
		}
	}
	return nil
}

// Names returns the colour names in iteration order.
func (p Palette) Names() []string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = c.Name
	}
	return names
}
