package main

import (
	"image"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Output frame geometry. Quadrants partition this space.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// Quadrant identifies a screen region. NoQuadrant means the point lies outside every region.
type Quadrant int

// NoQuadrant is the placeholder for a ball seen outside all quadrants.
const NoQuadrant Quadrant = 0

// String renders the quadrant id, or "None" for NoQuadrant.
func (q Quadrant) String() string {
	if q == NoQuadrant {
		return "None"
	}
	return strconv.Itoa(int(q))
}

// Region is an axis-aligned rectangle whose bounds are both inclusive.
type Region struct {
	ID  Quadrant
	Min image.Point
	Max image.Point
}

// Contains reports whether p lies inside the region, edges included.
func (r Region) Contains(p image.Point) bool {
	return r.Min.X <= p.X && p.X <= r.Max.X && r.Min.Y <= p.Y && p.Y <= r.Max.Y
}

// Quadrants is a set of regions kept in ascending id order.
type Quadrants []Region

// DefaultQuadrants splits the 640x480 frame into four equal regions:
// 1 top-left, 2 top-right, 3 bottom-left, 4 bottom-right.
func DefaultQuadrants() Quadrants {
	halfW, halfH := FrameWidth/2, FrameHeight/2
	return Quadrants{
		{ID: 1, Min: image.Pt(0, 0), Max: image.Pt(halfW, halfH)},
		{ID: 2, Min: image.Pt(halfW, 0), Max: image.Pt(FrameWidth, halfH)},
		{ID: 3, Min: image.Pt(0, halfH), Max: image.Pt(halfW, FrameHeight)},
		{ID: 4, Min: image.Pt(halfW, halfH), Max: image.Pt(FrameWidth, FrameHeight)},
	}
}

// Locate returns the first region, in ascending id order, containing p.
// Points on a shared edge therefore belong to the lower id.
func (qs Quadrants) Locate(p image.Point) Quadrant {
	for _, r := range qs {
		if r.Contains(p) {
			return r.ID
		}
	}
	return NoQuadrant
}

// Normalize sorts the regions by id and validates them.
func (qs Quadrants) Normalize() (Quadrants, error) {
	if len(qs) == 0 {
		return nil, errors.New("no quadrants defined")
	}

	sorted := make(Quadrants, len(qs))
	copy(sorted, qs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for i, r := range sorted {
		if r.ID < 1 || r.ID > 4 {
			return nil, errors.Errorf("quadrant id %d outside 1..4", r.ID)
		}
		if i > 0 && sorted[i-1].ID == r.ID {
			return nil, errors.Errorf("duplicate quadrant id %d", r.ID)
		}
		if r.Min.X > r.Max.X || r.Min.Y > r.Max.Y {
			return nil, errors.Errorf("quadrant %d has min %v beyond max %v", r.ID, r.Min, r.Max)
		}
	}
	return sorted, nil
}
