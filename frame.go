package main

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FramePolicy decides how source frames that are not 640x480 reach the output.
type FramePolicy string

const (
	// PolicyLetterbox scales keeping aspect ratio and pads the rest with black.
	PolicyLetterbox FramePolicy = "letterbox"
	// PolicyStretch resizes to the output size, distorting the aspect ratio.
	PolicyStretch FramePolicy = "stretch"
	// PolicyReject fails on the first frame that does not match the output size.
	PolicyReject FramePolicy = "reject"
)

// ParseFramePolicy validates a policy name.
func ParseFramePolicy(s string) (FramePolicy, error) {
	switch p := FramePolicy(s); p {
	case PolicyLetterbox, PolicyStretch, PolicyReject:
		return p, nil
	default:
		return "", errors.Wrapf(ErrInvalidSettings, "frame policy %q must be letterbox, stretch or reject", s)
	}
}

// letterboxLayout returns the scaled content size and the top/left padding
// that centres a w x h frame inside the output frame.
func letterboxLayout(w, h int) (size image.Point, top, left int) {
	scale := math.Min(float64(FrameWidth)/float64(w), float64(FrameHeight)/float64(h))
	sw := int(math.Round(float64(w) * scale))
	sh := int(math.Round(float64(h) * scale))
	if sw > FrameWidth {
		sw = FrameWidth
	}
	if sh > FrameHeight {
		sh = FrameHeight
	}
	return image.Pt(sw, sh), (FrameHeight - sh) / 2, (FrameWidth - sw) / 2
}

// fitFrame brings src to the output size according to policy. When src
// already matches, the returned Mat is a clone. The caller closes the result.
func fitFrame(src gocv.Mat, policy FramePolicy) (gocv.Mat, error) {
	w, h := src.Cols(), src.Rows()
	if w == FrameWidth && h == FrameHeight {
		return src.Clone(), nil
	}

	switch policy {
	case PolicyReject:
		return gocv.NewMat(), errors.Wrapf(ErrFrameSizeMismatch, "source frame %dx%d, want %dx%d", w, h, FrameWidth, FrameHeight)

	case PolicyStretch:
		dst := gocv.NewMat()
		gocv.Resize(src, &dst, image.Pt(FrameWidth, FrameHeight), 0, 0, gocv.InterpolationLinear)
		return dst, nil

	default:
		size, top, left := letterboxLayout(w, h)

		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(src, &scaled, size, 0, 0, gocv.InterpolationLinear)

		bottom := FrameHeight - size.Y - top
		right := FrameWidth - size.X - left

		dst := gocv.NewMat()
		gocv.CopyMakeBorder(scaled, &dst, top, bottom, left, right, gocv.BorderConstant, color.RGBA{0, 0, 0, 0})
		return dst, nil
	}
}
