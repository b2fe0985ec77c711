package main

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestParseFramePolicy(t *testing.T) {
	for _, name := range []string{"letterbox", "stretch", "reject"} {
		p, err := ParseFramePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, FramePolicy(name), p)
	}

	_, err := ParseFramePolicy("crop")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestLetterboxLayout(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		wantSize image.Point
		wantTop  int
		wantLeft int
	}{
		{"exact", 640, 480, image.Pt(640, 480), 0, 0},
		{"widescreen 1280x720", 1280, 720, image.Pt(640, 360), 60, 0},
		{"portrait 480x640", 480, 640, image.Pt(360, 480), 0, 140},
		{"small 4:3 upscales", 320, 240, image.Pt(640, 480), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, top, left := letterboxLayout(tt.w, tt.h)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantTop, top)
			assert.Equal(t, tt.wantLeft, left)
		})
	}
}

func TestFitFrame(t *testing.T) {
	src := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer src.Close()
	src.SetTo(gocv.NewScalar(255, 255, 255, 0))

	t.Run("letterbox pads to output size", func(t *testing.T) {
		dst, err := fitFrame(src, PolicyLetterbox)
		require.NoError(t, err)
		defer dst.Close()

		assert.Equal(t, FrameWidth, dst.Cols())
		assert.Equal(t, FrameHeight, dst.Rows())
		// padding rows are black, content rows keep the source colour
		assert.Equal(t, uint8(0), dst.GetUCharAt(10, 0))
		assert.Equal(t, uint8(255), dst.GetUCharAt(240, 3*320))
	})

	t.Run("stretch resizes", func(t *testing.T) {
		dst, err := fitFrame(src, PolicyStretch)
		require.NoError(t, err)
		defer dst.Close()

		assert.Equal(t, FrameWidth, dst.Cols())
		assert.Equal(t, FrameHeight, dst.Rows())
		assert.Equal(t, uint8(255), dst.GetUCharAt(10, 0))
	})

	t.Run("reject fails", func(t *testing.T) {
		dst, err := fitFrame(src, PolicyReject)
		defer dst.Close()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFrameSizeMismatch))
	})

	t.Run("matching frame passes under every policy", func(t *testing.T) {
		exact := gocv.NewMatWithSize(FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
		defer exact.Close()

		for _, p := range []FramePolicy{PolicyLetterbox, PolicyStretch, PolicyReject} {
			dst, err := fitFrame(exact, p)
			require.NoError(t, err, p)
			assert.Equal(t, FrameWidth, dst.Cols())
			dst.Close()
		}
	})
}
