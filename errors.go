package main

import "github.com/pkg/errors"

var (
	// ErrSourceUnavailable is returned when the input video cannot be opened.
	ErrSourceUnavailable = errors.New("video source unavailable")

	// ErrSinkUnavailable is returned when the output video or event log cannot be created.
	ErrSinkUnavailable = errors.New("output sink unavailable")

	// ErrFrameSizeMismatch is returned under the reject frame policy when a
	// source frame is not exactly the output frame size.
	ErrFrameSizeMismatch = errors.New("frame size mismatch")

	// ErrInvalidSettings is returned for unusable flags or settings files.
	ErrInvalidSettings = errors.New("invalid settings")
)
