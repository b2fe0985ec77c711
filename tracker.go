package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Output video parameters.
const (
	outputCodec = "XVID"
	outputFPS   = 20.0
	windowName  = "Frame"
	abortKey    = 'q'
)

var (
	circleColor = color.RGBA{0, 255, 0, 0}
	labelColor  = color.RGBA{255, 255, 255, 0}
	titleCaser  = cases.Title(language.Und)
)

// Circle is the minimal enclosing circle of one detected blob.
// Center is truncated to whole pixels before any quadrant test.
type Circle struct {
	Center image.Point
	Radius float32
}

// DetectCircles thresholds hsv with the colour's range, extracts every
// contour (tree retrieval, simple chain approximation) and returns the
// enclosing circles whose radius exceeds minRadius, in contour order.
func DetectCircles(hsv gocv.Mat, c ColorRange, minRadius float64) []Circle {
	lower, upper := c.Scalars()

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	contours := gocv.FindContours(mask, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	var circles []Circle
	for i := 0; i < contours.Size(); i++ {
		x, y, radius := gocv.MinEnclosingCircle(contours.At(i))
		if float64(radius) <= minRadius {
			continue
		}
		circles = append(circles, Circle{
			Center: image.Pt(int(x), int(y)),
			Radius: radius,
		})
	}
	return circles
}

// Tracker runs the per-frame detection loop from a video file to an
// annotated video and an event log. A Tracker is not safe for concurrent use.
type Tracker struct {
	config   *Config
	settings Settings
	logger   *slog.Logger
	metrics  *RunMetrics
}

// NewTracker creates a tracker for the given configuration and detection settings.
func NewTracker(config *Config, settings Settings, logger *slog.Logger) *Tracker {
	return &Tracker{
		config:   config,
		settings: settings,
		logger:   logger,
		metrics:  NewRunMetrics(),
	}
}

// Metrics returns the metrics of the most recent run.
func (t *Tracker) Metrics() *RunMetrics {
	return t.metrics
}

// Track processes videoPath frame by frame, writes the annotated frames to
// outputVideoPath and, once the loop ends, the event log to outputTextPath.
//
// The loop ends when the source is exhausted, when ctx is cancelled or when
// the abort key is pressed in the display window. All three still write the
// event log. Open failures, frame size rejections and write failures return
// an error without writing it.
func (t *Tracker) Track(ctx context.Context, videoPath, outputVideoPath, outputTextPath string) ([]Event, error) {
	defer t.beginRun()()

	events, err := t.processVideo(ctx, videoPath, outputVideoPath)
	return t.finish(events, err, outputTextPath)
}

// beginRun resets the metrics and tags every log record of the run with a
// fresh run id. The returned func restores the untagged logger.
func (t *Tracker) beginRun() func() {
	base := t.logger
	t.metrics = NewRunMetrics()
	t.logger = base.With("run_id", uuid.NewString())
	return func() { t.logger = base }
}

// finish reports the run metrics whatever the outcome and writes the event
// log only when the frame loop ended without error.
func (t *Tracker) finish(events []Event, runErr error, outputTextPath string) ([]Event, error) {
	t.metrics.Report(t.logger, t.settings.Palette.Names())
	if runErr != nil {
		return events, runErr
	}

	if err := SaveEventLog(outputTextPath, events); err != nil {
		return events, err
	}

	t.logger.Info("Event log written", "path", outputTextPath, "events", len(events))
	return events, nil
}

// processVideo owns the source, sink and window handles; they are released
// on every return path before the event log is written.
func (t *Tracker) processVideo(ctx context.Context, videoPath, outputVideoPath string) ([]Event, error) {
	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return nil, errors.Wrapf(ErrSourceUnavailable, "open %s: %v", videoPath, err)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return nil, errors.Wrapf(ErrSourceUnavailable, "video capture %s is not opened", videoPath)
	}

	t.logger.Info("Video source opened",
		"path", videoPath,
		"width", int(capture.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(capture.Get(gocv.VideoCaptureFrameHeight)),
		"fps", capture.Get(gocv.VideoCaptureFPS),
		"frame_count", int64(capture.Get(gocv.VideoCaptureFrameCount)),
		"frame_policy", t.config.FramePolicy)

	writer, err := gocv.VideoWriterFile(outputVideoPath, outputCodec, outputFPS, FrameWidth, FrameHeight, true)
	if err != nil {
		if writer != nil {
			writer.Close()
		}
		return nil, errors.Wrapf(ErrSinkUnavailable, "create %s: %v", outputVideoPath, err)
	}
	defer writer.Close()

	if !writer.IsOpened() {
		return nil, errors.Wrapf(ErrSinkUnavailable, "video writer %s is not opened", outputVideoPath)
	}

	var window *gocv.Window
	if t.config.Display {
		window = gocv.NewWindow(windowName)
		defer window.Close()
	}

	return t.run(ctx, capture, writer, window)
}

// frameSource is the part of *gocv.VideoCapture the frame loop reads from.
type frameSource interface {
	Read(m *gocv.Mat) bool
	Get(prop gocv.VideoCaptureProperties) float64
	Set(prop gocv.VideoCaptureProperties, param float64)
}

// frameSink is the part of *gocv.VideoWriter the frame loop writes to.
type frameSink interface {
	Write(img gocv.Mat) error
}

// run is the frame loop. One frame is fully processed, written and shown
// before the next one is read. window may be nil.
func (t *Tracker) run(ctx context.Context, capture frameSource, writer frameSink, window *gocv.Window) ([]Event, error) {
	frame := gocv.NewMat()
	defer frame.Close()

	state := NewTrackState()
	var events []Event
	consecutiveFailures := 0

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Tracking cancelled, writing events collected so far",
				"frames_read", t.metrics.GetFramesRead(),
				"events", len(events))
			return events, nil
		default:
		}

		if !capture.Read(&frame) || frame.Empty() {
			if t.endOfStream(capture) {
				t.logger.Debug("Video source exhausted", "frames_read", t.metrics.GetFramesRead())
				return events, nil
			}
			if consecutiveFailures >= t.config.MaxReadFailures {
				t.logger.Warn("Frame read failed, ending processing",
					"position", int64(capture.Get(gocv.VideoCapturePosFrames)),
					"consecutive_failures", consecutiveFailures,
					"max_read_failures", t.config.MaxReadFailures)
				return events, nil
			}
			consecutiveFailures++
			t.metrics.readFailures.Add(1)
			t.skipFrame(capture)
			t.logger.Warn("Frame read failed, skipping frame",
				"position", int64(capture.Get(gocv.VideoCapturePosFrames)),
				"consecutive_failures", consecutiveFailures,
				"total_read_failures", t.metrics.GetReadFailures())
			continue
		}
		consecutiveFailures = 0
		t.metrics.framesRead.Add(1)

		timestamp := capture.Get(gocv.VideoCapturePosMsec)

		fitted, err := fitFrame(frame, t.config.FramePolicy)
		if err != nil {
			fitted.Close()
			return events, err
		}

		startTime := time.Now()
		var frameEvents []Event
		state, frameEvents = t.ProcessFrame(&fitted, timestamp, state)
		t.metrics.UpdateProcessingTime(time.Since(startTime))
		events = append(events, frameEvents...)

		if err := writer.Write(fitted); err != nil {
			fitted.Close()
			return events, errors.Wrapf(ErrSinkUnavailable, "write frame %d: %v", t.metrics.GetFramesRead(), err)
		}
		t.metrics.framesWritten.Add(1)

		aborted := false
		if window != nil {
			window.IMShow(fitted)
			aborted = window.WaitKey(1)&0xFF == abortKey
		}
		fitted.Close()

		if aborted {
			t.logger.Info("Abort key pressed, writing events collected so far",
				"frames_read", t.metrics.GetFramesRead(),
				"events", len(events))
			return events, nil
		}
	}
}

// endOfStream tells exhaustion apart from a decode failure. Sources that
// do not report a frame count are treated as exhausted.
func (t *Tracker) endOfStream(capture frameSource) bool {
	total := capture.Get(gocv.VideoCaptureFrameCount)
	if total <= 0 {
		return true
	}
	return capture.Get(gocv.VideoCapturePosFrames) >= total
}

// skipFrame moves the source past an undecodable frame.
func (t *Tracker) skipFrame(capture frameSource) {
	pos := capture.Get(gocv.VideoCapturePosFrames)
	capture.Set(gocv.VideoCapturePosFrames, pos+1)
}

// ProcessFrame detects every palette colour in frame, draws the overlays into
// it and returns the updated tracking state together with the events of this
// frame. The incoming state is not modified.
func (t *Tracker) ProcessFrame(frame *gocv.Mat, timestamp float64, state TrackState) (TrackState, []Event) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(*frame, &hsv, gocv.ColorBGRToHSV)

	var events []Event
	for _, c := range t.settings.Palette {
		circles := DetectCircles(hsv, c, t.settings.MinRadius)
		if len(circles) > 1 {
			t.logger.Warn("Several blobs of one colour in frame, last one wins",
				"color", c.Name,
				"blobs", len(circles),
				"timestamp_ms", timestamp)
		}

		for _, circle := range circles {
			t.metrics.ObserveCircle(c.Name, float64(circle.Radius))
			gocv.Circle(frame, circle.Center, int(circle.Radius), circleColor, 2)

			quadrant := t.settings.Quadrants.Locate(circle.Center)

			var emitted []Event
			state, emitted = Transition(state, c.Name, quadrant, timestamp)
			drawLabels(frame, circle.Center, emitted)

			for _, e := range emitted {
				t.logger.Debug("Quadrant event",
					"timestamp_ms", e.TimestampMs,
					"quadrant", e.Quadrant.String(),
					"color", e.Color,
					"event", string(e.Kind))
			}
			t.metrics.eventsEmitted.Add(int64(len(emitted)))
			events = append(events, emitted...)
		}
	}
	return state, events
}

// labelText renders an overlay caption such as "Red Exit from Q1 500ms".
func labelText(e Event) string {
	preposition := "at"
	if e.Kind == Exit {
		preposition = "from"
	}
	return fmt.Sprintf("%s %s %s Q%s %.0fms", titleCaser.String(e.Color), e.Kind, preposition, e.Quadrant, e.TimestampMs)
}

// drawLabels writes the captions for a transition next to the circle: the
// first caption above the centre, an Entry following an Exit below it.
func drawLabels(frame *gocv.Mat, center image.Point, emitted []Event) {
	for i, e := range emitted {
		org := image.Pt(center.X, center.Y-10)
		if i > 0 {
			org = image.Pt(center.X, center.Y+10)
		}
		gocv.PutText(frame, labelText(e), org, gocv.FontHersheySimplex, 0.5, labelColor, 2)
	}
}
