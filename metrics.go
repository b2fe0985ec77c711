package main

import (
	"log/slog"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"
)

// RunMetrics tracks progress and health of a tracking run.
type RunMetrics struct {
	// framesRead counts frames successfully decoded from the source.
	framesRead atomic.Int64
	// framesWritten counts annotated frames handed to the video sink.
	framesWritten atomic.Int64
	// readFailures counts failed reads that were not end of stream.
	readFailures atomic.Int64
	// eventsEmitted counts Entry and Exit events.
	eventsEmitted atomic.Int64
	// avgProcessingTimeNs is an EMA of per-frame processing time.
	avgProcessingTimeNs atomic.Int64

	// radii holds per colour radius samples, touched only by the frame loop.
	radii map[string]*radiusWindow
}

// maxRadiusSamples caps the radii kept per colour. Summaries over long runs
// describe the most recent samples; the detection count stays exact.
const maxRadiusSamples = 4096

// radiusWindow is a fixed capacity ring of radius samples.
type radiusWindow struct {
	samples []float64
	next    int
	count   int
}

func (w *radiusWindow) add(r float64) {
	w.count++
	if len(w.samples) < maxRadiusSamples {
		w.samples = append(w.samples, r)
		return
	}
	w.samples[w.next] = r
	w.next = (w.next + 1) % maxRadiusSamples
}

// NewRunMetrics returns zeroed metrics.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{radii: make(map[string]*radiusWindow)}
}

// GetFramesRead returns the number of frames decoded.
func (m *RunMetrics) GetFramesRead() int64 {
	return m.framesRead.Load()
}

// GetFramesWritten returns the number of frames written to the output video.
func (m *RunMetrics) GetFramesWritten() int64 {
	return m.framesWritten.Load()
}

// GetReadFailures returns the number of mid-stream read failures.
func (m *RunMetrics) GetReadFailures() int64 {
	return m.readFailures.Load()
}

// GetEventsEmitted returns the number of events recorded.
func (m *RunMetrics) GetEventsEmitted() int64 {
	return m.eventsEmitted.Load()
}

// GetAvgProcessingTimeMs returns the average frame processing time in milliseconds.
func (m *RunMetrics) GetAvgProcessingTimeMs() float64 {
	return float64(m.avgProcessingTimeNs.Load()) / 1e6
}

// UpdateProcessingTime folds a new measurement into the moving average.
func (m *RunMetrics) UpdateProcessingTime(processingTime time.Duration) {
	current := m.avgProcessingTimeNs.Load()
	sample := processingTime.Nanoseconds()
	if current == 0 {
		m.avgProcessingTimeNs.Store(sample)
		return
	}
	// EMA with alpha = 0.1
	m.avgProcessingTimeNs.Store(int64(float64(current)*0.9 + float64(sample)*0.1))
}

// ObserveCircle records the radius of an accepted circle for color.
func (m *RunMetrics) ObserveCircle(color string, radius float64) {
	w, ok := m.radii[color]
	if !ok {
		w = &radiusWindow{}
		m.radii[color] = w
	}
	w.add(radius)
}

// ColorSummary is the radius distribution of one colour's accepted circles.
type ColorSummary struct {
	Color      string
	Detections int
	MeanRadius float64
	StdRadius  float64
}

// Summaries returns one summary per colour in the given order. Colours never
// detected get a zero summary.
func (m *RunMetrics) Summaries(colors []string) []ColorSummary {
	out := make([]ColorSummary, 0, len(colors))
	for _, c := range colors {
		s := ColorSummary{Color: c}
		w, ok := m.radii[c]
		if !ok {
			out = append(out, s)
			continue
		}
		r := w.samples
		s.Detections = w.count
		if len(r) > 0 {
			s.MeanRadius = stat.Mean(r, nil)
		}
		if len(r) > 1 {
			s.StdRadius = stat.StdDev(r, nil)
		}
		out = append(out, s)
	}
	return out
}

// Report logs the final run metrics and the per-colour summaries.
func (m *RunMetrics) Report(logger *slog.Logger, colors []string) {
	logger.Info("Tracking run metrics",
		"frames_read", m.GetFramesRead(),
		"frames_written", m.GetFramesWritten(),
		"read_failures", m.GetReadFailures(),
		"events_emitted", m.GetEventsEmitted(),
		"avg_processing_time_ms", m.GetAvgProcessingTimeMs())

	for _, s := range m.Summaries(colors) {
		if s.Detections == 0 {
			continue
		}
		logger.Info("Colour detections",
			"color", s.Color,
			"detections", s.Detections,
			"mean_radius", s.MeanRadius,
			"std_radius", s.StdRadius)
	}
}
