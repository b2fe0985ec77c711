// Package main implements a ball quadrant tracker CLI that follows coloured
// balls through a video and records when each colour enters or leaves one of
// four screen quadrants.
//
// Every frame is converted to HSV and thresholded once per tracked colour. The
// minimal enclosing circle of each blob decides which quadrant the ball is in.
// Transitions are drawn onto an annotated copy of the video and appended to a
// comma-separated event log, which is also echoed to stdout when the run ends.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
)

// Config holds the application configuration parsed from command-line flags.
type Config struct {
	Input           string
	OutputVideo     string
	OutputLog       string
	SettingsPath    string
	FramePolicy     FramePolicy
	Display         bool
	MaxReadFailures int
	LogFormat       string
	LogLevel        slog.Level
}

// parseFlags parses command-line arguments and returns the application configuration.
func parseFlags(args []string) (*Config, error) {
	// Create a new FlagSet to avoid global flag conflicts in tests
	fs := flag.NewFlagSet("balltrack", flag.ContinueOnError)

	var (
		input        = fs.String("input", "Assign.mp4", "Input video file")
		outputVideo  = fs.String("output-video", "processed_video.avi", "Annotated output video (XVID, 20 fps, 640x480)")
		outputLog    = fs.String("output-log", "event_log.txt", "Event log output file")
		settings     = fs.String("config", "", "Optional YAML file overriding colours, quadrants and minimum radius")
		policy       = fs.String("frame-policy", string(PolicyLetterbox), "How to fit frames that are not 640x480: letterbox, stretch or reject")
		display      = fs.Bool("display", false, "Show frames in a window; press q to stop early")
		readFailures = fs.Int("max-read-failures", 0, "Consecutive mid-stream decode failures to skip before stopping")
		logfmt       = fs.String("logfmt", "json", "Log format: json or kv")
		loglevel     = fs.String("loglevel", "info", "Log level: debug, info, warn or error")
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *input == "" {
		return nil, errors.Wrap(ErrInvalidSettings, "input flag is required")
	}

	if *outputVideo == "" || *outputLog == "" {
		return nil, errors.Wrap(ErrInvalidSettings, "output-video and output-log must not be empty")
	}

	framePolicy, err := ParseFramePolicy(*policy)
	if err != nil {
		return nil, err
	}

	if *readFailures < 0 {
		return nil, errors.Wrap(ErrInvalidSettings, "max-read-failures must not be negative")
	}

	if *logfmt != "json" && *logfmt != "kv" {
		return nil, errors.Wrap(ErrInvalidSettings, "logfmt must be 'json' or 'kv'")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*loglevel)); err != nil {
		return nil, errors.Wrapf(ErrInvalidSettings, "loglevel %q: %v", *loglevel, err)
	}

	return &Config{
		Input:           *input,
		OutputVideo:     *outputVideo,
		OutputLog:       *outputLog,
		SettingsPath:    *settings,
		FramePolicy:     framePolicy,
		Display:         *display,
		MaxReadFailures: *readFailures,
		LogFormat:       *logfmt,
		LogLevel:        level,
	}, nil
}

// setupLogger configures structured logging based on the specified format.
// Logs go to w so that stdout stays reserved for the event echo.
func setupLogger(format string, level slog.Level, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch format {
	case "kv":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// loadSettings returns the built-in settings, or those of the YAML file when one is configured.
func loadSettings(config *Config) (Settings, error) {
	if config.SettingsPath == "" {
		return DefaultSettings(), nil
	}
	return LoadSettings(config.SettingsPath)
}

func main() {
	config, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(config.LogFormat, config.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	settings, err := loadSettings(config)
	if err != nil {
		logger.Error("Failed to load settings", "path", config.SettingsPath, "error", err)
		os.Exit(1)
	}

	logger.Info("Starting ball quadrant tracker",
		"input", config.Input,
		"output_video", config.OutputVideo,
		"output_log", config.OutputLog,
		"settings", config.SettingsPath,
		"colors", settings.Palette.Names(),
		"min_radius", settings.MinRadius,
		"frame_policy", config.FramePolicy,
		"display", config.Display,
		"max_read_failures", config.MaxReadFailures,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Received shutdown signal, stopping...")
		cancel()
	}()

	tracker := NewTracker(config, settings, logger)
	events, err := tracker.Track(ctx, config.Input, config.OutputVideo, config.OutputLog)
	if err != nil {
		logger.Error("Tracking failed", "error", err)
		os.Exit(1)
	}

	if err := EchoEvents(os.Stdout, events); err != nil {
		logger.Error("Failed to print events", "error", err)
		os.Exit(1)
	}

	logger.Info("Ball quadrant tracker stopped", "events", len(events))
}
