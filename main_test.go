package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *Config
		wantErr bool
	}{
		{
			name: "defaults",
			args: nil,
			want: &Config{
				Input:           "Assign.mp4",
				OutputVideo:     "processed_video.avi",
				OutputLog:       "event_log.txt",
				FramePolicy:     PolicyLetterbox,
				MaxReadFailures: 0,
				LogFormat:       "json",
				LogLevel:        slog.LevelInfo,
			},
		},
		{
			name: "valid config with all options",
			args: []string{
				"-input", "balls.mp4",
				"-output-video", "out.avi",
				"-output-log", "events.txt",
				"-config", "colors.yaml",
				"-frame-policy", "reject",
				"-display",
				"-max-read-failures", "3",
				"-logfmt", "kv",
				"-loglevel", "debug",
			},
			want: &Config{
				Input:           "balls.mp4",
				OutputVideo:     "out.avi",
				OutputLog:       "events.txt",
				SettingsPath:    "colors.yaml",
				FramePolicy:     PolicyReject,
				Display:         true,
				MaxReadFailures: 3,
				LogFormat:       "kv",
				LogLevel:        slog.LevelDebug,
			},
		},
		{
			name:    "empty input",
			args:    []string{"-input", ""},
			wantErr: true,
		},
		{
			name:    "empty output log",
			args:    []string{"-output-log", ""},
			wantErr: true,
		},
		{
			name:    "invalid frame policy",
			args:    []string{"-frame-policy", "crop"},
			wantErr: true,
		},
		{
			name:    "negative read failures",
			args:    []string{"-max-read-failures", "-1"},
			wantErr: true,
		},
		{
			name:    "invalid log format",
			args:    []string{"-logfmt", "invalid"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			args:    []string{"-loglevel", "loud"},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			args:    []string{"-word", "test"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlagsValidationErrorsAreInvalidSettings(t *testing.T) {
	_, err := parseFlags([]string{"-frame-policy", "crop"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{
			name:   "json logger",
			format: "json",
			want:   `"msg":"hello"`,
		},
		{
			name:   "kv logger",
			format: "kv",
			want:   "msg=hello",
		},
		{
			name:   "default to json",
			format: "invalid",
			want:   `"msg":"hello"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := setupLogger(tt.format, slog.LevelInfo, &buf)
			require.NotNil(t, logger)

			logger.Debug("hidden")
			logger.Info("hello")
			assert.Contains(t, buf.String(), tt.want)
			assert.NotContains(t, buf.String(), "hidden")
		})
	}
}

func TestLoadSettingsFromConfig(t *testing.T) {
	t.Run("no settings file", func(t *testing.T) {
		s, err := loadSettings(&Config{})
		require.NoError(t, err)
		assert.Equal(t, DefaultSettings(), s)
	})

	t.Run("settings file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		require.NoError(t, os.WriteFile(path, []byte("min_radius: 4\n"), 0o644))

		s, err := loadSettings(&Config{SettingsPath: path})
		require.NoError(t, err)
		assert.Equal(t, 4.0, s.MinRadius)
	})

	t.Run("missing settings file", func(t *testing.T) {
		_, err := loadSettings(&Config{SettingsPath: filepath.Join(t.TempDir(), "nope.yaml")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSettings))
		assert.True(t, strings.Contains(err.Error(), "nope.yaml"))
	})
}
