package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/2beens/gymclient/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestGetLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"DEBUG":   logrus.DebugLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"info":    logrus.InfoLevel,
		"trace":   logrus.TraceLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"":        logrus.InfoLevel,
		"chatty":  logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, GetLevel(in), in)
	}
}

func TestSentryHook_Levels(t *testing.T) {
	levels := []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel}
	hook := NewSentryHook(levels)
	assert.Equal(t, levels, hook.Levels())

	// no client bound to the hub, capture is a no-op
	assert.NoError(t, hook.Fire(&logrus.Entry{
		Level:   logrus.ErrorLevel,
		Message: "storage write failed",
		Data:    logrus.Fields{"tier": "durable"},
	}))
}

func TestSentryLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.PanicLevel))
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.FatalLevel))
	assert.Equal(t, sentry.LevelError, sentryLevel(logrus.ErrorLevel))
	assert.Equal(t, sentry.LevelWarning, sentryLevel(logrus.WarnLevel))
	assert.Equal(t, sentry.LevelInfo, sentryLevel(logrus.InfoLevel))
	assert.Equal(t, sentry.LevelDebug, sentryLevel(logrus.TraceLevel))
}

func TestLogOutput(t *testing.T) {
	out, err := logOutput("", true)
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, out)

	dir := filepath.Join(t.TempDir(), "logs", "cli")
	out, err = logOutput(filepath.Join(dir, "gymcli"), false)
	require.NoError(t, err)
	rotated, ok := out.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "gymcli.log"), rotated.Filename)
	assert.DirExists(t, dir)

	out, err = logOutput(filepath.Join(dir, "gymcli.log"), true)
	require.NoError(t, err)
	assert.IsType(t, &pkg.CombinedWriter{}, out)
}

func TestSetup_WithoutSentry(t *testing.T) {
	defer func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	}()

	flush, err := Setup(LoggerSetupParams{
		LogLevel:      "debug",
		SentryEnabled: true,
	})
	require.NoError(t, err)
	require.NotNil(t, flush)
	flush()
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}
