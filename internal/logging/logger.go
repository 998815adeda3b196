package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/gymclient/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const sentryFlushTimeout = 2 * time.Second

type LoggerSetupParams struct {
	// LogFileName empty means logs go to stderr only.
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logger. The returned func flushes pending
// sentry events and should run before the process exits.
func Setup(params LoggerSetupParams) (func(), error) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: params.LogFileName == "",
		})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	out, err := logOutput(params.LogFileName, params.LogToStdout)
	if err != nil {
		logrus.SetOutput(os.Stderr)
		return func() {}, err
	}
	logrus.SetOutput(out)

	if !params.SentryEnabled || params.SentryDSN == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Environment: params.Environment,
		Dsn:         params.SentryDSN,
		ServerName:  params.SentryServerName,
	}); err != nil {
		return func() {}, fmt.Errorf("sentry init: %w", err)
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Debugln("sentry hook added")

	return func() {
		sentry.Flush(sentryFlushTimeout)
	}, nil
}

// logOutput keeps stdout free: it belongs to the command output.
func logOutput(fileName string, alsoStderr bool) (io.Writer, error) {
	if fileName == "" {
		return os.Stderr, nil
	}
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}
	if err := pkg.EnsureDir(filepath.Dir(fileName)); err != nil {
		return nil, err
	}

	rotated := &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		Compress:   true,
	}
	if alsoStderr {
		return pkg.NewCombinedWriter(os.Stderr, rotated), nil
	}
	return rotated, nil
}

func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "trace":
		return logrus.TraceLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}
