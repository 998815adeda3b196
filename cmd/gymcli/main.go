package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/2beens/gymclient/internal/app"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/config"
	"github.com/2beens/gymclient/internal/logging"
	"github.com/2beens/gymclient/internal/telemetry/metrics"
	"github.com/2beens/gymclient/internal/telemetry/tracing"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with secrets")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %s\n", *envFile, err)
	}

	os.Exit(run(*env, *configPath, flag.Args()))
}

func run(env, configPath string, args []string) int {
	cfg, err := loadConfig(env, configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if apiURL := os.Getenv("GYM_API_URL"); apiURL != "" {
		cfg.ApiBaseURL = strings.TrimRight(apiURL, "/")
	}

	flushLogs, err := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "gymcli",
	})
	if err != nil {
		log.Errorf("logging setup: %s", err)
	}
	defer flushLogs()
	log.Debugf("running in [%s] environment against %s", cfg.Environment, cfg.ApiBaseURL)

	honeycombEnabled := cfg.TracingEnabled || os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled && os.Getenv("HONEYCOMB_API_KEY") == "" {
		log.Warnln("HONEYCOMB_API_KEY env var not set")
	}
	otelShutdown, err := tracing.HoneycombSetup(honeycombEnabled, "gymcli")
	if err != nil {
		log.Errorf("tracing setup: %s", err)
		otelShutdown = func() {}
	}
	defer otelShutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, app.Params{
		Config:        cfg,
		StoreKey:      os.Getenv("GYM_STORE_KEY"),
		RedisPassword: os.Getenv("GYM_REDIS_PASS"),
		SessionScope:  sessionScope(),
	})
	if err != nil {
		log.Errorf("new app: %s", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsFile, a.PromRegistry); err != nil {
			log.Errorf("metrics: %s", err)
		}
		if err := a.Close(); err != nil {
			log.Errorf("close app: %s", err)
		}
	}()

	c := &cli{
		app:    a,
		out:    os.Stdout,
		prompt: promptPassword,
	}
	if err := c.run(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			if len(args) == 0 {
				usage(os.Stderr)
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			return 2
		}
		fmt.Fprintln(os.Stderr, apperrors.Message(err))
		return 1
	}
	return 0
}

// sessionScope ties a non-remembered session to the shell the commands are
// run from. GYM_SESSION overrides it, e.g. for scripts.
func sessionScope() string {
	if scope := os.Getenv("GYM_SESSION"); scope != "" {
		return scope
	}
	return "ppid-" + strconv.Itoa(os.Getppid())
}

// loadConfig falls back to the defaults when no config file exists.
func loadConfig(env, path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := config.Default()
		cfg.Environment = strings.ToLower(env)
		return cfg, nil
	}
	return config.Load(env, path)
}

// promptPassword prefers GYM_PASSWORD, then reads from the terminal without
// echo, then from a piped stdin.
func promptPassword(label string) (string, error) {
	if password := os.Getenv("GYM_PASSWORD"); password != "" {
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, label)
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(password), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", apperrors.Validation("La contraseña es obligatoria")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
