package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort         = 9283
	DefaultMaxBodyBytes = 10 << 20
	DefaultLogFile      = "sample.log"
	DefaultDelay        = 1000 * time.Millisecond
)

type Responder struct {
	Port int
	// RawBodies captures every request body as text, ignoring Content-Type.
	RawBodies    bool
	MaxBodyBytes int64
	LogLevel     slog.Level
}

func (r *Responder) Addr() string {
	return fmt.Sprintf(":%d", r.Port)
}

type Replayer struct {
	LogFile  string
	Delay    time.Duration
	LogLevel slog.Level
}

// LoadResponder reads PORT, BODY_CAPTURE, MAX_BODY_BYTES and LOG_LEVEL.
func LoadResponder() (*Responder, error) {
	_ = godotenv.Load()

	level, err := logLevel()
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(getEnv("PORT", strconv.Itoa(DefaultPort)))
	if err != nil {
		return nil, fmt.Errorf("PORT must be an integer: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}

	var raw bool
	switch capture := getEnv("BODY_CAPTURE", "raw"); capture {
	case "raw":
		raw = true
	case "typed":
		raw = false
	default:
		return nil, fmt.Errorf("BODY_CAPTURE must be raw or typed, got %q", capture)
	}

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", strconv.Itoa(DefaultMaxBodyBytes)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be an integer: %w", err)
	}
	if maxBody <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", maxBody)
	}

	return &Responder{
		Port:         port,
		RawBodies:    raw,
		MaxBodyBytes: maxBody,
		LogLevel:     level,
	}, nil
}

// LoadReplayer reads LOG_FILE, DELAY_MS and LOG_LEVEL. A DELAY_MS that is not
// a non-negative integer is an error rather than a silent default.
func LoadReplayer() (*Replayer, error) {
	_ = godotenv.Load()

	level, err := logLevel()
	if err != nil {
		return nil, err
	}

	logFile := getEnv("LOG_FILE", DefaultLogFile)
	if logFile == "" {
		return nil, fmt.Errorf("LOG_FILE must not be empty")
	}

	delay := DefaultDelay
	if v, ok := os.LookupEnv("DELAY_MS"); ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("DELAY_MS must be an integer number of milliseconds: %w", err)
		}
		if ms < 0 {
			return nil, fmt.Errorf("DELAY_MS must not be negative, got %d", ms)
		}
		delay = time.Duration(ms) * time.Millisecond
	}

	return &Replayer{
		LogFile:  logFile,
		Delay:    delay,
		LogLevel: level,
	}, nil
}

func logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return level, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// SetupLogging installs a text handler on w as the default slog logger.
func SetupLogging(w io.Writer, level slog.Level) {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
