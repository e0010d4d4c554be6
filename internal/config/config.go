// Package config handles asciicam configuration
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/GriffinCanCode/asciicam/internal/charset"
	"github.com/GriffinCanCode/asciicam/internal/params"
)

// EnvFileKey names an optional .env file loaded before the environment is read.
const EnvFileKey = "ASCIICAM_ENV_FILE"

const defaultEnvFile = ".env"

type Config struct {
	HTTPAddr          string
	GRPCAddr          string
	LogLevel          string
	RefreshRate       int // Hz
	Source            string
	CameraDevice      int
	DisplayIndex      int
	DefaultResolution int
	DefaultCharSet    string
	DefaultTarget     string
	SkipSimilarFrames bool
	MaxHashDistance   int
	ClipboardEnabled  bool
}

// Load reads the configuration. Values already in the environment win over
// the .env file.
func Load() *Config {
	loadEnvFile()
	return &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:          getEnv("GRPC_ADDR", ":50051"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RefreshRate:       getEnvInt("REFRESH_RATE", 30),
		Source:            getEnv("SOURCE", "screen"),
		CameraDevice:      getEnvInt("CAMERA_DEVICE", 0),
		DisplayIndex:      getEnvInt("DISPLAY_INDEX", 0),
		DefaultResolution: getEnvInt("DEFAULT_RESOLUTION", params.DefaultResolution),
		DefaultCharSet:    getEnv("DEFAULT_CHARSET", string(charset.Standard)),
		DefaultTarget:     getEnv("DEFAULT_TARGET", string(charset.Dark)),
		SkipSimilarFrames: getEnvBool("SKIP_SIMILAR_FRAMES", true),
		MaxHashDistance:   getEnvInt("MAX_HASH_DISTANCE", 0),
		ClipboardEnabled:  getEnvBool("CLIPBOARD_ENABLED", true),
	}
}

func loadEnvFile() {
	path := getEnv(EnvFileKey, defaultEnvFile)
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load env file", "path", path, "error", err)
	}
}

// Params returns the start-up parameters. Out-of-range or unknown values
// fall back the way a slider would.
func (c *Config) Params() params.Params {
	p := params.Default()
	p.Resolution = c.DefaultResolution
	if n, ok := charset.Parse(c.DefaultCharSet); ok {
		p.CharSet = n
	} else {
		slog.Warn("unknown default charset", "charset", c.DefaultCharSet)
	}
	if t, ok := charset.ParseTarget(c.DefaultTarget); ok {
		p.PasteTarget = t
	} else {
		slog.Warn("unknown default paste target", "target", c.DefaultTarget)
	}
	return params.Clamp(p)
}

// Level maps LogLevel onto slog.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
