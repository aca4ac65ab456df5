package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL        = "http://localhost:8000"
	APIURLEnvVar         = "PERSONA_API_URL"
	StorePathEnvVar      = "STORE_PATH"
	EnvFileEnvVar        = "LEARNING_PERSONA_ENV"
	CaptureFormatJPEG    = "jpeg"
	CaptureFormatPNG     = "png"
	defaultTimeoutSec    = 60
	defaultJPEGQuality   = 90
	defaultViewportW     = 800
	defaultViewportH     = 600
	defaultRenderDPI     = 110
	defaultPdftoppmPath  = "pdftoppm"
	defaultStoreFileName = "flags.yaml"
)

type LoadOptions struct {
	APIURLOverride    string
	StorePathOverride string
}

type Config struct {
	APIURL            string
	StorePath         string
	EnableFileLogging bool
	RequestTimeoutSec int
	CaptureFormat     string
	JPEGQuality       int
	ViewportWidth     int
	ViewportHeight    int
	RenderDPI         int
	PdftoppmPath      string
	// Study viewer shortcuts, e.g. "Ctrl+Enter".
	SubmitHotkey   string
	FullAreaHotkey string
	ClearHotkey    string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the executable directory
	// 2) otherwise the file named by LEARNING_PERSONA_ENV
	// Process environment wins over both; flag overrides win over everything.
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		APIURL:            resolveAPIURL(opts),
		StorePath:         resolveStorePath(opts),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		RequestTimeoutSec: positiveIntEnv("REQUEST_TIMEOUT_SEC", defaultTimeoutSec),
		CaptureFormat:     resolveCaptureFormat(os.Getenv("CAPTURE_FORMAT")),
		JPEGQuality:       clampQuality(positiveIntEnv("JPEG_QUALITY", defaultJPEGQuality)),
		ViewportWidth:     positiveIntEnv("VIEWPORT_WIDTH", defaultViewportW),
		ViewportHeight:    positiveIntEnv("VIEWPORT_HEIGHT", defaultViewportH),
		RenderDPI:         positiveIntEnv("RENDER_DPI", defaultRenderDPI),
		PdftoppmPath:      getEnvWithDefault("PDFTOPPM_PATH", defaultPdftoppmPath),
		SubmitHotkey:      getEnvWithDefault("SUBMIT_HOTKEY", "Ctrl+Enter"),
		FullAreaHotkey:    getEnvWithDefault("FULL_AREA_HOTKEY", "Ctrl+A"),
		ClearHotkey:       getEnvWithDefault("CLEAR_HOTKEY", "Escape"),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolveAPIURL(opts LoadOptions) string {
	url := DefaultAPIURL
	if v := strings.TrimSpace(os.Getenv(APIURLEnvVar)); v != "" {
		url = v
	}
	if v := strings.TrimSpace(opts.APIURLOverride); v != "" {
		url = v
	}
	return strings.TrimRight(url, "/")
}

func resolveStorePath(opts LoadOptions) string {
	if v := strings.TrimSpace(opts.StorePathOverride); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(StorePathEnvVar)); v != "" {
		return v
	}
	return DefaultStorePath()
}

// DefaultStorePath is the per-user flag file location.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "learning-persona", defaultStoreFileName)
}

func resolveCaptureFormat(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case CaptureFormatPNG:
		return CaptureFormatPNG
	default:
		return CaptureFormatJPEG
	}
}

func positiveIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func clampQuality(q int) int {
	if q > 100 {
		return 100
	}
	return q
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
