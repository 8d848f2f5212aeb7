// Package config loads application configuration from environment variables.
package config

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// rawEnv holds raw env values before post-parse validation.
type rawEnv struct {
	ListenAddr     string `env:"PASSWORDS_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	DBPath         string `env:"PASSWORDS_DB_PATH" envDefault:"passwords.db"`
	PersonaURL     string `env:"PASSWORDS_PERSONA_URL"`
	PersonaTimeout string `env:"PASSWORDS_PERSONA_TIMEOUT" envDefault:"5s"`
	JWTPublicKey   string `env:"PASSWORDS_JWT_PUBLIC_KEY"`
	JWTIssuer      string `env:"PASSWORDS_JWT_ISSUER"`
	JWTAudience    string `env:"PASSWORDS_JWT_AUDIENCE"`
	SystemKey      string `env:"PASSWORDS_SYSTEM_KEY"`
	LogLevel       string `env:"PASSWORDS_LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"PASSWORDS_LOG_FORMAT" envDefault:"text"`
}

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr     string
	DBPath         string
	PersonaURL     string
	PersonaTimeout time.Duration
	JWTPublicKey   ed25519.PublicKey
	JWTIssuer      string
	JWTAudience    string
	// SystemKey authenticates trusted internal callers. Empty disables
	// system calls over HTTP.
	SystemKey string
	LogLevel  slog.Level
	LogFormat string
}

// SystemCallsEnabled reports whether a system key is configured.
func (c *Config) SystemCallsEnabled() bool {
	return c.SystemKey != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. PASSWORDS_PERSONA_URL and PASSWORDS_JWT_PUBLIC_KEY are required;
// everything else has a default.
func Load() (*Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return fromRaw(raw)
}

// LoadStorage reads only the settings needed to open the database, for
// commands that never serve calls.
func LoadStorage() (*Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	dbPath := strings.TrimSpace(raw.DBPath)
	if dbPath == "" {
		return nil, errors.New("PASSWORDS_DB_PATH must not be empty")
	}
	level, err := parseLevel(raw.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(raw.LogFormat)
	if err != nil {
		return nil, err
	}
	return &Config{DBPath: dbPath, LogLevel: level, LogFormat: format}, nil
}

func fromRaw(raw rawEnv) (*Config, error) {
	listenAddr := strings.TrimSpace(raw.ListenAddr)
	if listenAddr == "" {
		return nil, errors.New("PASSWORDS_LISTEN_ADDR must not be empty")
	}

	dbPath := strings.TrimSpace(raw.DBPath)
	if dbPath == "" {
		return nil, errors.New("PASSWORDS_DB_PATH must not be empty")
	}

	personaURL := strings.TrimSpace(raw.PersonaURL)
	if personaURL == "" {
		return nil, errors.New("PASSWORDS_PERSONA_URL is required")
	}
	parsed, err := url.Parse(personaURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("PASSWORDS_PERSONA_URL must be an absolute http(s) URL, got %q", personaURL)
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(raw.PersonaTimeout))
	if err != nil {
		return nil, fmt.Errorf("PASSWORDS_PERSONA_TIMEOUT has invalid duration %q: %w", raw.PersonaTimeout, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("PASSWORDS_PERSONA_TIMEOUT must be positive, got %s", timeout)
	}

	publicKey := strings.TrimSpace(raw.JWTPublicKey)
	if publicKey == "" {
		return nil, errors.New("PASSWORDS_JWT_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return nil, fmt.Errorf("decode PASSWORDS_JWT_PUBLIC_KEY: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("PASSWORDS_JWT_PUBLIC_KEY must be %d bytes, got %d", ed25519.PublicKeySize, len(keyBytes))
	}

	level, err := parseLevel(raw.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(raw.LogFormat)
	if err != nil {
		return nil, err
	}

	return &Config{
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		PersonaURL:     strings.TrimRight(personaURL, "/"),
		PersonaTimeout: timeout,
		JWTPublicKey:   ed25519.PublicKey(keyBytes),
		JWTIssuer:      strings.TrimSpace(raw.JWTIssuer),
		JWTAudience:    strings.TrimSpace(raw.JWTAudience),
		SystemKey:      strings.TrimSpace(raw.SystemKey),
		LogLevel:       level,
		LogFormat:      format,
	}, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("PASSWORDS_LOG_LEVEL has invalid level %q", value)
	}
	return level, nil
}

func parseFormat(value string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(value)); format {
	case LogFormatText, LogFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("PASSWORDS_LOG_FORMAT must be %q or %q, got %q", LogFormatText, LogFormatJSON, value)
	}
}

func decodeBase64(value string) ([]byte, error) {
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
