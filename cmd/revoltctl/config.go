package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"ex-revolt/internal/rest"
	"ex-revolt/pkg/revolt"
)

const (
	envConfigFile           = "REVOLT_CONFIG_FILE"
	envBotToken             = "REVOLT_BOT_TOKEN"
	defaultConfigFilePath   = "config/revoltctl.json"
	alternateConfigFilePath = "bin/config/revoltctl.json"

	defaultAPIURL           = "https://api.revolt.chat"
	defaultWebsocketURL     = "wss://ws.revolt.chat"
	defaultPingInterval     = 30 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultHTTPTimeout      = 30 * time.Second
	defaultMaxEntries       = 10000
)

// Cache backends selectable in the config file.
const (
	cacheTypeNone   = "none"
	cacheTypeMemory = "memory"
	cacheTypeSQLite = "sqlite"
)

type appConfig struct {
	logLevel slog.Level

	apiURL      string
	wsURL       string
	credentials rest.Credentials

	cacheType       string
	cachePath       string
	cacheMaxEntries int
	cacheTTL        time.Duration

	pingInterval     time.Duration
	handshakeTimeout time.Duration
	strictDecode     bool
	strictOrphans    bool

	httpTimeout time.Duration
}

type fileConfig struct {
	LogLevel string             `json:"log_level"`
	APIURL   string             `json:"api_url"`
	WSURL    string             `json:"ws_url"`
	Auth     fileAuthConfig     `json:"auth"`
	Cache    fileCacheConfig    `json:"cache"`
	Gateway  fileGatewayConfig  `json:"gateway"`
	HTTP     fileHTTPConfig     `json:"http"`
	Dispatch fileDispatchConfig `json:"dispatch"`
}

type fileAuthConfig struct {
	BotToken     string `json:"bot_token"`
	UserID       string `json:"user_id"`
	SessionToken string `json:"session_token"`
}

type fileCacheConfig struct {
	Type       string `json:"type"`
	Path       string `json:"path"`
	MaxEntries *int   `json:"max_entries"`
	TTL        string `json:"ttl"`
}

type fileGatewayConfig struct {
	PingInterval     string `json:"ping_interval"`
	HandshakeTimeout string `json:"handshake_timeout"`
	StrictDecode     bool   `json:"strict_decode"`
}

type fileHTTPConfig struct {
	Timeout string `json:"timeout"`
}

type fileDispatchConfig struct {
	StrictOrphans bool `json:"strict_orphans"`
}

func loadConfig(flagPath string) (appConfig, error) {
	cfg := defaultAppConfig()
	configFile, err := resolveConfigFilePath(flagPath)
	if err != nil {
		return appConfig{}, err
	}

	if err := applyConfigFile(&cfg, configFile); err != nil {
		return appConfig{}, err
	}
	if token := strings.TrimSpace(os.Getenv(envBotToken)); token != "" {
		cfg.credentials = rest.Credentials{BotToken: token}
	}
	if err := validateAppConfig(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("validate config file %s: %w", configFile, err)
	}

	return cfg, nil
}

func resolveConfigFilePath(flagPath string) (string, error) {
	if configFile := strings.TrimSpace(flagPath); configFile != "" {
		return configFile, nil
	}
	if configFile := strings.TrimSpace(os.Getenv(envConfigFile)); configFile != "" {
		return configFile, nil
	}

	candidates := []string{defaultConfigFilePath, alternateConfigFilePath}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config file %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat config file %s: %w", candidate, err)
		}
	}

	return "", fmt.Errorf(
		"config file not found; create %s or %s, pass --config, or set %s",
		defaultConfigFilePath,
		alternateConfigFilePath,
		envConfigFile,
	)
}

func defaultAppConfig() appConfig {
	return appConfig{
		logLevel: slog.LevelInfo,

		apiURL: defaultAPIURL,
		wsURL:  defaultWebsocketURL,

		cacheType:       cacheTypeMemory,
		cacheMaxEntries: defaultMaxEntries,

		pingInterval:     defaultPingInterval,
		handshakeTimeout: defaultHandshakeTimeout,

		httpTimeout: defaultHTTPTimeout,
	}
}

func applyConfigFile(cfg *appConfig, path string) error {
	if cfg == nil {
		return fmt.Errorf("apply config file: nil config")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed fileConfig
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if rawLevel := strings.TrimSpace(parsed.LogLevel); rawLevel != "" {
		level, err := parseLogLevel(rawLevel)
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.logLevel = level
	}
	if rawURL := strings.TrimSpace(parsed.APIURL); rawURL != "" {
		cfg.apiURL = rawURL
	}
	if rawURL := strings.TrimSpace(parsed.WSURL); rawURL != "" {
		cfg.wsURL = rawURL
	}

	cfg.credentials = rest.Credentials{
		BotToken:     strings.TrimSpace(parsed.Auth.BotToken),
		UserID:       revolt.UserID(strings.TrimSpace(parsed.Auth.UserID)),
		SessionToken: strings.TrimSpace(parsed.Auth.SessionToken),
	}

	if rawType := strings.TrimSpace(parsed.Cache.Type); rawType != "" {
		cfg.cacheType = strings.ToLower(rawType)
	}
	cfg.cachePath = strings.TrimSpace(parsed.Cache.Path)
	if parsed.Cache.MaxEntries != nil {
		if *parsed.Cache.MaxEntries <= 0 {
			return fmt.Errorf("parse cache.max_entries: must be > 0")
		}
		cfg.cacheMaxEntries = *parsed.Cache.MaxEntries
	}
	if err := parsePositiveDuration(parsed.Cache.TTL, "cache.ttl", &cfg.cacheTTL); err != nil {
		return err
	}

	if err := parsePositiveDuration(parsed.Gateway.PingInterval, "gateway.ping_interval", &cfg.pingInterval); err != nil {
		return err
	}
	if err := parsePositiveDuration(parsed.Gateway.HandshakeTimeout, "gateway.handshake_timeout", &cfg.handshakeTimeout); err != nil {
		return err
	}
	cfg.strictDecode = parsed.Gateway.StrictDecode
	cfg.strictOrphans = parsed.Dispatch.StrictOrphans

	if err := parsePositiveDuration(parsed.HTTP.Timeout, "http.timeout", &cfg.httpTimeout); err != nil {
		return err
	}

	return nil
}

func parsePositiveDuration(raw string, field string, target *time.Duration) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("parse %s: must be > 0", field)
	}
	*target = parsed

	return nil
}

func validateAppConfig(cfg *appConfig) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := cfg.credentials.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := validateURL(cfg.apiURL, "api_url", "http", "https"); err != nil {
		return err
	}
	if err := validateURL(cfg.wsURL, "ws_url", "ws", "wss"); err != nil {
		return err
	}

	switch cfg.cacheType {
	case cacheTypeNone, cacheTypeMemory:
	case cacheTypeSQLite:
		if cfg.cachePath == "" {
			return fmt.Errorf("cache.path is required for sqlite cache")
		}
	default:
		return fmt.Errorf("cache.type: unsupported %q", cfg.cacheType)
	}

	return nil
}

func validateURL(raw string, field string, schemes ...string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme && parsed.Host != "" {
			return nil
		}
	}

	return fmt.Errorf("%s: want %s url, got %q", field, strings.Join(schemes, " or "), raw)
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported level %q", raw)
	}
}
