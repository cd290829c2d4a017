package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ex-revolt/internal/rest"
)

func writeConfigFile(t *testing.T, path string, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "warning", input: "WARNING", want: slog.LevelWarn},
		{name: "error", input: " error ", want: slog.LevelError},
		{name: "invalid", input: "trace", wantErr: true},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseLogLevel(testCase.input)
			if testCase.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != testCase.want {
				t.Fatalf("level = %v, want %v", got, testCase.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads all supported fields from config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "revoltctl.json")
		writeConfigFile(t, configPath, `{
			"log_level":"warn",
			"api_url":"https://api.example.test",
			"ws_url":"wss://ws.example.test",
			"auth":{"user_id":"01HUSER","session_token":"session"},
			"cache":{"type":"SQLite","path":"state/cache.db","max_entries":50,"ttl":"2h"},
			"gateway":{"ping_interval":"15s","handshake_timeout":"3s","strict_decode":true},
			"http":{"timeout":"9s"},
			"dispatch":{"strict_orphans":true}
		}`)
		t.Setenv(envBotToken, "")

		cfg, err := loadConfig(configPath)
		if err != nil {
			t.Fatalf("load config failed: %v", err)
		}

		if cfg.logLevel != slog.LevelWarn {
			t.Fatalf("log level = %v, want %v", cfg.logLevel, slog.LevelWarn)
		}
		if cfg.apiURL != "https://api.example.test" || cfg.wsURL != "wss://ws.example.test" {
			t.Fatalf("urls = %q %q, want example hosts", cfg.apiURL, cfg.wsURL)
		}
		wantCredentials := rest.Credentials{UserID: "01HUSER", SessionToken: "session"}
		if cfg.credentials != wantCredentials {
			t.Fatalf("credentials = %+v, want %+v", cfg.credentials, wantCredentials)
		}
		if cfg.cacheType != cacheTypeSQLite || cfg.cachePath != "state/cache.db" {
			t.Fatalf("cache = %s %q, want sqlite state/cache.db", cfg.cacheType, cfg.cachePath)
		}
		if cfg.cacheMaxEntries != 50 {
			t.Fatalf("cache max entries = %d, want 50", cfg.cacheMaxEntries)
		}
		if cfg.cacheTTL != 2*time.Hour {
			t.Fatalf("cache ttl = %s, want 2h", cfg.cacheTTL)
		}
		if cfg.pingInterval != 15*time.Second || cfg.handshakeTimeout != 3*time.Second {
			t.Fatalf("gateway timings = %s %s, want 15s 3s", cfg.pingInterval, cfg.handshakeTimeout)
		}
		if !cfg.strictDecode || !cfg.strictOrphans {
			t.Fatalf("strict flags = %v %v, want true true", cfg.strictDecode, cfg.strictOrphans)
		}
		if cfg.httpTimeout != 9*time.Second {
			t.Fatalf("http timeout = %s, want 9s", cfg.httpTimeout)
		}
	})

	t.Run("applies defaults for omitted fields", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "revoltctl.json")
		writeConfigFile(t, configPath, `{"auth":{"bot_token":"bot"}}`)
		t.Setenv(envBotToken, "")

		cfg, err := loadConfig(configPath)
		if err != nil {
			t.Fatalf("load config failed: %v", err)
		}

		want := defaultAppConfig()
		want.credentials = rest.Credentials{BotToken: "bot"}
		if cfg != want {
			t.Fatalf("config = %+v, want %+v", cfg, want)
		}
	})

	t.Run("environment token overrides file credentials", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "revoltctl.json")
		writeConfigFile(t, configPath, `{"auth":{"user_id":"u","session_token":"s"}}`)
		t.Setenv(envBotToken, "from-env")

		cfg, err := loadConfig(configPath)
		if err != nil {
			t.Fatalf("load config failed: %v", err)
		}
		if cfg.credentials != (rest.Credentials{BotToken: "from-env"}) {
			t.Fatalf("credentials = %+v, want env bot token", cfg.credentials)
		}
	})

	t.Run("config path falls back to environment", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.json")
		writeConfigFile(t, configPath, `{"auth":{"bot_token":"bot"},"log_level":"debug"}`)
		t.Setenv(envConfigFile, configPath)
		t.Setenv(envBotToken, "")

		cfg, err := loadConfig("")
		if err != nil {
			t.Fatalf("load config failed: %v", err)
		}
		if cfg.logLevel != slog.LevelDebug {
			t.Fatalf("log level = %v, want debug", cfg.logLevel)
		}
	})
}

func TestLoadConfigRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name      string
		contents  string
		wantInErr string
	}{
		{name: "malformed json", contents: `{`, wantInErr: "parse config file"},
		{name: "bad log level", contents: `{"log_level":"loud","auth":{"bot_token":"b"}}`, wantInErr: "log_level"},
		{name: "missing credentials", contents: `{}`, wantInErr: "no credentials"},
		{name: "mixed credentials", contents: `{"auth":{"bot_token":"b","user_id":"u","session_token":"s"}}`, wantInErr: "mutually exclusive"},
		{name: "partial session", contents: `{"auth":{"user_id":"u"}}`, wantInErr: "session requires"},
		{name: "bad api url", contents: `{"api_url":"ftp://x","auth":{"bot_token":"b"}}`, wantInErr: "api_url"},
		{name: "bad ws url", contents: `{"ws_url":"https://x","auth":{"bot_token":"b"}}`, wantInErr: "ws_url"},
		{name: "unknown cache", contents: `{"cache":{"type":"redis"},"auth":{"bot_token":"b"}}`, wantInErr: "cache.type"},
		{name: "sqlite without path", contents: `{"cache":{"type":"sqlite"},"auth":{"bot_token":"b"}}`, wantInErr: "cache.path"},
		{name: "zero max entries", contents: `{"cache":{"max_entries":0},"auth":{"bot_token":"b"}}`, wantInErr: "cache.max_entries"},
		{name: "negative ttl", contents: `{"cache":{"ttl":"-1s"},"auth":{"bot_token":"b"}}`, wantInErr: "cache.ttl"},
		{name: "bad ping interval", contents: `{"gateway":{"ping_interval":"often"},"auth":{"bot_token":"b"}}`, wantInErr: "gateway.ping_interval"},
		{name: "bad http timeout", contents: `{"http":{"timeout":"0s"},"auth":{"bot_token":"b"}}`, wantInErr: "http.timeout"},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "revoltctl.json")
			writeConfigFile(t, configPath, testCase.contents)
			t.Setenv(envBotToken, "")

			_, err := loadConfig(configPath)
			if err == nil || !strings.Contains(err.Error(), testCase.wantInErr) {
				t.Fatalf("load config error = %v, want containing %q", err, testCase.wantInErr)
			}
		})
	}
}

func TestResolveConfigFilePath(t *testing.T) {
	t.Run("flag wins over environment", func(t *testing.T) {
		t.Setenv(envConfigFile, "from-env.json")

		got, err := resolveConfigFilePath("from-flag.json")
		if err != nil {
			t.Fatalf("resolve config path failed: %v", err)
		}
		if got != "from-flag.json" {
			t.Fatalf("path = %q, want from-flag.json", got)
		}
	})

	t.Run("finds default candidate", func(t *testing.T) {
		t.Setenv(envConfigFile, "")
		t.Chdir(t.TempDir())
		writeConfigFile(t, defaultConfigFilePath, `{}`)

		got, err := resolveConfigFilePath("")
		if err != nil {
			t.Fatalf("resolve config path failed: %v", err)
		}
		if got != defaultConfigFilePath {
			t.Fatalf("path = %q, want %q", got, defaultConfigFilePath)
		}
	})

	t.Run("reports missing config", func(t *testing.T) {
		t.Setenv(envConfigFile, "")
		t.Chdir(t.TempDir())

		_, err := resolveConfigFilePath("")
		if err == nil || !strings.Contains(err.Error(), "config file not found") {
			t.Fatalf("error = %v, want config file not found", err)
		}
	})
}
