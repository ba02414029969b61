package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "AUTHGATE_"

// Config carries the client wiring options. Values come from defaults, an
// optional .env file, and AUTHGATE_-prefixed environment variables, in that
// order of precedence.
type Config struct {
	// APIBaseURL is the backend the client talks to.
	APIBaseURL string

	// LoginPath and DefaultPath are the guard/pipeline redirect destinations.
	LoginPath   string
	DefaultPath string

	// StorePath is the session file location. RedisURL, when set, switches
	// the session store and the event transport to Redis.
	StorePath string
	RedisURL  string

	// ChallengeMode selects the verification strategy: "puzzle" or
	// "delegated".
	ChallengeMode  string
	CaptchaPath    string
	VerifierURL    string
	VerifierAction string

	AllowCustomCode bool

	// ListenAddr is where the stub backend serves.
	ListenAddr string
}

// Load reads configuration, layering envFile (when present) and environment
// variables over the defaults.
func Load(envFile string) (*Config, error) {
	k := koanf.New(".")

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := k.Load(file.Provider(envFile), dotenv.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(s, envPrefix)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{
		APIBaseURL:     "http://localhost:8080",
		LoginPath:      "/login",
		DefaultPath:    "/",
		StorePath:      DefaultStorePath(),
		ChallengeMode:  "puzzle",
		CaptchaPath:    "/api/captcha",
		VerifierAction: "shorten",
		ListenAddr:     ":8080",
	}

	set := func(dst *string, key string) {
		if v := k.String(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.APIBaseURL, "API_BASE_URL")
	set(&cfg.LoginPath, "LOGIN_PATH")
	set(&cfg.DefaultPath, "DEFAULT_PATH")
	set(&cfg.StorePath, "STORE_PATH")
	set(&cfg.RedisURL, "REDIS_URL")
	set(&cfg.ChallengeMode, "CHALLENGE_MODE")
	set(&cfg.CaptchaPath, "CAPTCHA_PATH")
	set(&cfg.VerifierURL, "VERIFIER_URL")
	set(&cfg.VerifierAction, "VERIFIER_ACTION")
	set(&cfg.ListenAddr, "LISTEN_ADDR")

	if k.Exists("ALLOW_CUSTOM_CODE") {
		cfg.AllowCustomCode = k.Bool("ALLOW_CUSTOM_CODE")
	}

	return cfg, nil
}

// DefaultStorePath places the session file under the user's config
// directory, falling back to the working directory when that is unknown.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".authgate-session.json"
	}

	return filepath.Join(dir, "authgate", "session.json")
}
