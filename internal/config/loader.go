package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnv names the variable holding an optional YAML config path.
const FileEnv = "INTERVUEX_CONFIG"

const envPrefix = "INTERVUEX_"

// wellKnown maps conventional unprefixed variables onto config keys.
var wellKnown = map[string]string{
	"DATABASE_URL":     "database.url",
	"REDIS_ADDR":       "redis.addr",
	"GEMINI_API_KEY":   "llm.api_key",
	"DEEPGRAM_API_KEY": "speech.api_key",
	"JWT_SECRET":       "auth.jwt_secret",
	"JAAS_APP_ID":      "meeting.app_id",
	"JAAS_KEY_ID":      "meeting.key_id",
	"JAAS_PRIVATE_KEY": "meeting.private_key",
	"SENTIMENT_URL":    "stream.url",
	"PORT":             "server.addr",
}

// Load builds a Config by layering, from low to high precedence:
//  1. Default()
//  2. the YAML file named by INTERVUEX_CONFIG, if set
//  3. INTERVUEX_ variables, with "__" separating nested keys (INTERVUEX_SERVER__ADDR)
//  4. well-known unprefixed variables such as DATABASE_URL and GEMINI_API_KEY
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	for name, key := range wellKnown {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if name == "PORT" && !strings.Contains(v, ":") {
			v = ":" + v
		}
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	// PEM keys arrive through env with escaped newlines.
	cfg.Meeting.PrivateKey = strings.ReplaceAll(cfg.Meeting.PrivateKey, `\n`, "\n")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
