package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultProviderTimeout    = 10 * time.Second
)

// ErrMissingSetting is returned by Validate when a required setting is empty.
var ErrMissingSetting = errors.New("required setting is missing")

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Provider is the external identity provider (GoTrue / Supabase Auth).
	Provider *ProviderConfig `json:"provider" yaml:"provider"`

	SecretKey struct {
		// JWT is the shared secret the provider signs access tokens with.
		JWT string `json:"jwt" yaml:"jwt"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Telemetry *TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// ProviderConfig points the gateway at the identity provider's REST API.
type ProviderConfig struct {
	URL     string        `json:"url" yaml:"url"`
	AnonKey string        `json:"anonKey" yaml:"anonKey"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// AuthConfig defines token verification and abuse protection settings.
type AuthConfig struct {
	// Audience, when set, must match the token's aud claim.
	Audience string `json:"audience" yaml:"audience"`
	// Leeway is the tolerated clock skew for exp checks.
	Leeway    time.Duration    `json:"leeway" yaml:"leeway"`
	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
}

// RateLimitConfig limits unauthenticated session exchange calls per client IP.
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled" yaml:"enabled"`
	RequestsPerSecond float64       `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int           `json:"burst" yaml:"burst"`
	ExpiresIn         time.Duration `json:"expiresIn" yaml:"expiresIn"`
}

// TelemetryConfig enables OTLP trace export.
type TelemetryConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// legacyEnvAliases maps the variable names used by earlier deployments of the
// gateway onto their config keys. Canonical env keys win when both are set.
var legacyEnvAliases = []struct {
	name  string
	apply func(cfg *Config, value string)
}{
	{"SUPABASE_URL", func(cfg *Config, v string) {
		if cfg.Provider.URL == "" {
			cfg.Provider.URL = v
		}
	}},
	{"SUPABASE_ANON_KEY", func(cfg *Config, v string) {
		if cfg.Provider.AnonKey == "" {
			cfg.Provider.AnonKey = v
		}
	}},
	{"SUPABASE_JWT_SECRET", func(cfg *Config, v string) {
		if cfg.SecretKey.JWT == "" {
			cfg.SecretKey.JWT = v
		}
	}},
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate

			break
		}
	}

	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// PROVIDER_ANONKEY -> provider.anonKey, aligned with the YAML's own keys.
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

// New loads config.yaml, applies environment overrides and refuses to start
// with a half-configured provider client or verifier.
func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	applyLegacyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.Provider == nil {
		cfg.Provider = &ProviderConfig{}
	}
	if cfg.Provider.Timeout <= 0 {
		cfg.Provider.Timeout = defaultProviderTimeout
	}
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
}

func applyLegacyEnv(cfg *Config) {
	for _, alias := range legacyEnvAliases {
		if v := os.Getenv(alias.name); v != "" {
			alias.apply(cfg, v)
		}
	}
}

// Validate checks the settings without which the gateway must not run.
func (cfg *Config) Validate() error {
	if cfg.Provider == nil || strings.TrimSpace(cfg.Provider.URL) == "" {
		return errors.Wrap(ErrMissingSetting, "provider.url")
	}
	if strings.TrimSpace(cfg.Provider.AnonKey) == "" {
		return errors.Wrap(ErrMissingSetting, "provider.anonKey")
	}
	if strings.TrimSpace(cfg.SecretKey.JWT) == "" {
		return errors.Wrap(ErrMissingSetting, "secretKey.jwt")
	}

	u, err := url.Parse(cfg.Provider.URL)
	if err != nil {
		return errors.Wrap(err, "provider.url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("provider.url must be an absolute http(s) URL, got %q", cfg.Provider.URL)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
