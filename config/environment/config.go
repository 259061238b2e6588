package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides where the optional YAML file is read from
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Places    PlacesConfig    `koanf:"places"`
	Ranking   RankingConfig   `koanf:"ranking"`
	Recommend RecommendConfig `koanf:"recommend"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Firebase  FirebaseConfig  `koanf:"firebase"`
}

type ServerConfig struct {
	Port        string   `koanf:"port" validate:"required"`
	GinMode     string   `koanf:"gin_mode" validate:"omitempty,oneof=debug release test"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type DatabaseConfig struct {
	// Path of the SQLite file; ":memory:" for an ephemeral database
	Path string `koanf:"path" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

type PlacesConfig struct {
	Provider      string        `koanf:"provider" validate:"oneof=google maps-scraper"`
	GoogleAPIKey  string        `koanf:"google_api_key"`
	BaseURL       string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
	RatePerSecond float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst         int           `koanf:"burst" validate:"gte=1"`
	SearchRadius  int           `koanf:"search_radius" validate:"gt=0"`
	MaxResults    int           `koanf:"max_results" validate:"gt=0,lte=20"`
	Language      string        `koanf:"language"`
}

type RankingConfig struct {
	Provider           string        `koanf:"provider" validate:"oneof=openai gemini"`
	OpenAIAPIKey       string        `koanf:"openai_api_key"`
	OpenAIModel        string        `koanf:"openai_model"`
	GeminiAPIKey       string        `koanf:"gemini_api_key"`
	GeminiModel        string        `koanf:"gemini_model"`
	MaxTokens          int           `koanf:"max_tokens" validate:"gt=0"`
	Timeout            time.Duration `koanf:"timeout" validate:"gt=0"`
	NumRecommendations int           `koanf:"num_recommendations" validate:"gt=0"`
	FreeTextFallback   bool          `koanf:"free_text_fallback"`
}

type RecommendConfig struct {
	DefaultAlpha     float64       `koanf:"default_alpha" validate:"gte=0,lte=1"`
	DefaultBeta      float64       `koanf:"default_beta" validate:"gte=0,lte=1"`
	MinPool          int           `koanf:"min_pool" validate:"gt=0"`
	CacheTTL         time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	RevisitThreshold int           `koanf:"revisit_threshold" validate:"gt=0"`
	MinFilterResults int           `koanf:"min_filter_results" validate:"gte=0"`
	RatingFloor      float64       `koanf:"rating_floor" validate:"gte=0,lte=5"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gt=0"`
}

type FirebaseConfig struct {
	CredentialsBase64 string `koanf:"credentials_base64"`
	ProjectID         string `koanf:"project_id"`
}

// Enabled reports whether the Firestore-backed feedback board can start
func (f FirebaseConfig) Enabled() bool {
	return f.CredentialsBase64 != "" && f.ProjectID != ""
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{Path: "campfire.db"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Places: PlacesConfig{
			Provider:      "google",
			BaseURL:       "https://places.googleapis.com/v1",
			Timeout:       10 * time.Second,
			RatePerSecond: 5,
			Burst:         5,
			SearchRadius:  8000,
			MaxResults:    20,
			Language:      "en",
		},
		Ranking: RankingConfig{
			Provider:           "openai",
			OpenAIModel:        "gpt-4o-mini",
			GeminiModel:        "gemini-2.0-flash",
			MaxTokens:          300,
			Timeout:            30 * time.Second,
			NumRecommendations: 3,
			FreeTextFallback:   true,
		},
		Recommend: RecommendConfig{
			DefaultAlpha:     0.7,
			DefaultBeta:      0.0,
			MinPool:          20,
			CacheTTL:         30 * 24 * time.Hour,
			RevisitThreshold: 3,
			MinFilterResults: 3,
			RatingFloor:      3.5,
		},
		Breaker: BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// envMappings maps flat environment names onto koanf paths. Anything not
// listed falls back to SECTION_KEY -> section.key.
var envMappings = map[string]string{
	"port":                        "server.port",
	"gin_mode":                    "server.gin_mode",
	"cors_origins":                "server.cors_origins",
	"database_path":               "database.path",
	"log_level":                   "log.level",
	"log_format":                  "log.format",
	"places_provider":             "places.provider",
	"google_api_key":              "places.google_api_key",
	"ranking_provider":            "ranking.provider",
	"openai_api_key":              "ranking.openai_api_key",
	"openai_model":                "ranking.openai_model",
	"gemini_api_key":              "ranking.gemini_api_key",
	"gemini_model":                "ranking.gemini_model",
	"num_recommendations":         "ranking.num_recommendations",
	"firebase_credentials_base64": "firebase.credentials_base64",
	"firebase_project_id":         "firebase.project_id",
}

var sectionPrefixes = []string{"server", "database", "log", "places", "ranking", "recommend", "breaker", "firebase"}

// sliceConfigPaths come in from the environment as comma separated strings
var sliceConfigPaths = []string{"server.cors_origins"}

func envTransform(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	for _, section := range sectionPrefixes {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	// unrelated process variables end up under a key nothing reads
	return "env." + key
}

// Load layers defaults, an optional YAML file, .env and the environment
// (highest priority) and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks struct tags plus the cross-field rules tags can't express
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Places.Provider == "google" && c.Places.GoogleAPIKey == "" {
		return errors.New("invalid configuration: GOOGLE_API_KEY is required for the google places provider")
	}
	switch c.Ranking.Provider {
	case "openai":
		if c.Ranking.OpenAIAPIKey == "" {
			return errors.New("invalid configuration: OPENAI_API_KEY is required for the openai ranking provider")
		}
	case "gemini":
		if c.Ranking.GeminiAPIKey == "" {
			return errors.New("invalid configuration: GEMINI_API_KEY is required for the gemini ranking provider")
		}
	}
	return nil
}
