package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Frontend  FrontendConfig
	Tool      ToolConfig
	LMS       LMSConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Resources []Resource
	Platforms []PlatformSeed
}

// FrontendConfig locates the SPA views the gateway redirects launches to.
type FrontendConfig struct {
	BaseURL     string
	StudentPath string
	ReviewPath  string
	SelectPath  string
}

// ToolConfig holds the tool-side key material used to sign deep-linking
// responses and OAuth2 client assertions.
type ToolConfig struct {
	PrivateKeyPEM string
	KeyID         string
}

// LMSConfig bounds outbound calls to platform services.
type LMSConfig struct {
	HTTPTimeout time.Duration
	SessionTTL  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// Resource is one selectable deep-linking catalog entry.
type Resource struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PlatformSeed describes a platform registration applied at boot.
type PlatformSeed struct {
	Issuer        string `json:"issuer" validate:"required,url"`
	Name          string `json:"name" validate:"required"`
	ClientID      string `json:"client_id" validate:"required"`
	AuthEndpoint  string `json:"auth_endpoint" validate:"required,url"`
	TokenEndpoint string `json:"token_endpoint" validate:"required,url"`
	KeysetURL     string `json:"keyset_url" validate:"omitempty,url"`
	PublicKeyPEM  string `json:"public_key" validate:"required"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// A missing .env is fine; defaults and process env still apply. With an
	// explicit config file viper reports absence as a path error, not as
	// ConfigFileNotFoundError.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Frontend = FrontendConfig{
		BaseURL:     strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		StudentPath: v.GetString("FRONTEND_STUDENT_PATH"),
		ReviewPath:  v.GetString("FRONTEND_REVIEW_PATH"),
		SelectPath:  v.GetString("FRONTEND_SELECT_PATH"),
	}

	cfg.Tool = ToolConfig{
		PrivateKeyPEM: v.GetString("TOOL_PRIVATE_KEY"),
		KeyID:         v.GetString("TOOL_KEY_ID"),
	}

	cfg.LMS = LMSConfig{
		HTTPTimeout: parseDuration(v.GetString("LMS_HTTP_TIMEOUT"), 10*time.Second),
		SessionTTL:  parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	resources, err := parseResources(v.GetString("RESOURCES"))
	if err != nil {
		return nil, err
	}
	cfg.Resources = resources

	platforms, err := parsePlatforms(v.GetString("PLATFORMS"))
	if err != nil {
		return nil, err
	}
	cfg.Platforms = platforms

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("FRONTEND_STUDENT_PATH", "/estudiante/evaluacion")
	v.SetDefault("FRONTEND_REVIEW_PATH", "/docente/review")
	v.SetDefault("FRONTEND_SELECT_PATH", "/docente/seleccionar_evaluacion")

	v.SetDefault("TOOL_KEY_ID", "lti-gateway-key")

	v.SetDefault("LMS_HTTP_TIMEOUT", "10s")
	v.SetDefault("SESSION_TTL", "24h")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lti_gateway")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RESOURCES", "Resource1=value1,Resource2=value2,Resource3=value3")
	v.SetDefault("PLATFORMS", "")
}

// parseResources reads the catalog from "name=value,name=value" form.
func parseResources(raw string) ([]Resource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []Resource
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("invalid RESOURCES entry: " + pair)
		}
		out = append(out, Resource{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return out, nil
}

// parsePlatforms reads boot-time platform registrations from a JSON array.
// Each entry is validated before it can reach the registry.
func parsePlatforms(raw string) ([]PlatformSeed, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []PlatformSeed
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, errors.New("invalid PLATFORMS JSON: " + err.Error())
	}
	validate := validator.New()
	for _, seed := range out {
		if err := validate.Struct(seed); err != nil {
			return nil, errors.New("invalid PLATFORMS entry for issuer " + seed.Issuer + ": " + err.Error())
		}
	}
	return out, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
