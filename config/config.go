// Package config assembles the typed configuration groups the query engine
// needs (document store, cache, guidance database, service identity) from
// Viper, and validates the result before the caller wires any service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StoreConfig configures the MongoDB-backed document store.
type StoreConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// CacheConfig configures the Redis cache layer. Addr empty means the cache
// is disabled and callers should run with a nil client.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
}

// GuidanceConfig configures the bbolt-backed guidance store.
type GuidanceConfig struct {
	DBPath string
}

// ServiceConfig contains identity and HTTP-server settings shared across
// the REST API and SSE transport.
type ServiceConfig struct {
	Name           string
	Port           string
	DefaultVersion string
	JWTSecret      string
	APIKey         string
	LogLevel       string
	LogFormat      string
}

// AllConfig is the fully assembled, validated configuration for a
// grafo-query process.
type AllConfig struct {
	Service  ServiceConfig
	Store    StoreConfig
	Cache    CacheConfig
	Guidance GuidanceConfig
}

// Load reads every configuration group from v, using the same dotted key
// names cli/root.go binds its flags to, and validates the result. v is
// expected to already have flags bound and a config file/environment
// layered in by the caller.
func Load(v *viper.Viper) (*AllConfig, error) {
	cfg := &AllConfig{
		Service: ServiceConfig{
			Name:           "grafo-query",
			Port:           stringDefault(v, "port", "8080"),
			DefaultVersion: v.GetString("default_version"),
			JWTSecret:      v.GetString("jwt.secret"),
			APIKey:         v.GetString("api.key"),
			LogLevel:       stringDefault(v, "log.level", "info"),
			LogFormat:      stringDefault(v, "log.format", "text"),
		},
		Store: StoreConfig{
			URI:      stringDefault(v, "mongo.uri", "mongodb://localhost:27017"),
			Database: stringDefault(v, "mongo.database", "code_graph"),
			Timeout:  30 * time.Second,
		},
		Cache: CacheConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Guidance: GuidanceConfig{
			DBPath: stringDefault(v, "guidance.db", "guidance.db"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func stringDefault(v *viper.Viper, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return fallback
}

func validate(cfg *AllConfig) error {
	validator := NewValidator()

	validator.RequireString("Service.Name", cfg.Service.Name)
	validator.RequireOneOf("Service.LogLevel", cfg.Service.LogLevel,
		[]string{"debug", "info", "warn", "error"})
	validator.RequireOneOf("Service.LogFormat", cfg.Service.LogFormat,
		[]string{"text", "json"})

	validator.RequireString("Store.URI", cfg.Store.URI)
	validator.RequireString("Store.Database", cfg.Store.Database)

	if cfg.Cache.Addr != "" && cfg.Cache.DB < 0 {
		validator.errors = append(validator.errors, "Cache.DB must not be negative")
	}

	return validator.Validate()
}

// Validator accumulates configuration validation errors, mirroring the
// fail-soft, collect-every-error style the rest of the codebase uses when
// reporting to an operator.
type Validator struct {
	errors []string
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{errors: make([]string, 0)}
}

// RequireString validates that a string field is not empty.
func (v *Validator) RequireString(field, value string) {
	if value == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
	}
}

// RequireOneOf validates that a value is one of the allowed options.
func (v *Validator) RequireOneOf(field, value string, allowed []string) {
	if value == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
		return
	}
	for _, option := range allowed {
		if value == option {
			return
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
}

// IsValid returns true if there are no validation errors.
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []string {
	return v.errors
}

// Validate runs validation and returns an error if invalid.
func (v *Validator) Validate() error {
	if !v.IsValid() {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(v.errors, "; "))
	}
	return nil
}
