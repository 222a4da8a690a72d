package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	return v
}

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	v := newViper()
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Service.Port)
	assert.Equal(t, "info", cfg.Service.LogLevel)
	assert.Equal(t, "text", cfg.Service.LogFormat)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.URI)
	assert.Equal(t, "code_graph", cfg.Store.Database)
	assert.Equal(t, "guidance.db", cfg.Guidance.DBPath)
	assert.Empty(t, cfg.Cache.Addr)
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	v := newViper()
	v.Set("port", "9090")
	v.Set("mongo.uri", "mongodb://db:27017")
	v.Set("mongo.database", "custom")
	v.Set("redis.addr", "localhost:6379")
	v.Set("redis.db", 2)
	v.Set("log.level", "debug")
	v.Set("log.format", "json")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Service.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.URI)
	assert.Equal(t, "custom", cfg.Store.Database)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Equal(t, 2, cfg.Cache.DB)
	assert.Equal(t, "debug", cfg.Service.LogLevel)
	assert.Equal(t, "json", cfg.Service.LogFormat)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	v := newViper()
	v.Set("log.level", "loud")
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Service.LogLevel")
}

func TestLoadRejectsNegativeCacheDBWhenCacheEnabled(t *testing.T) {
	v := newViper()
	v.Set("redis.addr", "localhost:6379")
	v.Set("redis.db", -1)
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cache.DB")
}

func TestValidatorAccumulatesErrors(t *testing.T) {
	v := NewValidator()
	v.RequireString("Service.Name", "")
	v.RequireOneOf("Service.LogLevel", "", []string{"debug", "info"})
	assert.False(t, v.IsValid())
	assert.Len(t, v.Errors(), 2)
}

func TestValidatorRequireOneOfRejectsUnlisted(t *testing.T) {
	v := NewValidator()
	v.RequireOneOf("Service.LogFormat", "xml", []string{"text", "json"})
	assert.False(t, v.IsValid())
}

func TestValidatorRequireOneOfAcceptsListed(t *testing.T) {
	v := NewValidator()
	v.RequireOneOf("Service.LogFormat", "json", []string{"text", "json"})
	assert.True(t, v.IsValid())
}

func TestValidatorValidateReturnsNilWhenClean(t *testing.T) {
	v := NewValidator()
	v.RequireString("Service.Name", "grafo-query")
	require.NoError(t, v.Validate())
}

func TestValidatorValidateReturnsErrorWhenDirty(t *testing.T) {
	v := NewValidator()
	v.RequireString("Service.Name", "")
	err := v.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
