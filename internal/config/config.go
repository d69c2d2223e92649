package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Staging  StagingConfig  `mapstructure:"staging"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// AnalyzerConfig points at the upstream video analysis service.
type AnalyzerConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StagingConfig tunes the session staging lifecycle.
type StagingConfig struct {
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	NewExerciseTTL  time.Duration `mapstructure:"new_exercise_ttl"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	MaxOpenSessions int           `mapstructure:"max_open_sessions"`
	SweepToken      string        `mapstructure:"sweep_token"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// Nested keys map to underscored env vars, e.g. staging.session_ttl ->
	// STAGING_SESSION_TTL.
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "fitness_analysis")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("jwt.expiration", "1h")
	viper.SetDefault("analyzer.timeout", "2m")
	viper.SetDefault("staging.session_ttl", "24h")
	viper.SetDefault("staging.new_exercise_ttl", "168h")
	viper.SetDefault("staging.sweep_interval", "1h")
	viper.SetDefault("staging.max_open_sessions", 3)

	err = viper.ReadInConfig()
	// A missing config file is fine, env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
