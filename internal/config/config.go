// Package config loads service configuration: built-in defaults, then a
// YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"certificate-service/internal/models"
)

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Storage  StorageConfig   `yaml:"storage"`
	Cache    CacheConfig     `yaml:"cache"`
	Render   RenderConfig    `yaml:"render"`
	Editor   models.Settings `yaml:"editor"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	BodyLimitMB int    `yaml:"body_limit_mb"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type StorageConfig struct {
	Type string   `yaml:"type"` // local, s3
	Root string   `yaml:"root"`
	S3   S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	RenderTTL     time.Duration `yaml:"render_ttl"`
	RedisAddr     string        `yaml:"redis_addr"` // empty: in-process render cache
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

type RenderConfig struct {
	Quality int    `yaml:"quality"` // JPEG and WebP, 1-100
	Format  string `yaml:"format"`  // default raster format
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "3000",
			BodyLimitMB: 50,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/certificates.db",
		},
		Storage: StorageConfig{
			Type: "local",
			Root: "./data/files",
			S3:   S3Config{Region: "us-east-1"},
		},
		Cache: CacheConfig{
			TTL:       5 * time.Minute,
			RenderTTL: 10 * time.Minute,
		},
		Render: RenderConfig{
			Quality: 92,
			Format:  "jpeg",
		},
		Editor: models.DefaultSettings(),
	}
}

// Load reads the file named by CONFIG_PATH (default config.yaml). A
// missing file is not an error.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFile(path)
}

// LoadFile layers path and the environment over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Environment variables take precedence over the config file.
func (c *Config) applyEnv() error {
	c.Server.Port = envOrDefault("PORT", c.Server.Port)

	c.Database.Type = envOrDefault("DB_TYPE", c.Database.Type)
	c.Database.DSN = envOrDefault("DB_DSN", c.Database.DSN)

	c.Storage.Type = envOrDefault("STORAGE_TYPE", c.Storage.Type)
	c.Storage.Root = envOrDefault("STORAGE_ROOT", c.Storage.Root)
	c.Storage.S3.Endpoint = envOrDefault("S3_ENDPOINT", c.Storage.S3.Endpoint)
	c.Storage.S3.Region = envOrDefault("S3_REGION", c.Storage.S3.Region)
	c.Storage.S3.Bucket = envOrDefault("S3_BUCKET", c.Storage.S3.Bucket)
	c.Storage.S3.Prefix = envOrDefault("S3_PREFIX", c.Storage.S3.Prefix)
	c.Storage.S3.AccessKey = envOrDefault("S3_ACCESS_KEY", c.Storage.S3.AccessKey)
	c.Storage.S3.SecretKey = envOrDefault("S3_SECRET_KEY", c.Storage.S3.SecretKey)

	c.Cache.RedisAddr = envOrDefault("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = envOrDefault("REDIS_PASSWORD", c.Cache.RedisPassword)

	if v := os.Getenv("RENDER_QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RENDER_QUALITY: %w", err)
		}
		c.Render.Quality = q
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	switch c.Storage.Type {
	case "local":
		if c.Storage.Root == "" {
			return fmt.Errorf("storage root must be set")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket must be set")
		}
	default:
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}
	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render quality %d out of range 1-100", c.Render.Quality)
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.RenderTTL <= 0 {
		c.Cache.RenderTTL = 10 * time.Minute
	}
	if err := c.Editor.Validate(); err != nil {
		return fmt.Errorf("editor settings: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
