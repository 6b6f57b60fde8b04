package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Media    MediaConfig    `yaml:"media"`
	AI       AIConfig       `yaml:"ai"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds document store configuration
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres or memory
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Driver     string `yaml:"driver"` // s3 or minio
	Region     string `yaml:"region"`
	Bucket     string `yaml:"bucket"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Endpoint   string `yaml:"endpoint"`
	DisableSSL bool   `yaml:"disable_ssl"`
	PublicURL  string `yaml:"public_url"` // base URL objects are served from
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

// TTL returns the session token lifetime
func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string       `yaml:"level"`
	Format string       `yaml:"format"` // console or json
	Fluent FluentConfig `yaml:"fluent"`
}

// FluentConfig configures log shipping to Fluent Bit
type FluentConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	TagPrefix string `yaml:"tag_prefix"`
}

// MediaConfig configures the stock media search API
type MediaConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	PerPage        int    `yaml:"per_page"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AIConfig configures the image generator
type AIConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxImages int    `yaml:"max_images"`
}

// OAuthConfig holds the sign-in providers
type OAuthConfig struct {
	Google OAuthClientConfig `yaml:"google"`
	GitHub OAuthClientConfig `yaml:"github"`
}

// OAuthClientConfig holds one OAuth client registration
type OAuthClientConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether the provider is configured
func (c OAuthClientConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// SweeperConfig configures the orphan membership cleanup job
type SweeperConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// Load reads configuration from a YAML file. Variables from a .env file in
// the working directory are loaded first and environment variables override
// secrets from the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Media.APIKey, "MEDIA_API_KEY")
	setString(&c.Media.APIKey, "PIXABAY_API_KEY")
	setString(&c.AI.APIKey, "GEMINI_API_KEY")
	setString(&c.Storage.AccessKey, "S3_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "S3_SECRET_KEY")
	setString(&c.OAuth.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.OAuth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.OAuth.GitHub.ClientID, "GITHUB_CLIENT_ID")
	setString(&c.OAuth.GitHub.ClientSecret, "GITHUB_CLIENT_SECRET")

	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		c.Server.Port = port
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "s3"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.JWT.TTLHours == 0 {
		c.JWT.TTLHours = 24 * 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Fluent.Port == 0 {
		c.Log.Fluent.Port = 24224
	}
	if c.Log.Fluent.TagPrefix == "" {
		c.Log.Fluent.TagPrefix = "quizontal"
	}
	if c.Media.BaseURL == "" {
		c.Media.BaseURL = "https://pixabay.com"
	}
	if c.Media.PerPage == 0 {
		c.Media.PerPage = 20
	}
	if c.Media.TimeoutSeconds == 0 {
		c.Media.TimeoutSeconds = 10
	}
	if c.AI.Model == "" {
		c.AI.Model = "imagen-3.0-generate-002"
	}
	if c.AI.MaxImages == 0 {
		c.AI.MaxImages = 4
	}
	if c.Sweeper.Schedule == "" {
		c.Sweeper.Schedule = "@every 10m"
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "s3", "minio":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
