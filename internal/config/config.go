package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Auth    AuthConfig
	Redis   RedisConfig
	Content ContentConfig
	Logger  LoggerConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BackendConfig describes the classroom service this tool layer talks to.
type BackendConfig struct {
	BaseURL  string
	Audience string
	Timeout  time.Duration
}

// AuthConfig selects the service credential source. Mode "oidc" fetches
// Google-signed identity tokens for the configured audience; mode "hs256"
// signs service tokens locally with the shared secret (local development,
// environments without a metadata server).
type AuthConfig struct {
	Mode            string
	Secret          string
	Issuer          string
	SessionTokenTTL time.Duration
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ContentConfig bounds the material fetch path and the extracted-text cache.
type ContentConfig struct {
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

type LoggerConfig struct {
	Env   string
	Level string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	viper.SetDefault("server.port", 9000)
	viper.SetDefault("server.read_timeout", 20)
	viper.SetDefault("server.write_timeout", 20)
	viper.SetDefault("backend.base_url", "http://localhost:3000")
	viper.SetDefault("backend.timeout", 30)
	viper.SetDefault("auth.mode", "oidc")
	viper.SetDefault("auth.issuer", "quizard-tools")
	viper.SetDefault("auth.session_token_ttl", 900)
	viper.SetDefault("content.fetch_timeout", 30)
	viper.SetDefault("content.cache_ttl", 3600)
	viper.SetDefault("logger.env", "development")
	viper.SetDefault("logger.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional; env vars and defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		Backend: BackendConfig{
			BaseURL:  viper.GetString("backend.base_url"),
			Audience: viper.GetString("backend.audience"),
			Timeout:  viper.GetDuration("backend.timeout") * time.Second,
		},
		Auth: AuthConfig{
			Mode:            viper.GetString("auth.mode"),
			Secret:          viper.GetString("auth.secret"),
			Issuer:          viper.GetString("auth.issuer"),
			SessionTokenTTL: viper.GetDuration("auth.session_token_ttl") * time.Second,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Content: ContentConfig{
			FetchTimeout: viper.GetDuration("content.fetch_timeout") * time.Second,
			CacheTTL:     viper.GetDuration("content.cache_ttl") * time.Second,
		},
		Logger: LoggerConfig{
			Env:   viper.GetString("logger.env"),
			Level: viper.GetString("logger.level"),
		},
	}

	// Override with environment variables if set
	if baseURL := os.Getenv("BACKEND_BASE_URL"); baseURL != "" {
		config.Backend.BaseURL = baseURL
	}
	if audience := os.Getenv("BACKEND_AUDIENCE"); audience != "" {
		config.Backend.Audience = audience
	}
	if mode := os.Getenv("AUTH_MODE"); mode != "" {
		config.Auth.Mode = mode
	}
	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		config.Auth.Secret = secret
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
		config.Server.Port = viper.GetInt("server.port")
	}

	return config, nil
}
