package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"golistingsync_api/config/values"
)

type MarketplaceConfig struct {
	Host   string `yaml:"host"`
	ApiKey string `yaml:"api_key"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JwtSecret string `yaml:"jwt_secret"`
}

type AppConfig struct {
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Sync        values.SyncValues `yaml:"sync"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Postgres    PostgresConfig    `yaml:"postgres"`
}

// envOverrides are applied on top of the yaml file, so secrets never have to
// live in the config file itself.
type envOverrides struct {
	MarketplaceHost   string `envconfig:"MARKETPLACE_HOST"`
	MarketplaceApiKey string `envconfig:"MARKETPLACE_API_KEY"`
	RedisAddr         string `envconfig:"REDIS_ADDR"`
	RedisPassword     string `envconfig:"REDIS_PASSWORD"`
	JwtSecret         string `envconfig:"JWT_SECRET"`
}

func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := &AppConfig{}
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}

	var overrides envOverrides
	if err := envconfig.Process("", &overrides); err != nil {
		return nil, err
	}
	if overrides.MarketplaceHost != "" {
		config.Marketplace.Host = overrides.MarketplaceHost
	}
	if overrides.MarketplaceApiKey != "" {
		config.Marketplace.ApiKey = overrides.MarketplaceApiKey
	}
	if overrides.RedisAddr != "" {
		config.Redis.Addr = overrides.RedisAddr
	}
	if overrides.RedisPassword != "" {
		config.Redis.Password = overrides.RedisPassword
	}
	if overrides.JwtSecret != "" {
		config.Auth.JwtSecret = overrides.JwtSecret
	}

	config.Sync.ApplyDefaults()
	return config, nil
}
