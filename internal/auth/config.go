package auth

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Secret   string        `mapstructure:"JWT_SECRET"`
	Issuer   string        `mapstructure:"JWT_ISSUER"`
	TokenTTL time.Duration `mapstructure:"JWT_TTL"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("JWT_ISSUER", "transparencia")
	v.SetDefault("JWT_TTL", 12*time.Hour)
	_ = v.BindEnv("JWT_SECRET")
	_ = v.BindEnv("JWT_ISSUER")
	_ = v.BindEnv("JWT_TTL")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: auth config %s not read, using environment: %v\n", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &cfg, nil
}
