package s3

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	Bucket          string `mapstructure:"S3_BUCKET"`
	Endpoint        string `mapstructure:"S3_ENDPOINT"`
	Region          string `mapstructure:"S3_REGION"`
	UsePathStyle    bool   `mapstructure:"S3_USE_PATH_STYLE"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("S3_ENDPOINT", "https://storage.yandexcloud.net")
	v.SetDefault("S3_REGION", "ru-central1")
	for _, key := range []string{
		"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_BUCKET",
		"S3_ENDPOINT", "S3_REGION", "S3_USE_PATH_STYLE",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: s3 config %s not read, using environment: %v\n", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	// Проверяем, что все необходимые поля заполнены
	if cfg.AccessKeyID == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY_ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("S3_SECRET_ACCESS_KEY is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	return &cfg, nil
}
