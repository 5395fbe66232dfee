package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"App"`
	Server   ServerConfig   `mapstructure:"Server"`
	Database DatabaseConfig `mapstructure:"Database"`
}

type AppConfig struct {
	Env            string `mapstructure:"Env"`
	MigrationsPath string `mapstructure:"MigrationsPath"`
	// MaxUploadMB ограничивает размер multipart-загрузки версий и вложений
	MaxUploadMB int64 `mapstructure:"MaxUploadMB"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"Port"`
	GRPCPort       string   `mapstructure:"GRPCPort"`
	AllowedOrigins []string `mapstructure:"AllowedOrigins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"Host"`
	Port     string `mapstructure:"Port"`
	User     string `mapstructure:"User"`
	Password string `mapstructure:"Password"`
	Name     string `mapstructure:"Name"`
	SSLMode  string `mapstructure:"SSLMode"`
	// ConnectAttempts - сколько раз пробуем подключиться при старте
	ConnectAttempts int `mapstructure:"ConnectAttempts"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()

	// Устанавливаем файл конфигурации
	v.SetConfigFile(path)

	v.SetDefault("App.Env", "development")
	v.SetDefault("App.MigrationsPath", "file://migrations")
	v.SetDefault("App.MaxUploadMB", 50)
	v.SetDefault("Server.Port", "2525")
	v.SetDefault("Server.GRPCPort", "50051")
	v.SetDefault("Server.AllowedOrigins", []string{"*"})
	v.SetDefault("Database.SSLMode", "disable")
	v.SetDefault("Database.ConnectAttempts", 5)

	// Привязываем переменные окружения
	bindings := map[string]string{
		"App.Env":                  "APP_ENV",
		"App.MigrationsPath":       "MIGRATIONS_PATH",
		"App.MaxUploadMB":          "MAX_UPLOAD_MB",
		"Server.Port":              "HTTP_PORT",
		"Server.GRPCPort":          "GRPC_PORT",
		"Server.AllowedOrigins":    "CORS_ALLOWED_ORIGINS",
		"Database.Host":            "DATABASE_HOST",
		"Database.Port":            "DATABASE_PORT",
		"Database.User":            "DATABASE_USER",
		"Database.Password":        "DATABASE_PASSWORD",
		"Database.Name":            "DATABASE_NAME",
		"Database.SSLMode":         "DATABASE_SSLMODE",
		"Database.ConnectAttempts": "DATABASE_CONNECT_ATTEMPTS",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Читаем конфигурацию из файла
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	// Проверяем, что все необходимые поля заполнены
	if c.Database.Host == "" ||
		c.Database.Port == "" ||
		c.Database.User == "" ||
		c.Database.Password == "" ||
		c.Database.Name == "" {
		return fmt.Errorf("database configuration is incomplete: host=%s, port=%s, user=%s, name=%s",
			c.Database.Host, c.Database.Port, c.Database.User, c.Database.Name)
	}
	if c.App.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.App.MaxUploadMB)
	}
	if c.Database.ConnectAttempts <= 0 {
		c.Database.ConnectAttempts = 1
	}
	return nil
}

// MaxUploadBytes - лимит тела multipart-запроса в байтах
func (c *AppConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// MigrateURL - адрес базы в формате golang-migrate
func (c *DatabaseConfig) MigrateURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
