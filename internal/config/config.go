// Package config содержит логику чтения конфигурации сервиса кэшбэка.
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса кэшбэка.
type Config struct {
	RunAddress         string   `env:"RUN_ADDRESS"`
	DatabaseURI        string   `env:"DATABASE_URI"`
	DatabaseUser       string   `env:"DATABASE_USER"`
	DatabasePassword   string   `env:"DATABASE_PASSWORD"`
	DatabaseHost       string   `env:"DATABASE_HOST"`
	DatabasePort       string   `env:"DATABASE_PORT"`
	DatabaseName       string   `env:"DATABASE_NAME"`
	JWTSecret          string   `env:"JWT_SECRET"`
	CashbackAPIAddress string   `env:"CASHBACK_API_ADDRESS"`
	CPFWhiteList       []string `env:"CPF_WHITELIST" envSeparator:","`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJWTSecret := cfg.JWTSecret
	envCashbackAddress := cfg.CashbackAPIAddress
	envWhiteList := cfg.CPFWhiteList

	var flagWhiteList string

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "", "JWT signing secret")
	flag.StringVar(&cfg.CashbackAPIAddress, "r", "", "external cashback API address")
	flag.StringVar(&flagWhiteList, "w", "", "comma-separated CPF whitelist for automatic purchase approval")

	flag.Parse()

	if flagWhiteList != "" {
		cfg.CPFWhiteList = strings.Split(flagWhiteList, ",")
	}

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}
	if envCashbackAddress != "" {
		cfg.CashbackAPIAddress = envCashbackAddress
	}
	if len(envWhiteList) != 0 {
		cfg.CPFWhiteList = envWhiteList
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к БД: либо DATABASE_URI целиком,
// либо URI, собранный из отдельных компонентов подключения.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURI != "" {
		return c.DatabaseURI
	}

	var b strings.Builder
	b.WriteString("postgres://")

	if c.DatabaseUser != "" && c.DatabasePassword != "" {
		b.WriteString(c.DatabaseUser)
		b.WriteString(":")
		b.WriteString(c.DatabasePassword)
		b.WriteString("@")
	}

	host := c.DatabaseHost
	if host == "" {
		host = "127.0.0.1"
	}
	b.WriteString(host)

	port := c.DatabasePort
	if port == "" {
		port = "5432"
	}
	b.WriteString(":")
	b.WriteString(port)

	if c.DatabaseName != "" {
		b.WriteString("/")
		b.WriteString(c.DatabaseName)
	}

	return b.String()
}
