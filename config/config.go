package config

import (
	"fmt"
	"os"
	"strings"
)

// Config 服务运行所需的全部环境配置
type Config struct {
	Port string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string

	PaymentProvider string
	StripeSecret    string
	Currency        string
	SiteDomain      string

	AuthSecret string
	AuthIssuer string

	LogLevel string
}

// FromEnv 从环境变量读取配置 (调用前可先 godotenv.Load)
func FromEnv() (Config, error) {
	var c Config
	c.Port = envOr("PORT", "3000")

	c.DBDriver = strings.ToLower(envOr("DB_DRIVER", "mysql"))
	c.DBDSN = strings.TrimSpace(os.Getenv("DB_DSN"))
	if c.DBDSN == "" && c.DBDriver == "mysql" {
		user := strings.TrimSpace(os.Getenv("DB_USER"))
		pass := strings.TrimSpace(os.Getenv("DB_PASS"))
		host := envOr("DB_HOST", "localhost:3306")
		name := envOr("DB_NAME", "idea_arena_db")
		if user != "" {
			c.DBDSN = fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", user, pass, host, name)
		}
	}
	if c.DBDSN == "" && c.DBDriver == "sqlite" {
		c.DBDSN = "idea_arena.db"
	}

	c.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.RedisPassword = strings.TrimSpace(os.Getenv("REDIS_PASSWORD"))

	c.PaymentProvider = strings.ToLower(envOr("PAYMENT_PROVIDER", "stripe"))
	c.StripeSecret = strings.TrimSpace(os.Getenv("STRIPE_SECRET"))
	c.Currency = strings.ToLower(envOr("PAYMENT_CURRENCY", "usd"))
	c.SiteDomain = strings.TrimRight(strings.TrimSpace(os.Getenv("SITE_DOMAIN")), "/")

	c.AuthSecret = strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))
	c.AuthIssuer = strings.TrimSpace(os.Getenv("AUTH_ISSUER"))

	c.LogLevel = envOr("LOG_LEVEL", "info")

	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		return c, fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return c, fmt.Errorf("DB_DSN (or DB_USER/DB_PASS) is empty")
	}
	if c.AuthSecret == "" {
		return c, fmt.Errorf("AUTH_JWT_SECRET is empty")
	}
	if c.PaymentProvider == "stripe" && c.StripeSecret == "" {
		return c, fmt.Errorf("STRIPE_SECRET is empty")
	}
	return c, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
