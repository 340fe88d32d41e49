package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Checkout CheckoutConfig
	Stripe   StripeConfig
	PayPal   PayPalConfig
	Klarna   KlarnaConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

// CheckoutConfig carries the order-assembly policy constants: the single
// VAT rate applied to every order and the flat shipping fee used when the
// chosen carrier has no configured cost.
type CheckoutConfig struct {
	TaxRate         float64
	DefaultShipping float64
	Currency        string
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
}

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string
}

type KlarnaConfig struct {
	Username string
	Password string
	Region   string
	Locale   string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("CHECKOUT_TAX_RATE", 0.22)
	viper.SetDefault("CHECKOUT_DEFAULT_SHIPPING", 5.0)
	viper.SetDefault("CHECKOUT_CURRENCY", "eur")
	viper.SetDefault("PAYPAL_MODE", "sandbox")
	viper.SetDefault("KLARNA_REGION", "eu")
	viper.SetDefault("KLARNA_LOCALE", "it-IT")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Env:         viper.GetString("SERVER_ENV"),
			CORSOrigins: splitList(viper.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Checkout: CheckoutConfig{
			TaxRate:         viper.GetFloat64("CHECKOUT_TAX_RATE"),
			DefaultShipping: viper.GetFloat64("CHECKOUT_DEFAULT_SHIPPING"),
			Currency:        viper.GetString("CHECKOUT_CURRENCY"),
		},
		Stripe: StripeConfig{
			SecretKey:      viper.GetString("STRIPE_SECRET_KEY"),
			PublishableKey: viper.GetString("STRIPE_PUBLISHABLE_KEY"),
		},
		PayPal: PayPalConfig{
			ClientID:     viper.GetString("PAYPAL_CLIENT_ID"),
			ClientSecret: viper.GetString("PAYPAL_CLIENT_SECRET"),
			Mode:         viper.GetString("PAYPAL_MODE"),
		},
		Klarna: KlarnaConfig{
			Username: viper.GetString("KLARNA_USERNAME"),
			Password: viper.GetString("KLARNA_PASSWORD"),
			Region:   viper.GetString("KLARNA_REGION"),
			Locale:   viper.GetString("KLARNA_LOCALE"),
		},
	}
}

// splitList parses a comma-separated env value into its non-empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
