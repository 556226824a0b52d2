package config

import (
	"errors"
	"time"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database  Database  `envPrefix:"DB_"`
	JWT       JWT       `envPrefix:"JWT_"`
	Store     Store     `envPrefix:"STORE_"`
	Payment   Payment   `envPrefix:"PAYMENT_"`
	Paystack  Paystack  `envPrefix:"PAYSTACK_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	RabbitMQ  RabbitMQ  `envPrefix:"RABBITMQ_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql
	URL    string `env:"URL" envDefault:"cakes.db"`
}

// DevJWTSecret is only accepted outside production.
const DevJWTSecret = "changeme"

type JWT struct {
	Secret string `env:"SECRET" envDefault:"changeme"`
}

type Store struct {
	Currency string `env:"CURRENCY" envDefault:"USD"`
}

type Payment struct {
	Gateway string        `env:"GATEWAY" envDefault:"paystack"` // paystack, braintree
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type Paystack struct {
	BaseApiURL  string `env:"BASE_API_URL" envDefault:"https://api.paystack.co"`
	SecretKey   string `env:"SECRET_KEY"`
	CallbackURL string `env:"CALLBACK_URL"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

// Redis and RabbitMQ are optional notification sinks, disabled when the address is empty.
type Redis struct {
	Addr    string `env:"ADDR"`
	Channel string `env:"CHANNEL" envDefault:"notifications"`
}

type RabbitMQ struct {
	URL      string `env:"URL"`
	Exchange string `env:"EXCHANGE" envDefault:"notifications"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

func (h HTTPServer) Addr() string {
	return h.Host + ":" + h.Port
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

// Validate rejects settings that are only safe for local development.
func (c *Config) Validate() error {
	if c.Environment.IsProduction() && (c.JWT.Secret == "" || c.JWT.Secret == DevJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value in production")
	}
	return nil
}
