package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Credentials struct {
	APIKey    string `envconfig:"ALPACA_API_KEY_ID" required:"true"`
	APISecret string `envconfig:"ALPACA_API_SECRET_KEY" required:"true"`
	BaseURL   string `envconfig:"ALPACA_BASE_URL" default:"https://paper-api.alpaca.markets"`
}

// LoadCredentials reads Alpaca credentials from the environment. A .env file
// in the working directory is loaded first when present.
func LoadCredentials() (Credentials, error) {
	_ = godotenv.Load()

	var c Credentials
	if err := envconfig.Process("", &c); err != nil {
		return Credentials{}, fmt.Errorf("failed to load alpaca credentials: %w", err)
	}

	return c, nil
}
