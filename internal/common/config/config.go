package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Telegram struct {
		BotToken    string `env:"BOT_TOKEN,required"`
		PollTimeout int    `env:"POLL_TIMEOUT" envDefault:"30"`
	}

	Gate struct {
		RPCURL        string        `env:"ETH_RPC_URL,required"`
		ChainID       uint64        `env:"CHAIN_ID" envDefault:"1"`
		Contract      string        `env:"CONTRACT_ADDRESS,required"`
		MinAmount     uint64        `env:"MIN_AMOUNT,required"`
		PrivateChatID int64         `env:"PRIVATE_CHAT_ID,required"`
		BaseURL       string        `env:"BASE_URL,required"`
		Challenge     string        `env:"CHALLENGE" envDefault:"hello"`
		SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"30m"`
		CallTimeout   time.Duration `env:"CALL_TIMEOUT" envDefault:"8s"`
	}
}

// Load reads .env (when present), parses the environment and validates the
// gate surface. The process must not serve with a partial gate configuration.
func Load() (*Config, error) {
	// Missing .env is fine; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		return fmt.Errorf("BOT_TOKEN is empty")
	}
	if c.Gate.ChainID == 0 {
		return fmt.Errorf("CHAIN_ID must be positive")
	}
	if !common.IsHexAddress(c.Gate.Contract) {
		return fmt.Errorf("CONTRACT_ADDRESS %q is not a hex address", c.Gate.Contract)
	}
	if c.Gate.PrivateChatID == 0 {
		return fmt.Errorf("PRIVATE_CHAT_ID must be set")
	}
	if strings.TrimSpace(c.Gate.Challenge) == "" {
		return fmt.Errorf("CHALLENGE must not be empty")
	}
	u, err := url.Parse(c.Gate.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BASE_URL %q is not an absolute URL", c.Gate.BaseURL)
	}
	return nil
}

// ContractAddress returns the validated gate contract address.
func (c *Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Gate.Contract)
}
