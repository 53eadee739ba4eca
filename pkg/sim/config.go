package sim

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes the ledger created by Genesis.
type Config struct {
	CooldownSeconds int64        `yaml:"cooldown_seconds"`
	StartTime       int64        `yaml:"start_time"`
	Decimals        uint8        `yaml:"decimals"`
	PayerLamports   uint64       `yaml:"payer_lamports"`
	Users           []UserConfig `yaml:"users"`
}

type UserConfig struct {
	Name     string `yaml:"name"`
	Base     uint64 `yaml:"base"`
	Lamports uint64 `yaml:"lamports"`
}

func DefaultConfig() Config {
	return Config{
		CooldownSeconds: 60,
		StartTime:       1_700_000_000,
		Decimals:        9,
		PayerLamports:   100_000_000_000,
	}
}

// LoadConfig reads a genesis file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing genesis config %s", path)
	}
	return cfg, cfg.validate()
}

func (cfg *Config) validate() error {
	if cfg.CooldownSeconds < 0 {
		return errors.Errorf("cooldown_seconds must not be negative, got %d", cfg.CooldownSeconds)
	}
	seen := make(map[string]bool, len(cfg.Users))
	for _, user := range cfg.Users {
		if user.Name == "" {
			return errors.New("user without a name")
		}
		if seen[user.Name] {
			return errors.Errorf("duplicate user %q", user.Name)
		}
		seen[user.Name] = true
	}
	return nil
}
