package config

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Bun        BunConfig
	WebAuthn   WebAuthn
	LoggerMode LoggerMode
}

type Server struct {
	Port        string
	Environment string
}

type BunConfig struct {
	DSN string
}

type LoggerMode struct {
	Development bool
	Prod        bool
	Level       string
}

// WebAuthn holds relying-party settings. The RP ID itself is never configured:
// it is derived from the effective origin of each request, so one deployment
// can serve several hostnames.
type WebAuthn struct {
	RPDisplayName    string
	ChallengeTTL     time.Duration // how long an issued challenge stays valid
	CeremonyTimeout  time.Duration // timeout hint sent to the browser
	UserVerification string        // "required" | "preferred" | "discouraged"
}

func (w WebAuthn) ChallengeTTLOrDefault() time.Duration {
	if w.ChallengeTTL <= 0 {
		return 5 * time.Minute
	}
	return w.ChallengeTTL
}

func (w WebAuthn) CeremonyTimeoutOrDefault() time.Duration {
	if w.CeremonyTimeout <= 0 {
		return time.Minute
	}
	return w.CeremonyTimeout
}

func (w WebAuthn) UserVerificationOrDefault() string {
	if w.UserVerification == "" {
		return "preferred"
	}
	return w.UserVerification
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	err := v.Unmarshal(&c)
	if err != nil {
		slog.Error("Unable to unmarshal config", "err", err)
		return nil, err
	}
	return &c, nil
}
