// Package config loads the service settings from the environment once at
// startup. The resulting Config is treated as immutable.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	SecretKey                string        `env:"SECRET_KEY,required,notEmpty"`
	Algorithm                string        `env:"ALGORITHM,required,notEmpty"`
	AccessTokenExpireMinutes int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES,required"`
	RefreshTokenExpireDays   int           `env:"REFRESH_TOKEN_EXPIRE_DAYS,required"`
	DatabasePath             string        `env:"DATABASE_PATH"                envDefault:"./master.db"`
	HTTPAddr                 string        `env:"HTTP_ADDR"                    envDefault:":8080"`
	BcryptCost               int           `env:"BCRYPT_COST"                  envDefault:"10"`
	LogLevel                 string        `env:"LOG_LEVEL"                    envDefault:"info"`
	RedisConnString          string        `env:"REDIS_CONNSTRING"`
	LoginMaxAttempts         int           `env:"LOGIN_MAX_ATTEMPTS"           envDefault:"5"`
	LoginLockoutWindow       time.Duration `env:"LOGIN_LOCKOUT_WINDOW"         envDefault:"15m"`
	OTLPEndpoint             string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName              string        `env:"SERVICE_NAME"                 envDefault:"task-manager"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads Config from vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if _, ok := jwt.GetSigningMethod(strings.ToUpper(c.Algorithm)).(*jwt.SigningMethodHMAC); !ok {
		errs = append(errs, fmt.Errorf("ALGORITHM must be HS256, HS384 or HS512, got %q", c.Algorithm))
	}
	if c.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.RefreshTokenExpireDays <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRE_DAYS must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.RedisConnString != "" {
		if c.LoginMaxAttempts <= 0 {
			errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be positive"))
		}
		if c.LoginLockoutWindow <= 0 {
			errs = append(errs, errors.New("LOGIN_LOCKOUT_WINDOW must be positive"))
		}
	}
	return errors.Join(errs...)
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// LoginLimiterEnabled reports whether failed logins are tracked in Redis.
func (c Config) LoginLimiterEnabled() bool {
	return c.RedisConnString != ""
}
