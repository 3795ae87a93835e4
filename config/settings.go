// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Environment names the deployment tier the process runs in.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// Environments lists the accepted Environment values.
var Environments = []Environment{
	EnvironmentDevelopment,
	EnvironmentStaging,
	EnvironmentProduction,
}

// Settings is the validated application configuration for one process run.
// Values are read from the environment and an optional .env file; see Load.
// A *Settings handed out by this package must not be modified.
//
// The mapstructure tag names the setting key (matched case-insensitively
// against environment variable names), the default tag holds the textual
// default, and the validate tag carries the constraints checked after
// coercion.
type Settings struct {
	// Application
	AppName     string      `mapstructure:"app_name" default:"Healthcare Analytics Engine" json:"app_name" yaml:"app_name"`
	AppVersion  string      `mapstructure:"app_version" default:"1.0.0" json:"app_version" yaml:"app_version"`
	Environment Environment `mapstructure:"environment" default:"development" validate:"oneof=development staging production" json:"environment" yaml:"environment"`
	Debug       bool        `mapstructure:"debug" default:"false" json:"debug" yaml:"debug"`
	LogLevel    string      `mapstructure:"log_level" default:"INFO" json:"log_level" yaml:"log_level"`

	// Database
	DatabaseURL         string `mapstructure:"database_url" validate:"required" json:"database_url" yaml:"database_url"`
	DatabasePoolSize    int    `mapstructure:"database_pool_size" default:"20" validate:"min=1,max=100" json:"database_pool_size" yaml:"database_pool_size"`
	DatabaseMaxOverflow int    `mapstructure:"database_max_overflow" default:"40" validate:"min=1,max=200" json:"database_max_overflow" yaml:"database_max_overflow"`
	DatabaseEcho        bool   `mapstructure:"database_echo" default:"false" json:"database_echo" yaml:"database_echo"`

	// Cache
	RedisURL      string `mapstructure:"redis_url" default:"redis://localhost:6379/0" json:"redis_url" yaml:"redis_url"`
	RedisCacheTTL int    `mapstructure:"redis_cache_ttl" default:"3600" validate:"min=1" json:"redis_cache_ttl" yaml:"redis_cache_ttl"`

	// Security
	JWTSecretKey               string   `mapstructure:"jwt_secret_key" validate:"required" json:"jwt_secret_key" yaml:"jwt_secret_key"`
	JWTAlgorithm               string   `mapstructure:"jwt_algorithm" default:"HS256" json:"jwt_algorithm" yaml:"jwt_algorithm"`
	JWTExpirationHours         int      `mapstructure:"jwt_expiration_hours" default:"24" validate:"min=1" json:"jwt_expiration_hours" yaml:"jwt_expiration_hours"`
	RefreshTokenExpirationDays int      `mapstructure:"refresh_token_expiration_days" default:"30" validate:"min=1" json:"refresh_token_expiration_days" yaml:"refresh_token_expiration_days"`
	CORSOrigins                []string `mapstructure:"cors_origins" default:"http://localhost:3000" json:"cors_origins" yaml:"cors_origins"`
	CORSAllowCredentials       bool     `mapstructure:"cors_allow_credentials" default:"true" json:"cors_allow_credentials" yaml:"cors_allow_credentials"`

	// AI providers
	OpenAIAPIKey *string `mapstructure:"openai_api_key" json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"`
	GeminiAPIKey *string `mapstructure:"gemini_api_key" json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`

	// Mail
	SMTPHost      string  `mapstructure:"smtp_host" default:"smtp.gmail.com" json:"smtp_host" yaml:"smtp_host"`
	SMTPPort      int     `mapstructure:"smtp_port" default:"587" validate:"min=1,max=65535" json:"smtp_port" yaml:"smtp_port"`
	SMTPUser      *string `mapstructure:"smtp_user" json:"smtp_user,omitempty" yaml:"smtp_user,omitempty"`
	SMTPPassword  *string `mapstructure:"smtp_password" json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	SMTPFromEmail *string `mapstructure:"smtp_from_email" json:"smtp_from_email,omitempty" yaml:"smtp_from_email,omitempty"`

	// Monitoring
	SentryDSN     *string `mapstructure:"sentry_dsn" json:"sentry_dsn,omitempty" yaml:"sentry_dsn,omitempty"`
	DatadogAPIKey *string `mapstructure:"datadog_api_key" json:"datadog_api_key,omitempty" yaml:"datadog_api_key,omitempty"`

	// Feature flags
	EnableMLPredictions   bool `mapstructure:"enable_ml_predictions" default:"true" json:"enable_ml_predictions" yaml:"enable_ml_predictions"`
	EnableFairnessChecks  bool `mapstructure:"enable_fairness_checks" default:"true" json:"enable_fairness_checks" yaml:"enable_fairness_checks"`
	EnableRealTimeUpdates bool `mapstructure:"enable_real_time_updates" default:"true" json:"enable_real_time_updates" yaml:"enable_real_time_updates"`
}

func (s *Settings) IsProduction() bool {
	return s.Environment == EnvironmentProduction
}

func (s *Settings) IsDevelopment() bool {
	return s.Environment == EnvironmentDevelopment
}

// CacheTTL is the lifetime of a cache entry.
func (s *Settings) CacheTTL() time.Duration {
	return time.Duration(s.RedisCacheTTL) * time.Second
}

// AccessTokenTTL is the lifetime of an issued access token.
func (s *Settings) AccessTokenTTL() time.Duration {
	return time.Duration(s.JWTExpirationHours) * time.Hour
}

// RefreshTokenTTL is the lifetime of an issued refresh token.
func (s *Settings) RefreshTokenTTL() time.Duration {
	return time.Duration(s.RefreshTokenExpirationDays) * 24 * time.Hour
}

// DatabaseMaxConns is the hard connection ceiling: the steady pool plus the
// allowed overflow.
func (s *Settings) DatabaseMaxConns() int32 {
	return int32(s.DatabasePoolSize + s.DatabaseMaxOverflow)
}

// PoolConfig parses DatabaseURL into a pgx pool configuration sized from the
// pool settings. No connection is made.
//
// A driver suffix on the scheme, as in "postgresql+asyncpg://", is dropped.
func (s *Settings) PoolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(stripDriver(s.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse database_url: %w", err)
	}
	cfg.MinConns = int32(s.DatabasePoolSize)
	cfg.MaxConns = s.DatabaseMaxConns()
	return cfg, nil
}

// RedisOptions parses RedisURL into go-redis client options. No connection
// is made.
func (s *Settings) RedisOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(s.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis_url: %w", err)
	}
	return opts, nil
}

// SigningMethod resolves JWTAlgorithm to a registered JWT signing method.
func (s *Settings) SigningMethod() (jwt.SigningMethod, error) {
	m := jwt.GetSigningMethod(s.JWTAlgorithm)
	if m == nil {
		return nil, &FieldError{
			Field:  "jwt_algorithm",
			Value:  s.JWTAlgorithm,
			Reason: "unknown signing algorithm",
		}
	}
	return m, nil
}

// ValidateDerived parses the values the connection and token helpers depend
// on and returns every failure as a *multierror.Error. Nothing is dialed.
func (s *Settings) ValidateDerived() error {
	var errs *multierror.Error
	if _, err := s.PoolConfig(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if _, err := s.RedisOptions(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if _, err := s.SigningMethod(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

const redactedValue = "********"

// Redacted returns a copy safe to print: credentials embedded in URLs and all
// secret keys are masked. Absent optional values stay absent.
func (s *Settings) Redacted() *Settings {
	c := *s
	c.CORSOrigins = append([]string(nil), s.CORSOrigins...)
	c.DatabaseURL = redactURL(s.DatabaseURL)
	c.RedisURL = redactURL(s.RedisURL)
	if c.JWTSecretKey != "" {
		c.JWTSecretKey = redactedValue
	}
	for _, p := range []**string{&c.OpenAIAPIKey, &c.GeminiAPIKey, &c.SMTPPassword, &c.DatadogAPIKey} {
		if *p != nil {
			masked := redactedValue
			*p = &masked
		}
	}
	if c.SentryDSN != nil {
		dsn := redactURL(*c.SentryDSN)
		c.SentryDSN = &dsn
	}
	return &c
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		return u.Redacted()
	}
	// Sentry style DSNs carry the key as the username.
	u.User = url.User(redactedValue)
	return u.String()
}

func stripDriver(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	if base, _, found := strings.Cut(scheme, "+"); found {
		return base + "://" + rest
	}
	return raw
}
