package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SMS      SMSConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	// TTL bounds how long inbound provider message ids are remembered for
	// webhook deduplication.
	TTL time.Duration
}

// SMSConfig carries the gateway settings. Credentials are checked at send
// time, not at startup, so an instance can run with sending disabled.
type SMSConfig struct {
	Enabled            bool
	AccountSID         string
	AuthToken          string
	SenderNumber       string
	DefaultCountryCode string
	APIBaseURL         string
}

type NotifyConfig struct {
	// Roles is the allow-list of roles whose users receive realtime events.
	Roles []string
}

func LoadAll() (*Config, error) {
	var errs []error

	postgresURL, err := requireEnv("POSTGRES_URL")
	if err != nil {
		errs = append(errs, err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		errs = append(errs, err)
	}

	smsCfg, err := loadSMSConfig()
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: postgresURL,
		},
		Redis: redisCfg,
		SMS:   smsCfg,
		Notify: NotifyConfig{
			Roles: splitList(getEnv("NOTIFY_ROLES", "System Manager,Sales User")),
		},
	}

	errs = append(errs, validate(cfg)...)

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	var errs []error

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, err)
	}
	ttlSeconds, err := getEnvInt("REDIS_TTL_SECONDS", 86400)
	if err != nil {
		errs = append(errs, err)
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttlSeconds) * time.Second,
	}, joinErrors(errs)
}

func loadSMSConfig() (SMSConfig, error) {
	enabled, err := getEnvBool("SMS_ENABLED", false)
	if err != nil {
		return SMSConfig{}, err
	}

	return SMSConfig{
		Enabled:            enabled,
		AccountSID:         os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:          os.Getenv("TWILIO_AUTH_TOKEN"),
		SenderNumber:       os.Getenv("TWILIO_SENDER_NUMBER"),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "+61"),
		APIBaseURL:         getEnv("TWILIO_API_BASE_URL", "https://api.twilio.com"),
	}, nil
}

func validate(cfg *Config) []error {
	var errs []error

	if !strings.HasPrefix(cfg.SMS.DefaultCountryCode, "+") {
		errs = append(errs, fmt.Errorf("DEFAULT_COUNTRY_CODE must start with +, got %q", cfg.SMS.DefaultCountryCode))
	}
	if cfg.Redis.Enabled && cfg.Redis.TTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_SECONDS must be > 0"))
	}
	if len(cfg.Notify.Roles) == 0 {
		errs = append(errs, errors.New("NOTIFY_ROLES must not be empty"))
	}

	return errs
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %q", key, v)
	}
	return i, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for env %s: %q", key, v)
	}
	return b, nil
}

func joinErrors(errs []error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return errors.Join(nonNil...)
}
