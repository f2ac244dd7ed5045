package config

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

var envMu sync.Mutex

func TestLoadAll_HappyPath_Defaults(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Database.PostgresURL != "postgres://u:p@localhost:5432/db?sslmode=disable" {
		t.Fatalf("unexpected PostgresURL: %q", cfg.Database.PostgresURL)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected Server.Address default: %q", cfg.Server.Address)
	}
	if cfg.SMS.Enabled {
		t.Fatalf("expected SMS disabled by default")
	}
	if cfg.SMS.DefaultCountryCode != "+61" {
		t.Fatalf("unexpected DefaultCountryCode default: %q", cfg.SMS.DefaultCountryCode)
	}
	if cfg.SMS.APIBaseURL != "https://api.twilio.com" {
		t.Fatalf("unexpected APIBaseURL default: %q", cfg.SMS.APIBaseURL)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected Redis disabled when REDIS_ADDR not set")
	}

	wantRoles := []string{"System Manager", "Sales User"}
	if len(cfg.Notify.Roles) != len(wantRoles) {
		t.Fatalf("unexpected default roles: %v", cfg.Notify.Roles)
	}
	for i := range wantRoles {
		if cfg.Notify.Roles[i] != wantRoles[i] {
			t.Fatalf("unexpected default roles: %v", cfg.Notify.Roles)
		}
	}
}

func TestLoadAll_HappyPath_Full(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
	t.Setenv("SERVER_ADDRESS", ":9090")

	t.Setenv("SMS_ENABLED", "true")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_SENDER_NUMBER", "+61400000000")
	t.Setenv("DEFAULT_COUNTRY_CODE", "+49")

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TTL_SECONDS", "42")

	t.Setenv("NOTIFY_ROLES", "Support Agent, Inbox Admin")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Fatalf("unexpected Server.Address: %q", cfg.Server.Address)
	}
	if !cfg.SMS.Enabled {
		t.Fatalf("expected SMS enabled")
	}
	if cfg.SMS.AccountSID != "AC123" || cfg.SMS.AuthToken != "secret" {
		t.Fatalf("unexpected credentials: %q/%q", cfg.SMS.AccountSID, cfg.SMS.AuthToken)
	}
	if cfg.SMS.SenderNumber != "+61400000000" {
		t.Fatalf("unexpected SenderNumber: %q", cfg.SMS.SenderNumber)
	}
	if cfg.SMS.DefaultCountryCode != "+49" {
		t.Fatalf("unexpected DefaultCountryCode: %q", cfg.SMS.DefaultCountryCode)
	}

	if !cfg.Redis.Enabled {
		t.Fatalf("expected Redis enabled")
	}
	if cfg.Redis.Address != "localhost:6379" || cfg.Redis.Password != "hunter2" || cfg.Redis.DB != 3 {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Redis.TTL != 42*time.Second {
		t.Fatalf("unexpected Redis.TTL: %v", cfg.Redis.TTL)
	}

	if len(cfg.Notify.Roles) != 2 || cfg.Notify.Roles[0] != "Support Agent" || cfg.Notify.Roles[1] != "Inbox Admin" {
		t.Fatalf("unexpected roles: %v", cfg.Notify.Roles)
	}
}

func TestLoadAll_RequiredEnvMissing(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	_, err := LoadAll()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "POSTGRES_URL") {
		t.Fatalf("expected error mentioning POSTGRES_URL, got: %v", err)
	}
}

func TestLoadAll_InvalidValues(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"invalid SMS_ENABLED", "SMS_ENABLED", "maybe"},
		{"invalid REDIS_DB", "REDIS_DB", "bad"},
		{"invalid REDIS_TTL_SECONDS", "REDIS_TTL_SECONDS", "bad"},
		{"ttl zero", "REDIS_TTL_SECONDS", "0"},
		{"country code without plus", "DEFAULT_COUNTRY_CODE", "61"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)

			t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")

			if strings.HasPrefix(tc.key, "REDIS_") {
				t.Setenv("REDIS_ADDR", "localhost:6379")
			}
			t.Setenv(tc.key, tc.val)

			_, err := LoadAll()
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}

func TestLoadAll_EmptyRolesRejected(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
	t.Setenv("NOTIFY_ROLES", " , ")

	_, err := LoadAll()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "NOTIFY_ROLES") {
		t.Fatalf("expected error mentioning NOTIFY_ROLES, got: %v", err)
	}
}

func TestRequireEnv(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	_, err := requireEnv("MISSING_KEY")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	t.Setenv("FOO", "bar")
	v, err := requireEnv("FOO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "bar" {
		t.Fatalf("expected %q, got %q", "bar", v)
	}
}

func TestGetEnvInt(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	got, err := getEnvInt("MISSING", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}

	t.Setenv("N", "123")
	got, err = getEnvInt("N", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 123 {
		t.Fatalf("expected 123, got %d", got)
	}

	t.Setenv("BAD", "abc")
	_, err = getEnvInt("BAD", 7)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "BAD") {
		t.Fatalf("expected error mentioning BAD, got: %v", err)
	}
}

func TestJoinErrors(t *testing.T) {
	if err := joinErrors(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := joinErrors([]error{nil, nil}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	e1 := errors.New("one")
	e2 := errors.New("two")
	err := joinErrors([]error{e1, nil, e2})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	if !errors.Is(err, e1) {
		t.Fatalf("expected errors.Is(err, e1) to be true")
	}
	if !errors.Is(err, e2) {
		t.Fatalf("expected errors.Is(err, e2) to be true")
	}
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"POSTGRES_URL",
		"SERVER_ADDRESS",
		"SMS_ENABLED",
		"TWILIO_ACCOUNT_SID",
		"TWILIO_AUTH_TOKEN",
		"TWILIO_SENDER_NUMBER",
		"TWILIO_API_BASE_URL",
		"DEFAULT_COUNTRY_CODE",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"REDIS_TTL_SECONDS",
		"NOTIFY_ROLES",
		"FOO",
		"N",
		"BAD",
	}
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}
