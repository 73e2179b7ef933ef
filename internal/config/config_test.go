package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"http://a.test", []string{"http://a.test"}},
		{" http://a.test , ,http://b.test ", []string{"http://a.test", "http://b.test"}},
	}
	for _, tt := range tests {
		if got := parseOrigins(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_TTL_DAYS", "")
	t.Setenv("OTP_TTL_MINUTES", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg := Load()
	if cfg.SessionTTL != 30*24*time.Hour {
		t.Errorf("SessionTTL = %v, want 30 days", cfg.SessionTTL)
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Errorf("OTPTTL = %v, want 10m", cfg.OTPTTL)
	}
	if cfg.RedisEnabled() {
		t.Error("RedisEnabled() = true with empty REDIS_URL")
	}
	if cfg.StorageDriver != StoragePostgres {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, StoragePostgres)
	}
}

func TestGetEnvIntFallback(t *testing.T) {
	t.Setenv("BCRYPT_COST", "not-a-number")
	if got := getEnvInt("BCRYPT_COST", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want fallback 7", got)
	}
}
