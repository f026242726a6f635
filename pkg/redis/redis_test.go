package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/wonny/aegis-credit/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil).Enabled() {
		t.Error("Expected wrapped nil client to be disabled")
	}
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	cache := NewCache(client, "test")
	ctx := context.Background()

	// When Redis is disabled, reads miss and writes report ErrDisabled
	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(ctx, "key", "value", 0); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}

	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	cache := NewCache(&Client{}, "aegis-credit")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"ModelKey", ModelKey("ab12"), "model:ab12"},
		{"LatestModelKey", LatestModelKey(), "model:latest"},
		{"prefixed", cache.Key(ModelKey("ab12")), "aegis-credit:model:ab12"},
		{"no prefix", NewCache(&Client{}, "").Key("k"), "k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}
