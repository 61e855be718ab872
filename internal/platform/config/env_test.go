package config

import "testing"

func TestParseEnvPopulatesFields(t *testing.T) {
	t.Setenv("FRESHCART_TEST_ADDR", ":9090")
	t.Setenv("FRESHCART_TEST_NAME", "market")

	var cfg struct {
		Addr string `env:"FRESHCART_TEST_ADDR"`
		Name string `env:"FRESHCART_TEST_NAME"`
	}
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr = %q, want %q", cfg.Addr, ":9090")
	}
	if cfg.Name != "market" {
		t.Fatalf("name = %q, want %q", cfg.Name, "market")
	}
}

func TestParseEnvLeavesUnsetFieldsZero(t *testing.T) {
	var cfg struct {
		Missing string `env:"FRESHCART_TEST_UNSET_VALUE"`
	}
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Missing != "" {
		t.Fatalf("missing = %q, want empty", cfg.Missing)
	}
}
