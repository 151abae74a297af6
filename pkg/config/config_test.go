package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type serverSection struct {
	Host    string        `yaml:"host" envconfig:"host"`
	Port    int           `yaml:"port" envconfig:"port"`
	Timeout time.Duration `yaml:"timeout" envconfig:"timeout"`
}

type testConfig struct {
	Name   string        `yaml:"name" envconfig:"cfgtest_name"`
	Server serverSection `yaml:"server" envconfig:"cfgtest_server"`
}

func (c *testConfig) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CFG_HOST", "node.example")
	var cfg testConfig
	err := Parse([]byte("name: demo\nserver:\n  host: ${TEST_CFG_HOST}\n  port: 8545\n  timeout: 3s\n"), &cfg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Host != "node.example" || cfg.Server.Port != 8545 || cfg.Server.Timeout != 3*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("CFGTEST_SERVER_PORT", "9000")
	t.Setenv("CFGTEST_SERVER_TIMEOUT", "1m")
	var cfg testConfig
	if err := Parse([]byte("name: demo\nserver:\n  host: a\n  port: 1\n"), &cfg); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Timeout != time.Minute {
		t.Errorf("override not applied: %+v", cfg.Server)
	}
	if cfg.Server.Host != "a" || cfg.Name != "demo" {
		t.Errorf("unset variables must keep file values: %+v", cfg)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg := testConfig{Name: "default", Server: serverSection{Port: 1}}
	if err := Parse([]byte("server:\n  host: h\n"), &cfg); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "default" || cfg.Server.Port != 1 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestParseValidates(t *testing.T) {
	var cfg testConfig
	err := Parse([]byte("name: demo\n"), &cfg)
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestParseBadEnvValue(t *testing.T) {
	t.Setenv("CFGTEST_SERVER_PORT", "not-a-number")
	var cfg testConfig
	if err := Parse([]byte("server:\n  port: 1\n"), &cfg); err == nil {
		t.Fatal("expected error for bad override")
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}
