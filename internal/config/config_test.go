package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		viper.Reset()

		if err := Init(); err != nil {
			t.Errorf("Init() failed: %v", err)
		}

		cfg := Get()
		if cfg == nil {
			t.Fatal("Get() returned nil after Init()")
		}
		if cfg.Daemon.DefaultProfilePath != DefaultConfig.Daemon.DefaultProfilePath {
			t.Errorf("expected default profile path %s, got %s",
				DefaultConfig.Daemon.DefaultProfilePath, cfg.Daemon.DefaultProfilePath)
		}
		if cfg.Daemon.CommandQueueSize != DefaultConfig.Daemon.CommandQueueSize {
			t.Errorf("expected default queue size %d, got %d",
				DefaultConfig.Daemon.CommandQueueSize, cfg.Daemon.CommandQueueSize)
		}
	})
}

func TestGetWithoutInit(t *testing.T) {
	cfg := Get()
	if cfg.Daemon.ControlBusName != DefaultConfig.Daemon.ControlBusName {
		t.Errorf("expected default bus name without Init(), got %s", cfg.Daemon.ControlBusName)
	}
}

func TestConfigPrecedence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "inputplumberd-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	current := `daemon:
  default_profile_path: /current/profile.yaml
`
	currentConfig := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(currentConfig, []byte(current), 0644); err != nil {
		t.Fatal(err)
	}

	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	viper.Reset()
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	cfg := Get()
	if cfg.Daemon.DefaultProfilePath != "/current/profile.yaml" {
		t.Errorf("expected config file value to override default, got %s", cfg.Daemon.DefaultProfilePath)
	}
}

func TestGetConfigPath(t *testing.T) {
	viper.Reset()
	path := GetConfigPath()
	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
}
