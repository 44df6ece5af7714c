package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:        "./test.db",
		Port:          "8080",
		BrandsDir:     "./brands",
		APIAccessKey:  "test-key",
		FetchSchedule: "0 * * * *",
		FetchTimeout:  30,
		FetchPace:     2,
		UserAgent:     "Test Agent",
		Timezone:      "UTC",
		Debug:         true,
		Version:       "test-version",
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected db path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.FetchSchedule != "0 * * * *" {
		t.Errorf("Expected fetch schedule '0 * * * *', got '%s'", cfg.FetchSchedule)
	}
	if cfg.FetchTimeout != 30 {
		t.Errorf("Expected fetch timeout 30, got %d", cfg.FetchTimeout)
	}
	if cfg.FetchPace != 2 {
		t.Errorf("Expected fetch pace 2, got %d", cfg.FetchPace)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestGetPanicsWhenNotLoaded(t *testing.T) {
	prev := globalCfg
	globalCfg = nil
	defer func() {
		globalCfg = prev
		if r := recover(); r == nil {
			t.Error("Get should panic when configuration is not loaded")
		}
	}()
	Get()
}
