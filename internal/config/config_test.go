// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("base url = %q", cfg.Server.BaseURL)
	}
	if cfg.UI.Theme != "dark" || cfg.UI.SidebarWidth != 32 {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should default to enabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1.0.0"

[server]
base_url = "https://askdesk.example.com/api"
timeout_secs = 30

[user]
id = "u-42"
name = "Dana"

[ui]
theme = "light"
sidebar_width = 40
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.BaseURL != "https://askdesk.example.com/api" {
		t.Errorf("base url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutSecs != 30 {
		t.Errorf("timeout = %d", cfg.Server.TimeoutSecs)
	}
	if cfg.Server.MaxRetries != 3 {
		t.Errorf("max retries should default, got %d", cfg.Server.MaxRetries)
	}
	if cfg.User.ID != "u-42" || cfg.User.Name != "Dana" {
		t.Errorf("user = %+v", cfg.User)
	}
	if cfg.UI.Theme != "light" || cfg.UI.SidebarWidth != 40 {
		t.Errorf("ui = %+v", cfg.UI)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ASKDESK_SERVER_URL", "http://10.0.0.5:9000")
	t.Setenv("ASKDESK_USER_ID", "env-user")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("base url = %q", cfg.Server.BaseURL)
	}
	if cfg.User.ID != "env-user" {
		t.Errorf("user id = %q", cfg.User.ID)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = "not a url"
	cfg.UI.Theme = "neon"
	cfg.UI.SidebarWidth = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs, ok := err.(ValidateErrors)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if len(errs) != 3 {
		t.Errorf("got %d errors: %v", len(errs), errs)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.User.ID = "u-7"
	cfg.Server.BaseURL = "https://desk.internal"

	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.User.ID != "u-7" || loaded.Server.BaseURL != "https://desk.internal" {
		t.Errorf("round trip = %+v", loaded)
	}
}
